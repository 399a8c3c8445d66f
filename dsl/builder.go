// Package dsl declares dashboards as plain Go code.
//
// A script registers dashboards on a Registry. Each dashboard lists its
// panes through a Builder, and each pane carries a content block that is
// only run when the registry renders. Building the tree never touches the
// network.
//
//	r.Dashboard("fastlane", func(b *dsl.Builder[*dsl.Pane]) {
//		b.Add(dsl.NewPane("Open PRs", func(c *dsl.Content) {
//			c.From(github.Search("repo:fastlane/fastlane is:pr is:open"))
//		}))
//		b.AddAll(dsl.IfThen(weekday, func() []*dsl.Pane { ... }))
//	})
package dsl

import (
	"github.com/charmbracelet/log"
)

var logger = log.Default()

// Builder collects values in declaration order.
type Builder[T any] struct {
	items []T
}

func (b *Builder[T]) Add(items ...T) {
	b.items = append(b.items, items...)
}

func (b *Builder[T]) AddAll(seq []T) {
	b.items = append(b.items, seq...)
}

func (b *Builder[T]) Len() int {
	return len(b.items)
}

// Items returns a copy of everything added so far. It is never nil.
func (b *Builder[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// IfThen yields then() when cond holds and nothing otherwise.
func IfThen[T any](cond bool, then func() []T) []T {
	if !cond || then == nil {
		return nil
	}
	return then()
}

// IfElse yields exactly one of the two branches. The other one is not called.
func IfElse[T any](cond bool, then, els func() []T) []T {
	if cond {
		return IfThen(true, then)
	}
	return IfThen(true, els)
}

// Optional yields *v when v is set.
func Optional[T any](v *T) []T {
	if v == nil {
		return nil
	}
	return []T{*v}
}

// Collect runs a block against a fresh builder and returns what it added.
func Collect[T any](block func(b *Builder[T])) []T {
	var b Builder[T]
	if block != nil {
		block(&b)
	}
	return b.Items()
}
