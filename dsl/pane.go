package dsl

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/senpro-it/wassup/layout"
	"github.com/senpro-it/wassup/models"
)

// Source produces content items. Implementations do their I/O in Items.
type Source interface {
	Items(ctx context.Context) ([]models.ContentItem, error)
}

// Pane is a titled region of a dashboard. Its content block runs at most
// once, on the first Evaluate.
type Pane struct {
	Name   string
	Alert  models.Alert
	X, Y   *int
	Width  int
	Height int

	contents func(c *Content)
	once     sync.Once
	items    []models.ContentItem
}

type PaneOption func(p *Pane)

func WithAlert(alert models.Alert) PaneOption {
	return func(p *Pane) {
		p.Alert = alert
	}
}

// At pins the pane to a grid cell.
func At(x, y int) PaneOption {
	return func(p *Pane) {
		p.X, p.Y = &x, &y
	}
}

// Sized sets how many grid cells the pane spans.
func Sized(width, height int) PaneOption {
	return func(p *Pane) {
		p.Width, p.Height = width, height
	}
}

func Frame(x, y, width, height int) PaneOption {
	return func(p *Pane) {
		At(x, y)(p)
		Sized(width, height)(p)
	}
}

func NewPane(name string, contents func(c *Content), opts ...PaneOption) *Pane {
	p := &Pane{
		Name:     name,
		Alert:    models.AlertNone,
		Width:    1,
		Height:   1,
		contents: contents,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pane) Frame() layout.Frame {
	return layout.Frame{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Evaluate runs the content block. A panicking block leaves the pane empty;
// siblings are not affected.
func (p *Pane) Evaluate(ctx context.Context) []models.ContentItem {
	p.once.Do(func() {
		p.items = p.evaluate(ctx)
	})
	return p.items
}

func (p *Pane) evaluate(ctx context.Context) (items []models.ContentItem) {
	logger := logger.WithPrefix("pane").With("pane", p.Name)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Content block panicked; rendering the pane empty.", "panic", fmt.Sprint(r))
			items = []models.ContentItem{}
		}
	}()

	c := &Content{ctx: ctx, logger: logger}
	if p.contents != nil {
		p.contents(c)
	}
	return c.items.Items()
}

// Content is handed to a pane's content block.
type Content struct {
	ctx    context.Context
	logger *log.Logger
	items  Builder[models.ContentItem]
}

func (c *Content) Context() context.Context {
	return c.ctx
}

func (c *Content) Add(items ...models.ContentItem) {
	c.items.Add(items...)
}

func (c *Content) AddAll(items []models.ContentItem) {
	c.items.AddAll(items)
}

// Item adds a static row.
func (c *Content) Item(title string, subtitle ...string) {
	item := models.ContentItem{Title: title}
	if len(subtitle) > 0 {
		item.Subtitle = &subtitle[0]
	}
	c.items.Add(item)
}

// From evaluates each source in order. A failing source is logged and adds
// nothing.
func (c *Content) From(sources ...Source) {
	for i, src := range sources {
		if src == nil {
			continue
		}
		items, err := src.Items(c.ctx)
		if err != nil {
			c.logger.Error("Content source failed; skipping it.", "source", i, "error", err)
			continue
		}
		c.items.AddAll(items)
	}
}
