package dsl

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/senpro-it/wassup/layout"
	"github.com/senpro-it/wassup/models"
	"github.com/senpro-it/wassup/tools"
)

type countingSource struct {
	calls atomic.Int32
	items []models.ContentItem
	err   error
	delay time.Duration
}

func (s *countingSource) Items(ctx context.Context) ([]models.ContentItem, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.items, s.err
}

func rows(titles ...string) []models.ContentItem {
	out := make([]models.ContentItem, len(titles))
	for i, t := range titles {
		out[i] = models.ContentItem{Title: t}
	}
	return out
}

func itemTitles(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestContentIsNotEvaluatedUntilRender(t *testing.T) {
	src := &countingSource{items: rows("a")}
	r := NewRegistry()
	r.Dashboard("d", func(b *Builder[*Pane]) {
		b.Add(NewPane("p", func(c *Content) { c.From(src) }))
	})

	require.Len(t, r.Dashboards(), 1)
	assert.Equal(t, int32(0), src.calls.Load())

	out, err := r.Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, []string{"a"}, itemTitles(out.Dashboards[0].Panes[0].Items))
}

func TestPaneEvaluatesOnce(t *testing.T) {
	src := &countingSource{items: rows("a")}
	p := NewPane("p", func(c *Content) { c.From(src) })

	p.Evaluate(context.Background())
	p.Evaluate(context.Background())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestFailingSourceOnlyEmptiesItsPane(t *testing.T) {
	failing := &countingSource{err: errors.New("boom")}
	healthy := &countingSource{items: rows("ok-1", "ok-2")}

	r := NewRegistry()
	r.Dashboard("d", func(b *Builder[*Pane]) {
		b.Add(
			NewPane("broken", func(c *Content) { c.From(failing) }, WithAlert(models.AlertHigh)),
			NewPane("fine", func(c *Content) { c.From(healthy) }),
			NewPane("mixed", func(c *Content) {
				c.Item("static")
				c.From(failing, healthy)
			}),
		)
	})

	out, err := r.Render(context.Background())
	require.NoError(t, err)
	panes := out.Dashboards[0].Panes
	require.Len(t, panes, 3)

	assert.Equal(t, "broken", panes[0].Name)
	assert.Equal(t, models.AlertHigh, panes[0].Alert)
	assert.Empty(t, panes[0].Items)
	assert.Equal(t, []string{"ok-1", "ok-2"}, itemTitles(panes[1].Items))
	assert.Equal(t, []string{"static", "ok-1", "ok-2"}, itemTitles(panes[2].Items))
}

func TestPanickingPaneRendersEmpty(t *testing.T) {
	r := NewRegistry()
	r.Dashboard("d", func(b *Builder[*Pane]) {
		b.Add(
			NewPane("panics", func(c *Content) {
				c.Item("lost")
				panic("bad script")
			}),
			NewPane("fine", func(c *Content) { c.Item("kept") }),
		)
	})

	out, err := r.Render(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Dashboards[0].Panes[0].Items)
	assert.Equal(t, []string{"kept"}, itemTitles(out.Dashboards[0].Panes[1].Items))
}

func TestRenderKeepsPaneOrderRegardlessOfCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := NewRegistry(WithConcurrency(3))
	r.Dashboard("d", func(b *Builder[*Pane]) {
		for i, delay := range []time.Duration{30, 20, 10, 0} {
			src := &countingSource{items: rows(string(rune('a' + i))), delay: delay * time.Millisecond}
			b.Add(NewPane(string(rune('A'+i)), func(c *Content) { c.From(src) }))
		}
	})

	out, err := r.Render(context.Background())
	require.NoError(t, err)

	var got []string
	for _, p := range out.Dashboards[0].Panes {
		got = append(got, p.Name+itemTitles(p.Items)[0])
	}
	assert.Equal(t, []string{"Aa", "Bb", "Cc", "Dd"}, got)
}

func TestRenderAppliesLayout(t *testing.T) {
	r := NewRegistry()
	r.Dashboard("grid", func(b *Builder[*Pane]) {
		for _, n := range []string{"1", "2", "3", "4", "5"} {
			b.Add(NewPane(n, nil))
		}
	})
	r.Dashboard("explicit", func(b *Builder[*Pane]) {
		b.Add(NewPane("fixed", nil, Frame(2, 3, 2, 1)))
	})

	out, err := r.Render(context.Background())
	require.NoError(t, err)

	var cells [][2]int
	for _, p := range out.Dashboards[0].Panes {
		cells = append(cells, [2]int{p.X, p.Y})
	}
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}}, cells)

	fixed := out.Dashboards[1].Panes[0]
	assert.Equal(t, [4]int{2, 3, 2, 1}, [4]int{fixed.X, fixed.Y, fixed.Width, fixed.Height})
}

func TestRenderRejectsPartialFrame(t *testing.T) {
	p := NewPane("half", nil)
	p.X = tools.PtrOf(1)

	r := NewRegistry()
	r.Add(&Dashboard{Name: "d", Panes: []*Pane{p}})

	_, err := r.Render(context.Background())
	assert.ErrorIs(t, err, layout.ErrPartialFrame)
}

func TestNewPaneDefaults(t *testing.T) {
	p := NewPane("p", nil)
	assert.Equal(t, models.AlertNone, p.Alert)
	assert.Equal(t, 1, p.Width)
	assert.Equal(t, 1, p.Height)
	assert.False(t, p.Frame().Positioned())

	p = NewPane("p", nil, At(1, 2), Sized(3, 4))
	assert.Equal(t, layout.Frame{X: tools.PtrOf(1), Y: tools.PtrOf(2), Width: 3, Height: 4}, p.Frame())
}

func TestInvalidActionDoesNotAbortOtherPanes(t *testing.T) {
	r := NewRegistry()
	r.Dashboard("d", func(b *Builder[*Pane]) {
		b.Add(
			NewPane("bad", func(c *Content) {
				c.Add(models.ContentItem{
					Title:   "half broken",
					Actions: []models.Action{{}, {Value: models.URL("https://example.com")}},
				})
			}),
			NewPane("good", func(c *Content) { c.Item("kept") }),
		)
	})

	out, err := r.Render(context.Background())
	require.NoError(t, err)
	panes := out.Dashboards[0].Panes
	require.Len(t, panes, 2)

	require.Len(t, panes[0].Items, 1)
	assert.Equal(t, []models.Action{{Value: models.URL("https://example.com")}}, panes[0].Items[0].Actions)
	assert.NotNil(t, panes[0].Items[0].Meta)
	assert.Equal(t, []string{"kept"}, itemTitles(panes[1].Items))

	var buf bytes.Buffer
	require.NoError(t, out.Encode(&buf))
	_, err = models.DecodeOutput(buf.Bytes())
	require.NoError(t, err)
}
