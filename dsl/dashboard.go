package dsl

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/oops"
	"github.com/sourcegraph/conc/iter"

	"github.com/senpro-it/wassup/layout"
	"github.com/senpro-it/wassup/models"
)

const DefaultConcurrency = 4

type Dashboard struct {
	Name  string
	Panes []*Pane
}

// NewDashboard runs the pane block right away. Nil panes are dropped.
func NewDashboard(name string, panes func(b *Builder[*Pane])) *Dashboard {
	d := &Dashboard{Name: name}
	for _, p := range Collect(panes) {
		if p != nil {
			d.Panes = append(d.Panes, p)
		}
	}
	return d
}

// Registry holds the dashboards a script declares, in declaration order.
type Registry struct {
	dashboards  []*Dashboard
	concurrency int
}

type Option func(r *Registry)

// WithConcurrency bounds how many panes of a dashboard evaluate at once.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Dashboard(name string, panes func(b *Builder[*Pane])) *Dashboard {
	d := NewDashboard(name, panes)
	r.dashboards = append(r.dashboards, d)
	return d
}

func (r *Registry) Add(dashboards ...*Dashboard) {
	for _, d := range dashboards {
		if d != nil {
			r.dashboards = append(r.dashboards, d)
		}
	}
}

func (r *Registry) Dashboards() []*Dashboard {
	return append([]*Dashboard(nil), r.dashboards...)
}

// Render evaluates every pane and lays the dashboards out. Content failures
// only empty the affected pane; invalid frames fail the whole render.
func (r *Registry) Render(ctx context.Context) (models.Output, error) {
	out := models.Output{Dashboards: make([]models.Dashboard, 0, len(r.dashboards))}
	for _, d := range r.dashboards {
		rendered, err := r.renderDashboard(ctx, d)
		if err != nil {
			return models.Output{}, err
		}
		out.Dashboards = append(out.Dashboards, rendered)
	}
	return out, nil
}

func (r *Registry) renderDashboard(ctx context.Context, d *Dashboard) (models.Dashboard, error) {
	logger := logger.WithPrefix("render").With("dashboard", d.Name)

	frames := make([]layout.Frame, len(d.Panes))
	for i, p := range d.Panes {
		frames[i] = p.Frame()
	}
	placed, bounds, err := layout.Place(frames)
	if err != nil {
		return models.Dashboard{}, oops.
			In("Registry.Render").
			With("dashboard", d.Name).
			Wrap(err)
	}

	start := time.Now()
	mapper := iter.Mapper[*Pane, []models.Item]{MaxGoroutines: r.concurrency}
	items := mapper.Map(d.Panes, func(p **Pane) []models.Item {
		contents := (*p).Evaluate(ctx)
		rows := make([]models.Item, 0, len(contents))
		for _, c := range contents {
			c.Actions = validActions(logger.With("pane", (*p).Name, "item", c.Title), c.Actions)
			rows = append(rows, c.ToItem())
		}
		return rows
	})
	logger.Debug("Panes evaluated.", "panes", len(d.Panes), "took", time.Since(start), "bounds", bounds)

	rendered := models.Dashboard{Name: d.Name, Panes: make([]models.Pane, len(d.Panes))}
	for i, p := range d.Panes {
		rendered.Panes[i] = models.Pane{
			Name:   p.Name,
			Alert:  p.Alert,
			X:      placed[i].X,
			Y:      placed[i].Y,
			Width:  placed[i].Width,
			Height: placed[i].Height,
			Items:  items[i],
		}
	}
	return rendered, nil
}

// validActions drops actions that cannot be encoded so the rest of the
// output still renders.
func validActions(logger *log.Logger, actions []models.Action) []models.Action {
	kept := actions[:0:0]
	for i, a := range actions {
		if !a.Value.Valid() {
			logger.Warn("Dropping invalid action.", "index", i, "kind", a.Value.Kind)
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
