// Package layout assigns grid cells to dashboard panes.
//
// Panes with explicit coordinates keep them. The rest are packed row-major
// into a square-ish grid whose side is ceil(sqrt(n)). When both kinds are
// present, the packed grid starts directly below the bounding box of the
// explicitly placed panes.
//
// Packing advances one cell per pane regardless of size, so an unpositioned
// pane wider or taller than 1 can overlap its neighbours. Give such panes an
// explicit position.
package layout

import (
	"errors"
	"math"

	"github.com/samber/oops"
)

var (
	ErrPartialFrame  = errors.New("frame sets only one of x and y")
	ErrNegativeFrame = errors.New("frame coordinates must not be negative")
	ErrEmptyFrame    = errors.New("frame width and height must be at least 1")
)

// Frame is the requested placement of a pane. X and Y are either both set or
// both nil.
type Frame struct {
	X, Y          *int
	Width, Height int
}

// Placement is a resolved frame.
type Placement struct {
	X, Y          int
	Width, Height int
}

type Bounds struct {
	Width, Height int
}

// Rect is a placement expressed as fractions of the dashboard bounds.
type Rect struct {
	X, Y, Width, Height float64
}

func (f Frame) Positioned() bool {
	return f.X != nil && f.Y != nil
}

func (f Frame) Validate() error {
	oopsBuilder := oops.In("Frame.Validate").With("width", f.Width).With("height", f.Height)
	if (f.X == nil) != (f.Y == nil) {
		return oopsBuilder.Wrap(ErrPartialFrame)
	}
	if f.Positioned() && (*f.X < 0 || *f.Y < 0) {
		return oopsBuilder.With("x", *f.X).With("y", *f.Y).Wrap(ErrNegativeFrame)
	}
	if f.Width < 1 || f.Height < 1 {
		return oopsBuilder.Wrap(ErrEmptyFrame)
	}
	return nil
}

// Side is the edge length of the smallest square grid holding n cells.
func Side(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// Place resolves every frame, keeping input order in the result.
func Place(frames []Frame) ([]Placement, Bounds, error) {
	placed := make([]Placement, len(frames))
	var bounds Bounds
	var pending []int

	for i, f := range frames {
		if err := f.Validate(); err != nil {
			return nil, Bounds{}, oops.In("Place").With("index", i).Wrap(err)
		}
		if !f.Positioned() {
			pending = append(pending, i)
			continue
		}
		placed[i] = Placement{X: *f.X, Y: *f.Y, Width: f.Width, Height: f.Height}
		bounds.Width = max(bounds.Width, *f.X+f.Width)
		bounds.Height = max(bounds.Height, *f.Y+f.Height)
	}

	// An empty bounding box means nothing was placed explicitly and the grid
	// starts at the origin; otherwise it goes below what is already there.
	top := bounds.Height
	side := Side(len(pending))
	for n, i := range pending {
		f := frames[i]
		p := Placement{
			X:      n % side,
			Y:      top + n/side,
			Width:  f.Width,
			Height: f.Height,
		}
		placed[i] = p
		bounds.Width = max(bounds.Width, p.X+p.Width)
		bounds.Height = max(bounds.Height, p.Y+p.Height)
	}

	return placed, bounds, nil
}

// Region scales a placement into the unit square of the given bounds.
func Region(p Placement, b Bounds) Rect {
	if b.Width == 0 || b.Height == 0 {
		return Rect{}
	}
	w, h := float64(b.Width), float64(b.Height)
	return Rect{
		X:      float64(p.X) / w,
		Y:      float64(p.Y) / h,
		Width:  float64(p.Width) / w,
		Height: float64(p.Height) / h,
	}
}
