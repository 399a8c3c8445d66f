package layout

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senpro-it/wassup/tools"
)

func unpositioned(n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Width: 1, Height: 1}
	}
	return frames
}

func TestSide(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 2: 2, 4: 2, 5: 3, 9: 3, 10: 4}
	for n, want := range cases {
		assert.Equal(t, want, Side(n), "n=%d", n)
	}
}

func TestPlaceFivePanesInThreeByThreeGrid(t *testing.T) {
	placed, bounds, err := Place(unpositioned(5))
	require.NoError(t, err)

	want := [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}}
	require.Len(t, placed, len(want))
	for i, p := range placed {
		assert.Equal(t, want[i], [2]int{p.X, p.Y}, "pane %d", i)
	}
	assert.Equal(t, Bounds{Width: 3, Height: 2}, bounds)
}

func TestPlaceAssignsDistinctCellsInsideGrid(t *testing.T) {
	for n := 1; n <= 30; n++ {
		placed, _, err := Place(unpositioned(n))
		require.NoError(t, err)

		side := Side(n)
		seen := map[[2]int]bool{}
		for _, p := range placed {
			assert.True(t, p.X >= 0 && p.X < side, "n=%d x=%d", n, p.X)
			assert.True(t, p.Y >= 0 && p.Y < side, "n=%d y=%d", n, p.Y)
			cell := [2]int{p.X, p.Y}
			assert.False(t, seen[cell], "n=%d duplicate cell %v", n, cell)
			seen[cell] = true
		}
	}
}

func TestPlaceKeepsExplicitFrame(t *testing.T) {
	frames := []Frame{
		{X: tools.PtrOf(2), Y: tools.PtrOf(3), Width: 2, Height: 1},
		{X: tools.PtrOf(0), Y: tools.PtrOf(0), Width: 1, Height: 1},
	}
	placed, bounds, err := Place(frames)
	require.NoError(t, err)

	assert.Equal(t, Placement{X: 2, Y: 3, Width: 2, Height: 1}, placed[0])
	assert.Equal(t, Placement{X: 0, Y: 0, Width: 1, Height: 1}, placed[1])
	assert.Equal(t, Bounds{Width: 4, Height: 4}, bounds)
}

func TestPlaceMixedPutsGridBelowPositioned(t *testing.T) {
	frames := []Frame{
		{Width: 1, Height: 1},
		{X: tools.PtrOf(0), Y: tools.PtrOf(0), Width: 2, Height: 2},
		{Width: 1, Height: 1},
		{Width: 1, Height: 1},
	}
	placed, bounds, err := Place(frames)
	require.NoError(t, err)

	assert.Equal(t, Placement{X: 0, Y: 2, Width: 1, Height: 1}, placed[0])
	assert.Equal(t, Placement{X: 0, Y: 0, Width: 2, Height: 2}, placed[1])
	assert.Equal(t, Placement{X: 1, Y: 2, Width: 1, Height: 1}, placed[2])
	assert.Equal(t, Placement{X: 0, Y: 3, Width: 1, Height: 1}, placed[3])
	assert.Equal(t, Bounds{Width: 2, Height: 4}, bounds)
}

func TestPlaceRejectsInvalidFrames(t *testing.T) {
	cases := []struct {
		name  string
		frame Frame
		want  error
	}{
		{"only x", Frame{X: tools.PtrOf(1), Width: 1, Height: 1}, ErrPartialFrame},
		{"only y", Frame{Y: tools.PtrOf(1), Width: 1, Height: 1}, ErrPartialFrame},
		{"negative", Frame{X: tools.PtrOf(-1), Y: tools.PtrOf(0), Width: 1, Height: 1}, ErrNegativeFrame},
		{"zero width", Frame{Width: 0, Height: 1}, ErrEmptyFrame},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Place([]Frame{tc.frame})
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, 0, oopsErr.Context()["index"])
		})
	}
}

func TestPlaceEmpty(t *testing.T) {
	placed, bounds, err := Place(nil)
	require.NoError(t, err)
	assert.Empty(t, placed)
	assert.Equal(t, Bounds{}, bounds)
}

func TestRegion(t *testing.T) {
	r := Region(Placement{X: 1, Y: 0, Width: 1, Height: 2}, Bounds{Width: 2, Height: 2})
	assert.Equal(t, Rect{X: 0.5, Y: 0, Width: 0.5, Height: 1}, r)
	assert.Equal(t, Rect{}, Region(Placement{}, Bounds{}))
}

func TestPlacePacksOneCellPerPaneRegardlessOfSize(t *testing.T) {
	placed, bounds, err := Place([]Frame{{Width: 2, Height: 1}, {Width: 1, Height: 1}})
	require.NoError(t, err)

	assert.Equal(t, Placement{X: 0, Y: 0, Width: 2, Height: 1}, placed[0])
	assert.Equal(t, Placement{X: 1, Y: 0, Width: 1, Height: 1}, placed[1])
	assert.Equal(t, Bounds{Width: 2, Height: 1}, bounds)
}
