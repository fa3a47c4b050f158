package layer

import (
	"math"

	"github.com/bodgit/overlaypal/grid"
)

// Shift returns m moved right by dx and down by dy with pixels wrapping
// around the edges.
func Shift(m *grid.Image, dx, dy int) *grid.Image {
	w, h := m.Width(), m.Height()
	out := grid.New[uint8](w, h)
	if w == 0 || h == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, m.At(mod(x-dx, w), mod(y-dy, h)))
		}
	}
	return out
}

func mod(a, b int) int {
	if a %= b; a < 0 {
		a += b
	}
	return a
}

// OptimalShift tries every shift from (minX, minY) to (maxX, maxY)
// inclusive and returns the one where the total number of colors per cell
// is lowest. Shifts are tried row by row and the first of any equally good
// shifts wins.
func OptimalShift(m *grid.Image, background uint8, cellWidth, cellHeight, minX, maxX, minY, maxY int) (int, int) {
	bestX, bestY, bestCost := minX, minY, math.MaxInt
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cost := New(Shift(m, x, y), background, cellWidth, cellHeight).SumColorsPerCell()
			if cost < bestCost {
				bestX, bestY, bestCost = x, y, cost
			}
		}
	}
	return bestX, bestY
}
