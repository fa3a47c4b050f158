/*
Package layer divides an indexed image into fixed size cells and records
which colors each cell uses.

Cells are the unit the palette assignment works with: every cell of a
background layer must be drawable with a single palette group.
*/
package layer

import (
	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
)

// Cell describes the non-background colors found in one cell.
type Cell struct {
	Colors palette.Colors
	// PixelCount is the number of pixels of each color.
	PixelCount map[uint8]int
	// ColumnCount is the number of pixel columns each color appears in.
	ColumnCount map[uint8]int
}

// Layer is a grid of cells covering an image.
type Layer struct {
	*grid.Grid[Cell]

	background uint8
	cellWidth  int
	cellHeight int

	maxColors int
	sumColors int
	colors    palette.Colors
}

// NewEmpty returns a width by height layer of empty cells.
func NewEmpty(background uint8, cellWidth, cellHeight, width, height int) *Layer {
	return &Layer{
		Grid:       grid.New[Cell](width, height),
		background: background,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}
}

// New builds a layer from m. Cells along the right and bottom edges that
// extend past m only count the pixels inside m.
func New(m *grid.Image, background uint8, cellWidth, cellHeight int) *Layer {
	l := NewEmpty(background, cellWidth, cellHeight,
		(m.Width()+cellWidth-1)/cellWidth,
		(m.Height()+cellHeight-1)/cellHeight)

	for cy := 0; cy < l.Height(); cy++ {
		for cx := 0; cx < l.Width(); cx++ {
			cell := Cell{
				PixelCount:  make(map[uint8]int),
				ColumnCount: make(map[uint8]int),
			}
			for x := 0; x < cellWidth; x++ {
				var column palette.Colors
				for y := 0; y < cellHeight; y++ {
					sx, sy := cx*cellWidth+x, cy*cellHeight+y
					if !m.In(sx, sy) {
						continue
					}
					if c := m.At(sx, sy); c != background {
						cell.Colors = cell.Colors.Add(c)
						cell.PixelCount[c]++
						column = column.Add(c)
					}
				}
				for _, c := range column.Slice() {
					cell.ColumnCount[c]++
				}
			}
			l.Set(cx, cy, cell)
		}
	}

	l.Update()

	return l
}

// Update recomputes the cached aggregates after cells have been changed.
func (l *Layer) Update() {
	l.maxColors, l.sumColors, l.colors = 0, 0, palette.Colors{}
	for y := 0; y < l.Height(); y++ {
		for x := 0; x < l.Width(); x++ {
			c := l.At(x, y).Colors
			if n := c.Len(); n > l.maxColors {
				l.maxColors = n
			}
			l.sumColors += c.Len()
			l.colors = l.colors.Union(c)
		}
	}
}

// Background returns the background color.
func (l *Layer) Background() uint8 {
	return l.background
}

// CellWidth returns the width of each cell in pixels.
func (l *Layer) CellWidth() int {
	return l.cellWidth
}

// CellHeight returns the height of each cell in pixels.
func (l *Layer) CellHeight() int {
	return l.cellHeight
}

// MaxColorsPerCell returns the largest number of colors in any cell.
func (l *Layer) MaxColorsPerCell() int {
	return l.maxColors
}

// SumColorsPerCell returns the total of the number of colors in each cell.
func (l *Layer) SumColorsPerCell() int {
	return l.sumColors
}

// Colors returns every color used by any cell.
func (l *Layer) Colors() palette.Colors {
	return l.colors
}

// SetColors replaces the colors of the cell at (x, y).
func (l *Layer) SetColors(x, y int, c palette.Colors) {
	l.Ptr(x, y).Colors = c
}

// CellOf returns the cell coordinates containing pixel (x, y).
func (l *Layer) CellOf(x, y int) (int, int) {
	return x / l.cellWidth, y / l.cellHeight
}

// ColorCountRows returns the number of colors in each cell, one slice per
// row of cells.
func (l *Layer) ColorCountRows() [][]int {
	return grid.Map(l.Grid, func(c Cell) int { return c.Colors.Len() }).Rows()
}
