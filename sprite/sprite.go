/*
Package sprite extracts hardware sprites from an overlay image.

Sprites come from two places: cells of the overlay grid, which already have
a palette group chosen for them, and the free overlay, which is packed
greedily band by band choosing the best sprite palette group for each
sprite.
*/
package sprite

import (
	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/palette"
)

// Sprite is a single hardware sprite.
type Sprite struct {
	X, Y int
	// Palette is the palette group index, counting background groups.
	Palette int
	Colors  palette.Colors
	Pixels  *grid.Image
	// BlankLeft and BlankRight are the number of columns at either edge
	// of Pixels that only contain the background color.
	BlankLeft, BlankRight int
}

// Width returns the width of the sprite.
func (s *Sprite) Width() int {
	return s.Pixels.Width()
}

// Height returns the height of the sprite.
func (s *Sprite) Height() int {
	return s.Pixels.Height()
}

// Extract copies the pixels of m in the w by h area at (x, y) that use one
// of colors into a new sprite; every other pixel of the sprite is set to
// background. Pixels outside m are treated as background. If remove is set
// the copied pixels are replaced with background in m.
func Extract(m *grid.Image, x, y, w, h int, colors palette.Colors, background uint8, remove bool) Sprite {
	s := Sprite{
		X:      x,
		Y:      y,
		Pixels: grid.NewImage(w, h, background),
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if !m.In(x+i, y+j) {
				continue
			}
			c := m.At(x+i, y+j)
			if c == background || !colors.Has(c) {
				continue
			}
			s.Pixels.Set(i, j, c)
			s.Colors = s.Colors.Add(c)
			if remove {
				m.Set(x+i, y+j, background)
			}
		}
	}
	s.updateBlanks(background)
	return s
}

func (s *Sprite) updateBlanks(background uint8) {
	s.BlankLeft = blankColumns(s.Pixels, background, 0, 1)
	s.BlankRight = blankColumns(s.Pixels, background, s.Pixels.Width()-1, -1)
}

func blankColumns(m *grid.Image, background uint8, start, step int) int {
	n := 0
	for x := start; x >= 0 && x < m.Width(); x += step {
		for y := 0; y < m.Height(); y++ {
			if m.At(x, y) != background {
				return n
			}
		}
		n++
	}
	return n
}

// Grid returns the sprites covering the overlay grid. Each cell of l with
// colors is cut into sprites of width by height pixels taken from m, using
// the palette group recorded for the cell in indices. Sprites without any
// pixels are skipped.
func Grid(m *grid.Image, l *layer.Layer, indices *grid.Grid[int], width, height int) []Sprite {
	var sprites []Sprite
	for cy := 0; cy < l.Height(); cy++ {
		for cx := 0; cx < l.Width(); cx++ {
			cell := l.At(cx, cy)
			if cell.Colors.Empty() {
				continue
			}
			for y := 0; y < l.CellHeight(); y += height {
				for x := 0; x < l.CellWidth(); x += width {
					s := Extract(m, cx*l.CellWidth()+x, cy*l.CellHeight()+y, width, height, cell.Colors, l.Background(), false)
					if s.Colors.Empty() {
						continue
					}
					s.Palette = indices.At(cx, cy)
					sprites = append(sprites, s)
				}
			}
		}
	}
	return sprites
}

// MaxPerScanline returns the largest number of sprites covering any one
// scanline.
func MaxPerScanline(sprites []Sprite) int {
	counts := make(map[int]int)
	most := 0
	for _, s := range sprites {
		for y := s.Y; y < s.Y+s.Height(); y++ {
			counts[y]++
			if counts[y] > most {
				most = counts[y]
			}
		}
	}
	return most
}
