/*
Package tile implements NES 2 bit per pixel tiles.

A tile is 8 by 8 pixels stored as two bit planes of eight bytes each, the
first holding bit 0 of every pixel and the second bit 1, with the leftmost
pixel in the most significant bit. Tall tiles used by 8 by 16 sprites are
an upper and lower tile stored one after the other.

Pixels are read from images remapped so that each pixel is a palette group
index times four plus a slot within the group, with zero being the shared
background color.
*/
package tile

import "github.com/bodgit/overlaypal/grid"

const (
	// Width is the width of a tile in pixels.
	Width = 8
	// Height is the height of a tile in pixels.
	Height = 8
	// Size is the size of an encoded tile in bytes.
	Size = 2 * Height

	// AllPalettes is a palette mask enabling every palette group.
	AllPalettes = ^uint64(0)
)

// Tile is an encoded 8 by 8 tile.
type Tile [Size]byte

// Tall is an encoded 8 by 16 tile pair.
type Tall [2 * Size]byte

// Extract encodes the w by h area of m at (x, y) as a tile, only taking
// pixels drawn with palette group p. Pixels whose group is not set in mask
// and pixels outside m are left blank. w and h are at most 8.
func Extract(m *grid.Image, x, y, w, h int, p int, mask uint64) Tile {
	var t Tile
	for i := 0; i < h && i < Height; i++ {
		for j := 0; j < w && j < Width; j++ {
			if !m.In(x+j, y+i) {
				continue
			}
			c := m.At(x+j, y+i)
			group := int(c >> 2)
			if group != p || mask&(1<<uint(group)) == 0 {
				continue
			}
			shift := uint(Width - 1 - j)
			t[i] |= (c & 1) << shift
			t[Height+i] |= (c >> 1 & 1) << shift
		}
	}
	return t
}

// ExtractTall encodes the 8 by 16 area of m at (x, y) as a tile pair.
func ExtractTall(m *grid.Image, x, y int, p int, mask uint64) Tall {
	var t Tall
	upper := Extract(m, x, y, Width, Height, p, mask)
	lower := Extract(m, x, y+Height, Width, Height, p, mask)
	copy(t[:Size], upper[:])
	copy(t[Size:], lower[:])
	return t
}

// At returns the 2 bit value of pixel (x, y).
func (t Tile) At(x, y int) uint8 {
	shift := uint(Width - 1 - x)
	return t[y]>>shift&1 | (t[Height+y]>>shift&1)<<1
}

// Empty reports whether every pixel of the tile is zero.
func (t Tile) Empty() bool {
	return t == Tile{}
}
