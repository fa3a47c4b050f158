package sprite

import (
	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
)

// Packer packs free overlay pixels into sprites.
type Packer struct {
	// Width and Height are the sprite dimensions.
	Width, Height int
	// Palettes is the full palette table; only groups First up to but not
	// including Last are used for sprites.
	Palettes    []palette.Colors
	First, Last int
	Background  uint8
}

func (p *Packer) rowEmpty(m *grid.Image, y int) bool {
	for x := 0; x < m.Width(); x++ {
		if m.At(x, y) != p.Background {
			return false
		}
	}
	return true
}

func (p *Packer) columnEmpty(m *grid.Image, x, y int) bool {
	for j := y; j < y+p.Height && j < m.Height(); j++ {
		if m.At(x, j) != p.Background {
			return false
		}
	}
	return true
}

func (p *Packer) windowColors(m *grid.Image, x, y int) palette.Colors {
	var colors palette.Colors
	for j := y; j < y+p.Height && j < m.Height(); j++ {
		for i := x; i < x+p.Width && i < m.Width(); i++ {
			if c := m.At(i, j); c != p.Background {
				colors = colors.Add(c)
			}
		}
	}
	return colors
}

// Pack extracts sprites from m top to bottom. A band of sprite height
// starts at every row that still has pixels and a sprite starts at every
// column of the band that still has pixels. Each sprite uses the palette
// group covering the most colors of its window. m is not modified; the
// pixels no sprite could take are returned as the second value.
func (p *Packer) Pack(m *grid.Image) ([]Sprite, *grid.Image) {
	left := m.Clone()

	var sprites []Sprite
	for y := 0; y < left.Height(); y++ {
		if p.rowEmpty(left, y) {
			continue
		}
		for x := 0; x < left.Width(); {
			if p.columnEmpty(left, x, y) {
				x++
				continue
			}
			want := p.windowColors(left, x, y)
			i, n := palette.Best(p.Palettes, p.First, p.Last, want)
			if n == 0 {
				// No group has any of these colors
				x++
				continue
			}
			s := Extract(left, x, y, p.Width, p.Height, p.Palettes[i].Intersect(want), p.Background, true)
			s.Palette = i
			sprites = append(sprites, s)
		}
	}

	return sprites, left
}

// Coalesce merges pairs of sprites on the same row with the same palette
// group whose pixels fit within one sprite width, returning the new list.
// The merged sprite starts at the first non-blank column of the left
// sprite. Sprites are merged in list order and no pixel is lost.
func Coalesce(sprites []Sprite, background uint8) []Sprite {
	out := make([]Sprite, 0, len(sprites))
	for _, s := range sprites {
		if n := len(out); n > 0 && mergeable(&out[n-1], &s) {
			out[n-1] = merge(&out[n-1], &s, background)
			continue
		}
		out = append(out, s)
	}
	return out
}

func mergeable(a, b *Sprite) bool {
	if a.Y != b.Y || a.Palette != b.Palette || a.Width() != b.Width() || a.Height() != b.Height() {
		return false
	}
	if b.X < a.X || b.X > a.X+a.Width() {
		return false
	}
	if a.BlankLeft == a.Width() || b.BlankLeft == b.Width() {
		return false
	}
	start := a.X + a.BlankLeft
	end := b.X + b.Width() - b.BlankRight
	return end-start <= a.Width()
}

func merge(a, b *Sprite, background uint8) Sprite {
	s := Sprite{
		X:       a.X + a.BlankLeft,
		Y:       a.Y,
		Palette: a.Palette,
		Colors:  a.Colors.Union(b.Colors),
		Pixels:  grid.NewImage(a.Width(), a.Height(), background),
	}
	for _, src := range []*Sprite{a, b} {
		for y := 0; y < src.Height(); y++ {
			for x := 0; x < src.Width(); x++ {
				c := src.Pixels.At(x, y)
				if c == background {
					continue
				}
				s.Pixels.Set(src.X+x-s.X, y, c)
			}
		}
	}
	s.updateBlanks(background)
	return s
}
