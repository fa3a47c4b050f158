package grid

import (
	"image"
	"image/color"
)

// FromPaletted copies the color indices of m into a new Image with its
// top-left corner at (0, 0).
func FromPaletted(m *image.Paletted) *Image {
	b := m.Bounds()
	out := New[uint8](b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, m.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// ToPaletted returns m as an *image.Paletted using palette p.
func ToPaletted(m *Image, p color.Palette) *image.Paletted {
	pm := image.NewPaletted(image.Rect(0, 0, m.Width(), m.Height()), p)
	copy(pm.Pix, m.data)
	return pm
}

// CropOrExtend returns a width by height copy of m. Pixels outside of m are
// set to c.
func CropOrExtend(m *Image, width, height int, c uint8) *Image {
	out := NewImage(width, height, c)
	for y := 0; y < height && y < m.Height(); y++ {
		for x := 0; x < width && x < m.Width(); x++ {
			out.Set(x, y, m.At(x, y))
		}
	}
	return out
}

// Contains reports whether any pixel of m equals c.
func Contains(m *Image, c uint8) bool {
	for _, v := range m.data {
		if v == c {
			return true
		}
	}
	return false
}
