package palette

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/overlaypal/grid"
	"github.com/ericpauley/go-quantize/quantize"
)

// maxSourceColors is how far an arbitrary image is reduced before each of
// its colors is matched to a hardware color.
const maxSourceColors = 256

// MapOptions controls how an arbitrary image is mapped onto hardware colors.
type MapOptions struct {
	// Map forces color matching even if the image already looks like it
	// is indexed with hardware colors.
	Map bool
	// Unique stops two source colors mapping to the same hardware color.
	Unique bool
	// BlackerThanBlack allows hardware color 0x0d to be chosen.
	BlackerThanBlack bool
}

// IsHardwareIndexed reports whether m is paletted and only uses indices that
// exist in the hardware palette.
func IsHardwareIndexed(m image.Image) bool {
	pm, ok := m.(*image.Paletted)
	if !ok {
		return false
	}
	b := pm.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if pm.ColorIndexAt(x, y) >= HardwareSize {
				return false
			}
		}
	}
	return true
}

// Map converts m into an image of hardware color indices. Images that are
// already indexed with hardware colors are used as-is unless opts.Map is
// set, anything else is reduced with a median cut quantizer and each
// remaining color is replaced with the nearest available hardware color.
func (h *Hardware) Map(m image.Image, opts MapOptions) *grid.Image {
	if !opts.Map && IsHardwareIndexed(m) {
		return grid.FromPaletted(m.(*image.Paletted))
	}

	b := m.Bounds()

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, maxSourceColors), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	// Only match colors that are actually used
	used := make([]bool, len(pm.Palette))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			used[pm.ColorIndexAt(x, y)] = true
		}
	}

	available := Available(opts.BlackerThanBlack)
	remap := make([]uint8, len(pm.Palette))
	for i, c := range pm.Palette {
		if !used[i] {
			continue
		}
		remap[i] = h.Nearest(c, available)
		if opts.Unique {
			available[remap[i]] = false
		}
	}

	out := grid.FromPaletted(pm)
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			out.Set(x, y, remap[out.At(x, y)])
		}
	}
	return out
}

// DetectBackground returns c if it is used by m, otherwise the color of the
// top-left pixel.
func DetectBackground(m *grid.Image, c uint8) uint8 {
	if grid.Contains(m, c) || m.Width() == 0 || m.Height() == 0 {
		return c
	}
	return m.At(0, 0)
}
