package overlaypal

import (
	"image/color"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/sprite"
)

// Result is a finished conversion. It is not modified after it is
// returned.
type Result struct {
	config     Config
	background uint8

	shiftX, shiftY int
	image          *grid.Image

	palettes []palette.Colors

	backgroundLayer   *layer.Layer
	backgroundIndices *grid.Grid[int]
	overlayLayer      *layer.Layer
	overlayIndices    *grid.Grid[int]
	freeLayer         *layer.Layer

	backgroundImage *grid.Image
	overlayImage    *grid.Image
	freeImage       *grid.Image

	sprites     []sprite.Sprite
	gridSprites int
	leftover    int

	diagnostic string
}

// Success reports whether the result meets every hardware limit.
func (r *Result) Success() bool {
	return r.diagnostic == ""
}

// Diagnostic describes the limit the result breaks, or is empty.
func (r *Result) Diagnostic() string {
	return r.diagnostic
}

// Config returns the configuration used for the conversion.
func (r *Result) Config() Config {
	return r.config
}

// BackgroundColor returns the shared background color.
func (r *Result) BackgroundColor() uint8 {
	return r.background
}

// Shift returns how far the image was moved before conversion.
func (r *Result) Shift() (int, int) {
	return r.shiftX, r.shiftY
}

// Input returns the image that was converted, after cropping and shifting.
func (r *Result) Input() *grid.Image {
	return r.image.Clone()
}

// Palettes returns the background palette groups followed by the sprite
// palette groups.
func (r *Result) Palettes() []palette.Colors {
	return palette.Clone(r.palettes)
}

// Sprites returns the grid sprites followed by the free sprites.
func (r *Result) Sprites() []sprite.Sprite {
	return append([]sprite.Sprite(nil), r.sprites...)
}

// NumGridSprites returns how many of the sprites cover the overlay grid.
func (r *Result) NumGridSprites() int {
	return r.gridSprites
}

// MaxSpritesPerScanline returns the largest number of sprites on any one
// scanline.
func (r *Result) MaxSpritesPerScanline() int {
	return sprite.MaxPerScanline(r.sprites)
}

// remap replaces every pixel of m with its palette group times four plus
// its 1-based slot in the group. Background becomes zero.
func (r *Result) remap(out, m *grid.Image, l *layer.Layer, indices *grid.Grid[int]) {
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			c := m.At(x, y)
			if c == r.background {
				continue
			}
			cx, cy := l.CellOf(x, y)
			if !indices.In(cx, cy) {
				continue
			}
			i := indices.At(cx, cy)
			if slot := palettesFor(r.palettes, indices, cx, cy).Slot(c); slot > 0 {
				out.Set(x, y, uint8(i*palette.GroupSize+slot))
			}
		}
	}
}

func (r *Result) remapSprites(out *grid.Image, sprites []sprite.Sprite) {
	for _, s := range sprites {
		p := r.palettes[s.Palette]
		for y := 0; y < s.Height(); y++ {
			for x := 0; x < s.Width(); x++ {
				c := s.Pixels.At(x, y)
				if c == r.background || !out.In(s.X+x, s.Y+y) {
					continue
				}
				if slot := p.Slot(c); slot > 0 {
					out.Set(s.X+x, s.Y+y, uint8(s.Palette*palette.GroupSize+slot))
				}
			}
		}
	}
}

// Background returns the remapped background layer.
func (r *Result) Background() *grid.Image {
	out := grid.New[uint8](r.image.Width(), r.image.Height())
	r.remap(out, r.backgroundImage, r.backgroundLayer, r.backgroundIndices)
	return out
}

// Overlay returns the remapped overlay layer, both the grid and the free
// sprites.
func (r *Result) Overlay() *grid.Image {
	out := grid.New[uint8](r.image.Width(), r.image.Height())
	r.remap(out, r.overlayImage, r.overlayLayer, r.overlayIndices)
	r.remapSprites(out, r.sprites[r.gridSprites:])
	return out
}

// Output returns the remapped overlay drawn over the remapped background.
func (r *Result) Output() *grid.Image {
	out := r.Background()
	overlay := r.Overlay()
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			if c := overlay.At(x, y); c != 0 {
				out.Set(x, y, c)
			}
		}
	}
	return out
}

// MaskImage returns a copy of the remapped image m with the pixels of any
// palette group not selected by mask set to zero.
func MaskImage(m *grid.Image, mask uint8) *grid.Image {
	out := m.Clone()
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			if g := out.At(x, y) / palette.GroupSize; g >= 8 || mask&(1<<g) == 0 {
				out.Set(x, y, 0)
			}
		}
	}
	return out
}

// ColorTable returns the RGB colors of the remapped images using hardware
// palette h. Unused entries are transparent.
func (r *Result) ColorTable(h *palette.Hardware) color.Palette {
	p := make(color.Palette, 0, len(r.palettes)*palette.GroupSize)
	for i, b := range palette.Table(r.palettes, r.background) {
		if i%palette.GroupSize != 0 && b == palette.Filler {
			p = append(p, color.RGBA{})
			continue
		}
		p = append(p, h[b%palette.HardwareSize])
	}
	return p
}

// PaletteRows returns the palette table, one row per palette group.
func (r *Result) PaletteRows() [][]byte {
	return palette.Rows(r.palettes, r.background)
}

// BackgroundIndexRows returns the palette group of each background cell.
func (r *Result) BackgroundIndexRows() [][]int {
	return r.backgroundIndices.Rows()
}

// OverlayIndexRows returns the palette group of each overlay grid cell.
func (r *Result) OverlayIndexRows() [][]int {
	return r.overlayIndices.Rows()
}

// ColorCountRows returns the number of colors in each background cell.
func (r *Result) ColorCountRows() [][]int {
	return r.backgroundLayer.ColorCountRows()
}

// OverlayColorCountRows returns the number of colors in each overlay grid
// cell.
func (r *Result) OverlayColorCountRows() [][]int {
	return r.overlayLayer.ColorCountRows()
}

// FreeColorCountRows returns the number of colors in each cell left to
// the free sprites.
func (r *Result) FreeColorCountRows() [][]int {
	return r.freeLayer.ColorCountRows()
}

// Leftover returns the number of overlay pixels no sprite could draw.
func (r *Result) Leftover() int {
	return r.leftover
}

// Export encodes the result as hardware data, only including the palette
// groups selected by mask.
func (r *Result) Export(mask uint8) (*nes.Export, error) {
	return nes.Encode(r.Output(), r.backgroundIndices, r.sprites, r.palettes, r.background, nes.Options{
		SpriteHeight: r.config.SpriteHeight,
		BankSize:     r.config.BankSize,
		Mask:         uint64(mask),
	})
}
