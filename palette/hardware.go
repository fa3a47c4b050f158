package palette

import (
	"errors"
	"image/color"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HardwareSize is the number of colors the hardware can display.
const HardwareSize = 64

var (
	errNotEnough = errors.New("palette: not enough palette data")
	errTooMuch   = errors.New("palette: too much palette data")
)

// Hardware maps each hardware color index to an RGB value.
type Hardware [HardwareSize]color.RGBA

// Default is the stock 2C02 hardware palette.
var Default = Hardware{
	{0x54, 0x54, 0x54, 0xff}, {0x00, 0x1e, 0x74, 0xff}, {0x08, 0x10, 0x90, 0xff}, {0x30, 0x00, 0x88, 0xff},
	{0x44, 0x00, 0x64, 0xff}, {0x5c, 0x00, 0x30, 0xff}, {0x54, 0x04, 0x00, 0xff}, {0x3c, 0x18, 0x00, 0xff},
	{0x20, 0x2a, 0x00, 0xff}, {0x08, 0x3a, 0x00, 0xff}, {0x00, 0x40, 0x00, 0xff}, {0x00, 0x3c, 0x00, 0xff},
	{0x00, 0x32, 0x3c, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff},
	{0x98, 0x96, 0x98, 0xff}, {0x08, 0x4c, 0xc4, 0xff}, {0x30, 0x32, 0xec, 0xff}, {0x5c, 0x1e, 0xe4, 0xff},
	{0x88, 0x14, 0xb0, 0xff}, {0xa0, 0x14, 0x64, 0xff}, {0x98, 0x22, 0x20, 0xff}, {0x78, 0x3c, 0x00, 0xff},
	{0x54, 0x5a, 0x00, 0xff}, {0x28, 0x72, 0x00, 0xff}, {0x08, 0x7c, 0x00, 0xff}, {0x00, 0x76, 0x28, 0xff},
	{0x00, 0x66, 0x78, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff},
	{0xec, 0xee, 0xec, 0xff}, {0x4c, 0x9a, 0xec, 0xff}, {0x78, 0x7c, 0xec, 0xff}, {0xb0, 0x62, 0xec, 0xff},
	{0xe4, 0x54, 0xec, 0xff}, {0xec, 0x58, 0xb4, 0xff}, {0xec, 0x6a, 0x64, 0xff}, {0xd4, 0x88, 0x20, 0xff},
	{0xa0, 0xaa, 0x00, 0xff}, {0x74, 0xc4, 0x00, 0xff}, {0x4c, 0xd0, 0x20, 0xff}, {0x38, 0xcc, 0x6c, 0xff},
	{0x38, 0xb4, 0xcc, 0xff}, {0x3c, 0x3c, 0x3c, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff},
	{0xec, 0xee, 0xec, 0xff}, {0xa8, 0xcc, 0xec, 0xff}, {0xbc, 0xbc, 0xec, 0xff}, {0xd4, 0xb2, 0xec, 0xff},
	{0xec, 0xae, 0xec, 0xff}, {0xec, 0xae, 0xd4, 0xff}, {0xec, 0xb4, 0xb0, 0xff}, {0xe4, 0xc4, 0x90, 0xff},
	{0xcc, 0xd2, 0x78, 0xff}, {0xb4, 0xde, 0x78, 0xff}, {0xa8, 0xe2, 0x90, 0xff}, {0x98, 0xe2, 0xb4, 0xff},
	{0xa0, 0xd6, 0xe4, 0xff}, {0xa0, 0xa2, 0xa0, 0xff}, {0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0x00, 0xff},
}

// BlackerThanBlack is the hardware color that produces an out of range
// video signal on some televisions.
const BlackerThanBlack = 0x0d

// unusable lists the mirrored black entries that are never chosen when
// mapping arbitrary colors onto the hardware palette.
var unusable = [...]uint8{0x0e, 0x0f, 0x1e, 0x1f, 0x2e, 0x2f, 0x3e, 0x3f}

// ReadHardware reads a 192 byte RGB palette file from r.
func ReadHardware(r io.Reader) (Hardware, error) {
	var h Hardware
	var tmp [HardwareSize * 3]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return h, errNotEnough
		}
		return h, err
	}
	if n, err := r.Read(tmp[:1]); n != 0 || (err != nil && err != io.EOF) {
		if err != nil {
			return h, err
		}
		return h, errTooMuch
	}
	for i := range h {
		h[i] = color.RGBA{tmp[3*i], tmp[3*i+1], tmp[3*i+2], 0xff}
	}
	return h, nil
}

// Palette returns h as a color.Palette indexed by hardware color.
func (h *Hardware) Palette() color.Palette {
	p := make(color.Palette, HardwareSize)
	for i, c := range h {
		p[i] = c
	}
	return p
}

// Available returns the hardware colors that may be chosen when mapping
// arbitrary colors.
func Available(blackerThanBlack bool) []bool {
	a := make([]bool, HardwareSize)
	for i := range a {
		a[i] = true
	}
	for _, c := range unusable {
		a[c] = false
	}
	if !blackerThanBlack {
		a[BlackerThanBlack] = false
	}
	return a
}

// Nearest returns the available hardware color closest to c, measured in
// CIE L*a*b* space.
func (h *Hardware) Nearest(c color.Color, available []bool) uint8 {
	want, _ := colorful.MakeColor(c)
	best, bestDistance := 0, math.MaxFloat64
	for i, rgb := range h {
		if available != nil && !available[i] {
			continue
		}
		have, _ := colorful.MakeColor(rgb)
		if d := want.DistanceLab(have); d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return uint8(best)
}
