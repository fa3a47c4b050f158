/*
Package nes encodes a converted image into NES hardware data.

The background is written as a nametable of 32 by 30 tile indices followed
by a 64 byte attribute table, together with an MMC5 style extended RAM
table holding the palette group and upper tile index bits of each tile.
Sprites are written as OAM entries of four bytes each. Distinct tiles are
collected into CHR data, optionally split into banks of a fixed size.
*/
package nes

import (
	"errors"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/sprite"
	"github.com/bodgit/overlaypal/tile"
)

const (
	// ScreenWidth is the width of the screen in pixels.
	ScreenWidth = 256
	// ScreenHeight is the height of the screen in pixels.
	ScreenHeight = 240

	// TilesX is the width of the nametable in tiles.
	TilesX = ScreenWidth / tile.Width
	// TilesY is the height of the nametable in tiles.
	TilesY = ScreenHeight / tile.Height

	// NametableSize is the size of the nametable including attributes.
	NametableSize = 1024
	// AttributeOffset is the offset of the attribute table.
	AttributeOffset = TilesX * TilesY

	// NumBackgroundPalettes is the number of background palette groups,
	// which come before the sprite groups.
	NumBackgroundPalettes = 4
	// NumSpritePalettes is the number of sprite palette groups.
	NumSpritePalettes = 4

	// MaxSprites is the number of entries in OAM.
	MaxSprites = 64
)

var (
	// ErrSize is returned when the image or palette index grid does not
	// match the screen.
	ErrSize = errors.New("nes: image is wrong size")
	// ErrBankTooSmall is returned when a single row of tiles does not fit
	// in one CHR bank.
	ErrBankTooSmall = errors.New("nes: bank size too small")
	// ErrTooManyTiles is returned when the sprites need more tiles than
	// can be addressed.
	ErrTooManyTiles = errors.New("nes: too many sprite tiles")
)

// Export is the complete hardware data for one image.
type Export struct {
	Nametable []byte
	ExRAM     []byte
	// BackgroundCHR holds one entry per bank, or a single entry when
	// banking is disabled.
	BackgroundCHR [][]byte
	// BankRows holds the first tile row using each bank.
	BankRows  []int
	SpriteCHR []byte
	OAM       []byte
	Palette   []byte
}

// Options control the encoding.
type Options struct {
	// SpriteHeight is either 8 or 16.
	SpriteHeight int
	// BankSize is the size of each background CHR bank in bytes; zero
	// disables banking.
	BankSize int
	// Mask selects the palette groups whose pixels are encoded.
	Mask uint64
}

// Encode builds the export for m, an image of remapped pixels, where
// indices holds the background palette group of each background cell.
func Encode(m *grid.Image, indices *grid.Grid[int], sprites []sprite.Sprite, palettes []palette.Colors, background uint8, opts Options) (*Export, error) {
	e := &Export{}

	var err error
	if opts.BankSize == 0 {
		var chr []byte
		e.Nametable, e.ExRAM, chr, err = EncodeBackground(m, indices, opts.Mask)
		e.BackgroundCHR = [][]byte{chr}
		e.BankRows = []int{0}
	} else {
		e.Nametable, e.ExRAM, e.BackgroundCHR, e.BankRows, err = EncodeBackgroundBanked(m, indices, opts.Mask, opts.BankSize)
	}
	if err != nil {
		return nil, err
	}

	if e.OAM, e.SpriteCHR, err = EncodeSprites(m, sprites, opts.SpriteHeight, opts.Mask); err != nil {
		return nil, err
	}

	e.Palette = palette.Table(palettes, background)

	return e, nil
}

// NumBackgroundTiles returns the number of background tiles across every
// bank.
func (e *Export) NumBackgroundTiles() int {
	n := 0
	for _, b := range e.BackgroundCHR {
		n += len(b) / tile.Size
	}
	return n
}
