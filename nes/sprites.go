package nes

import (
	"bytes"
	"fmt"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/sprite"
	"github.com/bodgit/overlaypal/tile"
)

func oamEntry(s *sprite.Sprite, index int) []byte {
	return []byte{
		byte(s.Y - 1),
		byte(index),
		byte(s.Palette-NumBackgroundPalettes) & 0x03,
		byte(s.X),
	}
}

// EncodeSprites returns the OAM and CHR data for sprites, taking their
// pixels from m. height selects 8 by 8 or 8 by 16 sprites; for the latter
// the tile index in OAM addresses a pair of tiles.
func EncodeSprites(m *grid.Image, sprites []sprite.Sprite, height int, mask uint64) ([]byte, []byte, error) {
	oam := make([]byte, 0, len(sprites)*4)
	chr := new(bytes.Buffer)

	switch height {
	case 8:
		e := tile.NewEncoder[tile.Tile](chr)
		for i := range sprites {
			s := &sprites[i]
			t := tile.Extract(m, s.X, s.Y, tile.Width, tile.Height, s.Palette, mask)
			index, err := e.Encode(t)
			if err != nil {
				return nil, nil, err
			}
			if index > 0xff {
				return nil, nil, ErrTooManyTiles
			}
			oam = append(oam, oamEntry(s, index)...)
		}
	case 16:
		e := tile.NewEncoder[tile.Tall](chr)
		for i := range sprites {
			s := &sprites[i]
			t := tile.ExtractTall(m, s.X, s.Y, s.Palette, mask)
			index, err := e.Encode(t)
			if err != nil {
				return nil, nil, err
			}
			if index > 0x7f {
				return nil, nil, ErrTooManyTiles
			}
			oam = append(oam, oamEntry(s, index<<1)...)
		}
	default:
		return nil, nil, fmt.Errorf("nes: invalid sprite height %d", height)
	}

	return oam, chr.Bytes(), nil
}
