package nes

import (
	"bytes"
	"fmt"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/tile"
)

type background struct {
	m       *grid.Image
	indices *grid.Grid[int]
	mask    uint64

	scaleX, scaleY int

	nametable []byte
	exram     []byte
}

func newBackground(m *grid.Image, indices *grid.Grid[int], mask uint64) (*background, error) {
	if m.Width() != ScreenWidth || m.Height() != ScreenHeight {
		return nil, ErrSize
	}
	if w, h := indices.Width(), indices.Height(); w == 0 || h == 0 || TilesX%w != 0 || TilesY%h != 0 {
		return nil, fmt.Errorf("%w: %dx%d palette indices", ErrSize, w, h)
	}
	return &background{
		m:         m,
		indices:   indices,
		mask:      mask,
		scaleX:    TilesX / indices.Width(),
		scaleY:    TilesY / indices.Height(),
		nametable: make([]byte, NametableSize),
		exram:     make([]byte, NametableSize),
	}, nil
}

func (b *background) tile(x, y int) (tile.Tile, int) {
	p := b.indices.At(x/b.scaleX, y/b.scaleY)
	return tile.Extract(b.m, x*tile.Width, y*tile.Height, tile.Width, tile.Height, p, b.mask), p
}

func (b *background) row(y int, e *tile.Encoder[tile.Tile]) error {
	for x := 0; x < TilesX; x++ {
		t, p := b.tile(x, y)
		i, err := e.Encode(t)
		if err != nil {
			return err
		}
		b.nametable[TilesX*y+x] = byte(i)
		b.exram[TilesX*y+x] = byte(p<<6) | byte(i>>8)
	}
	return nil
}

// The attribute table samples the palette group of the top-left tile of
// every 16 by 16 pixel area and packs a 2 by 2 block of areas per byte.
func (b *background) attributes() {
	const areasX, areasY = TilesX / 2, TilesY/2 + 1

	var areas [areasY][areasX]byte
	for y := 0; y < TilesY/2; y++ {
		for x := 0; x < areasX; x++ {
			areas[y][x] = b.exram[TilesX*(y<<1)+(x<<1)] >> 6 & 0x03
		}
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a00 := areas[2*y][2*x]
			a10 := areas[2*y][2*x+1]
			a01 := areas[2*y+1][2*x]
			a11 := areas[2*y+1][2*x+1]
			b.nametable[AttributeOffset+8*y+x] = a11<<6 | a01<<4 | a10<<2 | a00
		}
	}
}

// EncodeBackground returns the nametable, extended RAM and CHR data for the
// background of m.
func EncodeBackground(m *grid.Image, indices *grid.Grid[int], mask uint64) ([]byte, []byte, []byte, error) {
	b, err := newBackground(m, indices, mask)
	if err != nil {
		return nil, nil, nil, err
	}

	chr := new(bytes.Buffer)
	e := tile.NewEncoder[tile.Tile](chr)
	for y := 0; y < TilesY; y++ {
		if err := b.row(y, e); err != nil {
			return nil, nil, nil, err
		}
	}
	b.attributes()

	return b.nametable, b.exram, chr.Bytes(), nil
}

// EncodeBackgroundBanked is like EncodeBackground but splits the CHR data
// into banks of bankSize bytes. A new bank, with its own tile numbering, is
// started whenever the next row of tiles would not fit in the current one.
// The first tile row using each bank is also returned.
func EncodeBackgroundBanked(m *grid.Image, indices *grid.Grid[int], mask uint64, bankSize int) ([]byte, []byte, [][]byte, []int, error) {
	b, err := newBackground(m, indices, mask)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	limit := bankSize / tile.Size

	banks := []*bytes.Buffer{new(bytes.Buffer)}
	rows := []int{0}
	e := tile.NewEncoder[tile.Tile](banks[0])

	for y := 0; y < TilesY; y++ {
		if !b.fits(y, e.Dictionary().Clone(), limit) {
			if e.Len() == 0 || !b.fits(y, tile.NewDictionary[tile.Tile](), limit) {
				return nil, nil, nil, nil, fmt.Errorf("%w: row %d needs more than %d tiles", ErrBankTooSmall, y, limit)
			}
			bank := new(bytes.Buffer)
			banks = append(banks, bank)
			rows = append(rows, y)
			e.Reset(bank)
		}
		if err := b.row(y, e); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	b.attributes()

	chr := make([][]byte, len(banks))
	for i, bank := range banks {
		chr[i] = bank.Bytes()
	}

	return b.nametable, b.exram, chr, rows, nil
}

func (b *background) fits(y int, d *tile.Dictionary[tile.Tile], limit int) bool {
	for x := 0; x < TilesX; x++ {
		t, _ := b.tile(x, y)
		d.Add(t)
		if d.Len() > limit {
			return false
		}
	}
	return true
}

// DecodeBackground rebuilds the remapped background image from the
// nametable, extended RAM and CHR data of e.
func DecodeBackground(e *Export) (*grid.Image, error) {
	if len(e.Nametable) != NametableSize || len(e.ExRAM) != NametableSize || len(e.BackgroundCHR) == 0 {
		return nil, ErrSize
	}

	m := grid.New[uint8](ScreenWidth, ScreenHeight)

	bank := 0
	for y := 0; y < TilesY; y++ {
		for bank+1 < len(e.BankRows) && e.BankRows[bank+1] <= y {
			bank++
		}
		if bank >= len(e.BackgroundCHR) {
			return nil, fmt.Errorf("nes: no CHR bank %d", bank)
		}
		chr := e.BackgroundCHR[bank]

		for x := 0; x < TilesX; x++ {
			v := e.ExRAM[TilesX*y+x]
			i := int(v&0x3f)<<8 | int(e.Nametable[TilesX*y+x])
			p := v >> 6
			if (i+1)*tile.Size > len(chr) {
				return nil, fmt.Errorf("nes: tile %d out of range", i)
			}
			var t tile.Tile
			copy(t[:], chr[i*tile.Size:])
			for ty := 0; ty < tile.Height; ty++ {
				for tx := 0; tx < tile.Width; tx++ {
					if c := t.At(tx, ty); c != 0 {
						m.Set(x*tile.Width+tx, y*tile.Height+ty, p<<2|c)
					}
				}
			}
		}
	}

	return m, nil
}
