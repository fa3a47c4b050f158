package nes

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/sprite"
	"github.com/bodgit/overlaypal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(cx, cy int) int {
	return (cx + cy) % 4
}

// uniqueImage returns a remapped image where every tile is different,
// along with the palette groups of its 16 by 16 cells.
func uniqueImage() (*grid.Image, *grid.Grid[int]) {
	indices := grid.New[int](16, 15)
	for cy := 0; cy < indices.Height(); cy++ {
		for cx := 0; cx < indices.Width(); cx++ {
			indices.Set(cx, cy, group(cx, cy))
		}
	}

	m := grid.New[uint8](ScreenWidth, ScreenHeight)
	for ty := 0; ty < TilesY; ty++ {
		for tx := 0; tx < TilesX; tx++ {
			idx := ty*TilesX + tx
			for i := 0; i < tile.Width; i++ {
				slot := uint8(idx >> (2 * uint(i)) & 3)
				if slot == 0 {
					continue
				}
				g := uint8(group(tx/2, ty/2))
				m.Set(tx*tile.Width+i, ty*tile.Height, g<<2|slot)
			}
		}
	}
	return m, indices
}

func TestEncodeTrivial(t *testing.T) {
	m := grid.New[uint8](ScreenWidth, ScreenHeight)
	indices := grid.New[int](16, 15)

	e, err := Encode(m, indices, nil, palette.Pad(nil, 8), 0x0d, Options{SpriteHeight: 8, Mask: tile.AllPalettes})
	require.NoError(t, err)

	assert.Equal(t, make([]byte, NametableSize), e.Nametable)
	assert.Equal(t, make([]byte, NametableSize), e.ExRAM)
	require.Len(t, e.BackgroundCHR, 1)
	assert.Equal(t, make([]byte, tile.Size), e.BackgroundCHR[0])
	assert.Equal(t, 1, e.NumBackgroundTiles())
	assert.Empty(t, e.OAM)
	assert.Empty(t, e.SpriteCHR)
	assert.Equal(t, bytes.Repeat([]byte{0x0d, 0x3f, 0x3f, 0x3f}, 8), e.Palette)
}

func TestEncodeSize(t *testing.T) {
	_, err := Encode(grid.New[uint8](255, 240), grid.New[int](16, 15), nil, nil, 0, Options{SpriteHeight: 8})
	assert.ErrorIs(t, err, ErrSize)

	_, err = Encode(grid.New[uint8](256, 240), grid.New[int](7, 15), nil, nil, 0, Options{SpriteHeight: 8})
	assert.ErrorIs(t, err, ErrSize)
}

func TestEncodeBackground(t *testing.T) {
	m, indices := uniqueImage()

	nametable, exram, chr, err := EncodeBackground(m, indices, tile.AllPalettes)
	require.NoError(t, err)

	assert.Len(t, chr, TilesX*TilesY*tile.Size)
	for y := 0; y < TilesY; y++ {
		for x := 0; x < TilesX; x++ {
			i := y*TilesX + x
			assert.Equal(t, byte(i), nametable[i])
			assert.Equal(t, byte(group(x/2, y/2)<<6|i>>8), exram[i])
		}
	}

	assert.Equal(t, byte(0x94), nametable[AttributeOffset])
	assert.Equal(t, byte(0x0e), nametable[AttributeOffset+8*7])

	again, _, chr2, err := EncodeBackground(m, indices, tile.AllPalettes)
	require.NoError(t, err)
	assert.Equal(t, nametable, again)
	assert.Equal(t, chr, chr2)
}

func TestDecodeBackground(t *testing.T) {
	m, indices := uniqueImage()

	e, err := Encode(m, indices, nil, nil, 0, Options{SpriteHeight: 8, Mask: tile.AllPalettes})
	require.NoError(t, err)

	d, err := DecodeBackground(e)
	require.NoError(t, err)
	assert.True(t, grid.Equal(m, d))
}

func TestEncodeBackgroundBanked(t *testing.T) {
	m, indices := uniqueImage()

	e, err := Encode(m, indices, nil, nil, 0, Options{SpriteHeight: 8, BankSize: 64 * tile.Size, Mask: tile.AllPalettes})
	require.NoError(t, err)

	require.Len(t, e.BackgroundCHR, 15)
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28}, e.BankRows)
	for _, chr := range e.BackgroundCHR {
		assert.Len(t, chr, 64*tile.Size)
	}
	assert.Equal(t, byte(32), e.Nametable[TilesX*3])

	d, err := DecodeBackground(e)
	require.NoError(t, err)
	assert.True(t, grid.Equal(m, d))

	_, err = Encode(m, indices, nil, nil, 0, Options{SpriteHeight: 8, BankSize: 16 * tile.Size, Mask: tile.AllPalettes})
	assert.ErrorIs(t, err, ErrBankTooSmall)
}

func TestEncodeMask(t *testing.T) {
	m, indices := uniqueImage()

	e, err := Encode(m, indices, nil, nil, 0, Options{SpriteHeight: 8, Mask: 1})
	require.NoError(t, err)

	d, err := DecodeBackground(e)
	require.NoError(t, err)
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			if c := d.At(x, y); c != 0 {
				assert.Equal(t, uint8(0), c>>2)
			}
		}
	}
}

func TestEncodeSprites(t *testing.T) {
	m := grid.New[uint8](ScreenWidth, ScreenHeight)
	m.Set(10, 20, 5<<2|1)
	m.Set(30, 20, 5<<2|1)
	m.Set(50, 29, 6<<2|3)

	sprites := []sprite.Sprite{
		{X: 10, Y: 20, Palette: 5},
		{X: 30, Y: 20, Palette: 5},
		{X: 50, Y: 28, Palette: 6},
	}

	oam, chr, err := EncodeSprites(m, sprites, 8, tile.AllPalettes)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		19, 0, 1, 10,
		19, 0, 1, 30,
		27, 1, 2, 50,
	}, oam)
	require.Len(t, chr, 2*tile.Size)
	assert.Equal(t, byte(0x80), chr[0])
	assert.Equal(t, byte(0x80), chr[tile.Size+1])
	assert.Equal(t, byte(0x80), chr[tile.Size+tile.Height+1])

	oam, chr, err = EncodeSprites(m, sprites, 16, tile.AllPalettes)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		19, 0, 1, 10,
		19, 0, 1, 30,
		27, 2, 2, 50,
	}, oam)
	assert.Len(t, chr, 4*tile.Size)

	_, _, err = EncodeSprites(m, sprites, 12, tile.AllPalettes)
	assert.Error(t, err)
}

func TestMarshalBinary(t *testing.T) {
	m, indices := uniqueImage()
	m.Set(100, 100, 4<<2|2)

	e, err := Encode(m, indices, []sprite.Sprite{{X: 100, Y: 100, Palette: 4}}, palette.Pad([]palette.Colors{palette.NewColors(0x16)}, 8), 0x0d, Options{
		SpriteHeight: 8,
		BankSize:     64 * tile.Size,
		Mask:         tile.AllPalettes,
	})
	require.NoError(t, err)

	b, err := e.MarshalBinary()
	require.NoError(t, err)

	var e2 Export
	require.NoError(t, e2.UnmarshalBinary(b))
	assert.Equal(t, e.Nametable, e2.Nametable)
	assert.Equal(t, e.ExRAM, e2.ExRAM)
	assert.Equal(t, e.BackgroundCHR, e2.BackgroundCHR)
	assert.Equal(t, e.BankRows, e2.BankRows)
	assert.Equal(t, e.SpriteCHR, e2.SpriteCHR)
	assert.Equal(t, e.OAM, e2.OAM)
	assert.Equal(t, e.Palette, e2.Palette)

	b2, err := e2.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, b2)

	assert.Equal(t, errNotEnough, e2.UnmarshalBinary(b[:len(b)-1]))
	assert.Equal(t, errTooMuch, e2.UnmarshalBinary(append(b, 0)))
	assert.Equal(t, errBadMagic, e2.UnmarshalBinary([]byte("JUNK\x01")))
}

func TestWriteFiles(t *testing.T) {
	e := &Export{
		Nametable:     []byte{1},
		ExRAM:         []byte{2},
		BackgroundCHR: [][]byte{{3}, {4}},
		BankRows:      []int{0, 9},
		SpriteCHR:     []byte{5},
		OAM:           []byte{6},
		Palette:       []byte{7},
	}

	dir := t.TempDir()
	require.NoError(t, e.WriteFiles(dir, "title"))

	for name, want := range map[string]byte{
		"title.nam":         1,
		"title.exram":       2,
		"title_bg_0.chr":    3,
		"title_bg_1.chr":    4,
		"title_spr.chr":     5,
		"title.oam":         6,
		"title_palette.dat": 7,
		"title_banks.dat":   0,
	} {
		b, err := ioutil.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		if name == "title_banks.dat" {
			assert.Equal(t, []byte{0, 9}, b)
			continue
		}
		assert.Equal(t, []byte{want}, b, name)
	}

	r, err := ReadFiles(dir, "title")
	require.NoError(t, err)
	assert.Equal(t, e, r)

	e.BackgroundCHR = e.BackgroundCHR[:1]
	assert.Contains(t, e.Files("x"), "x_bg.chr")
}

func TestWriteFilesReplacesLayout(t *testing.T) {
	dir := t.TempDir()

	unbanked := &Export{
		Nametable:     []byte{1},
		ExRAM:         []byte{2},
		BackgroundCHR: [][]byte{{3}},
		BankRows:      []int{0},
		SpriteCHR:     []byte{5},
		OAM:           []byte{6},
		Palette:       []byte{7},
	}
	banked := &Export{
		Nametable:     []byte{1},
		ExRAM:         []byte{2},
		BackgroundCHR: [][]byte{{8}, {9}},
		BankRows:      []int{0, 12},
		SpriteCHR:     []byte{5},
		OAM:           []byte{6},
		Palette:       []byte{7},
	}

	require.NoError(t, unbanked.WriteFiles(dir, "title"))
	require.NoError(t, banked.WriteFiles(dir, "title"))

	_, err := os.Stat(filepath.Join(dir, "title_bg.chr"))
	assert.True(t, os.IsNotExist(err))

	r, err := ReadFiles(dir, "title")
	require.NoError(t, err)
	assert.Equal(t, banked, r)

	require.NoError(t, unbanked.WriteFiles(dir, "title"))
	for _, name := range []string{"title_banks.dat", "title_bg_0.chr", "title_bg_1.chr"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}

	r, err = ReadFiles(dir, "title")
	require.NoError(t, err)
	assert.Equal(t, unbanked, r)
}

func TestReadFilesUnbanked(t *testing.T) {
	m, indices := uniqueImage()

	e, err := Encode(m, indices, nil, palette.Pad(nil, 8), 0x0d, Options{SpriteHeight: 8, Mask: tile.AllPalettes})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, e.WriteFiles(dir, "screen"))

	r, err := ReadFiles(dir, "screen")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, r.BankRows)

	d, err := DecodeBackground(r)
	require.NoError(t, err)
	assert.True(t, grid.Equal(m, d))

	_, err = ReadFiles(dir, "missing")
	assert.Error(t, err)
}
