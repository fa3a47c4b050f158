package overlaypal

import (
	"path/filepath"
	"testing"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(values ...int) *grid.Grid[int] {
	g := grid.New[int](len(values), 1)
	for x, v := range values {
		g.Set(x, 0, v)
	}
	return g
}

func TestIntegrate(t *testing.T) {
	l := layer.NewEmpty(testBackground, 8, 8, 2, 1)
	s := solver.NewSolution(2, 1)
	s.Palettes = []palette.Colors{palette.NewColors(0x16)}
	s.Kept.Set(0, 0, palette.NewColors(0x16))
	s.Assigned.Set(0, 0, true)
	s.Moved.Set(1, 0, palette.NewColors(0x30))
	s.Indices.Set(1, 0, 3)

	p, err := integrate(s, l, 4, 4, 3)
	require.NoError(t, err)

	assert.Len(t, p.palettes, 4)
	assert.Equal(t, palette.NewColors(0x16), p.palettes[0])
	assert.True(t, p.palettes[3].Empty())
	assert.Equal(t, 4, p.indices.At(0, 0))
	assert.Equal(t, 4, p.indices.At(1, 0))
	assert.Equal(t, palette.NewColors(0x30), p.moved.At(1, 0).Colors)
	assert.Equal(t, palette.NewColors(0x16), p.kept.Colors())
}

func TestIntegrateErrors(t *testing.T) {
	l := layer.NewEmpty(testBackground, 8, 8, 1, 1)

	tests := map[string]func(*solver.Solution){
		"too many groups": func(s *solver.Solution) {
			s.Palettes = palette.Pad(nil, 5)
		},
		"group out of range": func(s *solver.Solution) {
			s.Kept.Set(0, 0, palette.NewColors(0x16))
			s.Indices.Set(0, 0, 4)
			s.Assigned.Set(0, 0, true)
		},
		"group too big": func(s *solver.Solution) {
			s.Palettes = []palette.Colors{palette.NewColors(0x01, 0x02, 0x03, 0x04)}
			s.Kept.Set(0, 0, palette.NewColors(0x01, 0x02, 0x03))
			s.Assigned.Set(0, 0, true)
		},
		"cell over limit": func(s *solver.Solution) {
			s.Palettes = []palette.Colors{palette.NewColors(0x01, 0x02, 0x03)}
			s.Kept.Set(0, 0, palette.NewColors(0x01, 0x02, 0x03))
			s.Assigned.Set(0, 0, true)
		},
		"no group chosen": func(s *solver.Solution) {
			s.Palettes = []palette.Colors{palette.NewColors(0x16)}
			s.Kept.Set(0, 0, palette.NewColors(0x16))
		},
	}

	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			s := solver.NewSolution(1, 1)
			setup(s)
			_, err := integrate(s, l, 0, 4, 2)
			assert.ErrorIs(t, err, ErrInconsistent)
		})
	}
}

func TestCheckConsistent(t *testing.T) {
	m := grid.NewImage(16, 8, testBackground)
	m.Set(0, 0, 0x16)
	m.Set(8, 0, 0x30)

	l := layer.New(m, testBackground, 8, 8)
	palettes := []palette.Colors{palette.NewColors(0x16, 0x30)}

	assert.NoError(t, checkConsistent(m, l, palettes, row(0, 0)))
	assert.ErrorIs(t, checkConsistent(m, l, palettes, row(0, 1)), ErrInconsistent)
	assert.ErrorIs(t, checkConsistent(m, l, []palette.Colors{palette.NewColors(0x16)}, row(0, 0)), ErrInconsistent)

	m.Set(1, 0, 0x27)
	assert.ErrorIs(t, checkConsistent(m, l, palettes, row(0, 0)), ErrInconsistent)
}

func TestPullBack(t *testing.T) {
	kept := layer.NewEmpty(testBackground, 8, 8, 2, 1)
	moved := layer.NewEmpty(testBackground, 8, 8, 2, 1)
	kept.SetColors(0, 0, palette.NewColors(0x16))
	moved.SetColors(0, 0, palette.NewColors(0x30))
	kept.SetColors(1, 0, palette.NewColors(0x01))
	moved.SetColors(1, 0, palette.NewColors(0x02))

	palettes := []palette.Colors{
		palette.NewColors(0x01, 0x16),
		palette.NewColors(0x16, 0x30),
	}
	indices := row(0, 0)

	assert.Equal(t, 1, pullBack(kept, moved, palettes, indices, 0, 2))

	assert.Equal(t, 1, indices.At(0, 0))
	assert.Equal(t, palette.NewColors(0x16, 0x30), kept.At(0, 0).Colors)
	assert.True(t, moved.At(0, 0).Colors.Empty())

	assert.Equal(t, 0, indices.At(1, 0))
	assert.Equal(t, palette.NewColors(0x02), moved.At(1, 0).Colors)
	assert.Equal(t, palette.NewColors(0x02), moved.Colors())
}

func TestPullBackPrefersCurrentGroup(t *testing.T) {
	kept := layer.NewEmpty(testBackground, 8, 8, 1, 1)
	moved := layer.NewEmpty(testBackground, 8, 8, 1, 1)
	kept.SetColors(0, 0, palette.NewColors(0x16))
	moved.SetColors(0, 0, palette.NewColors(0x30))

	palettes := palette.Pad(nil, 8)
	palettes[4] = palette.NewColors(0x16, 0x30)
	palettes[6] = palette.NewColors(0x16, 0x30, 0x01)
	indices := row(6)

	assert.Equal(t, 1, pullBack(kept, moved, palettes, indices, 4, 8))
	assert.Equal(t, 6, indices.At(0, 0))
}

func TestMergePalettes(t *testing.T) {
	palettes := []palette.Colors{
		palette.NewColors(0x01),
		palette.NewColors(0x02),
		palette.NewColors(0x01, 0x02, 0x03),
		{},
	}
	indices := row(0, 1, 2, 3)

	assert.Equal(t, 2, mergePalettes(palettes, 0, 4, indices))
	assert.Equal(t, palette.NewColors(0x01, 0x02, 0x03), palettes[0])
	for _, p := range palettes[1:] {
		assert.True(t, p.Empty())
	}
	assert.Equal(t, [][]int{{0, 0, 0, 1}}, indices.Rows())

	// Already at a fixed point
	assert.Equal(t, 0, mergePalettes(palettes, 0, 4, indices))
	assert.Equal(t, [][]int{{0, 0, 0, 1}}, indices.Rows())
}

func TestMergePalettesRange(t *testing.T) {
	palettes := palette.Pad(nil, 8)
	palettes[0] = palette.NewColors(0x01)
	palettes[1] = palette.NewColors(0x02)
	palettes[4] = palette.NewColors(0x11, 0x12)
	palettes[5] = palette.NewColors(0x21, 0x22)
	bg, spr := row(0, 1), row(4, 5, 6)

	assert.Equal(t, 0, mergePalettes(palettes, nes.NumBackgroundPalettes, 8, spr))
	assert.Equal(t, [][]int{{4, 5, 6}}, spr.Rows())

	assert.Equal(t, 1, mergePalettes(palettes, 0, nes.NumBackgroundPalettes, bg))
	assert.Equal(t, palette.NewColors(0x01, 0x02), palettes[0])
	assert.Equal(t, [][]int{{0, 0}}, bg.Rows())
	assert.Equal(t, palette.NewColors(0x11, 0x12), palettes[4])
}

func TestSmoothRows(t *testing.T) {
	l := layer.NewEmpty(testBackground, 16, 16, 4, 1)
	l.SetColors(0, 0, palette.NewColors(0x01))
	l.SetColors(1, 0, palette.NewColors(0x01))
	l.SetColors(2, 0, palette.NewColors(0x02))
	l.SetColors(3, 0, palette.NewColors(0x01))

	palettes := []palette.Colors{
		palette.NewColors(0x01, 0x02),
		palette.NewColors(0x01),
		palette.NewColors(0x02),
		{},
	}
	indices := row(1, 1, 2, 1)

	assert.Equal(t, 4, smoothRows(l, palettes, indices, 0, 4))
	assert.Equal(t, [][]int{{0, 0, 0, 0}}, indices.Rows())
	assert.Equal(t, 0, smoothRows(l, palettes, indices, 0, 4))
}

func TestSmoothRowsLongestFirst(t *testing.T) {
	l := layer.NewEmpty(testBackground, 16, 16, 5, 1)
	l.SetColors(0, 0, palette.NewColors(0x01))
	l.SetColors(1, 0, palette.NewColors(0x01))
	l.SetColors(2, 0, palette.NewColors(0x01, 0x02))
	l.SetColors(3, 0, palette.NewColors(0x02))
	l.SetColors(4, 0, palette.NewColors(0x03))

	palettes := []palette.Colors{
		palette.NewColors(0x01, 0x02),
		palette.NewColors(0x02, 0x03),
	}
	indices := row(0, 0, 0, 1, 1)

	assert.Equal(t, 1, smoothRows(l, palettes, indices, 0, 2))
	assert.Equal(t, [][]int{{0, 0, 0, 0, 1}}, indices.Rows())
}

func TestExportDB(t *testing.T) {
	db, err := NewExportDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	m := screen()
	key := Key(m, testBackground, DefaultConfig())
	assert.Len(t, key, 40)
	assert.Equal(t, key, Key(m.Clone(), testBackground, DefaultConfig()))
	assert.NotEqual(t, key, Key(m, 0x0f, DefaultConfig()))

	cfg := DefaultConfig()
	cfg.Align = true
	assert.NotEqual(t, key, Key(m, testBackground, cfg))

	e, err := db.Find(key)
	require.NoError(t, err)
	assert.Nil(t, e)

	want := &nes.Export{
		Nametable:     make([]byte, nes.NametableSize),
		ExRAM:         make([]byte, nes.NametableSize),
		BackgroundCHR: [][]byte{make([]byte, 16)},
		BankRows:      []int{0},
		SpriteCHR:     []byte{1, 2, 3},
		OAM:           []byte{4, 5, 6, 7},
		Palette:       []byte{testBackground, 0x16, 0x3f, 0x3f},
	}
	require.NoError(t, db.Store(key, want))
	require.NoError(t, db.Store(key, want))

	e, err = db.Find(key)
	require.NoError(t, err)
	require.NotNil(t, e)

	wb, err := want.MarshalBinary()
	require.NoError(t, err)
	eb, err := e.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, wb, eb)
	assert.Equal(t, want.Palette, e.Palette)
}
