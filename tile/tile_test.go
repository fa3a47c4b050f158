package tile

import (
	"bytes"
	"testing"

	"github.com/bodgit/overlaypal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	m := grid.NewImage(16, 16, 0)
	m.Set(0, 0, 1) // group 0 slot 1
	m.Set(7, 0, 2) // group 0 slot 2
	m.Set(1, 1, 3) // group 0 slot 3
	m.Set(2, 2, 5) // group 1 slot 1, ignored
	m.Set(8, 0, 1) // outside the tile

	tl := Extract(m, 0, 0, Width, Height, 0, AllPalettes)
	assert.Equal(t, Tile{
		0x80, 0x40, 0, 0, 0, 0, 0, 0,
		0x01, 0x40, 0, 0, 0, 0, 0, 0,
	}, tl)

	assert.Equal(t, uint8(1), tl.At(0, 0))
	assert.Equal(t, uint8(2), tl.At(7, 0))
	assert.Equal(t, uint8(3), tl.At(1, 1))
	assert.Equal(t, uint8(0), tl.At(2, 2))

	group1 := Extract(m, 0, 0, Width, Height, 1, AllPalettes)
	assert.Equal(t, uint8(1), group1.At(2, 2))
	assert.Equal(t, uint8(0), group1.At(0, 0))

	masked := Extract(m, 0, 0, Width, Height, 1, 1)
	assert.True(t, masked.Empty())
}

func TestExtractOutside(t *testing.T) {
	m := grid.NewImage(4, 4, 1)
	tl := Extract(m, 0, 0, Width, Height, 0, AllPalettes)
	assert.Equal(t, uint8(1), tl.At(3, 3))
	assert.Equal(t, uint8(0), tl.At(4, 4))
}

func TestExtractTall(t *testing.T) {
	m := grid.NewImage(8, 16, 0)
	m.Set(0, 0, 1)
	m.Set(0, 8, 2)

	tl := ExtractTall(m, 0, 0, 0, AllPalettes)
	assert.Equal(t, byte(0x80), tl[0])
	assert.Equal(t, byte(0x00), tl[Height])
	assert.Equal(t, byte(0x00), tl[Size])
	assert.Equal(t, byte(0x80), tl[Size+Height])
}

func TestDictionary(t *testing.T) {
	d := NewDictionary[string]()

	i, added := d.Add("a")
	assert.Equal(t, 0, i)
	assert.True(t, added)

	i, added = d.Add("b")
	assert.Equal(t, 1, i)
	assert.True(t, added)

	i, added = d.Add("a")
	assert.Equal(t, 0, i)
	assert.False(t, added)

	c := d.Clone()
	c.Add("c")
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 3, c.Len())

	i, added = d.Add("c")
	assert.Equal(t, 2, i)
	assert.True(t, added)

	d.Reset()
	assert.Equal(t, 0, d.Len())
	i, _ = d.Add("b")
	assert.Equal(t, 0, i)
}

func TestEncoder(t *testing.T) {
	b := new(bytes.Buffer)
	e := NewEncoder[Tile](b)

	a := Tile{1}
	z := Tile{}

	i, err := e.Encode(z)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = e.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = e.Encode(z)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, append(z.Bytes(), a.Bytes()...), b.Bytes())

	b2 := new(bytes.Buffer)
	e.Reset(b2)
	i, err = e.Encode(a)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Equal(t, a.Bytes(), b2.Bytes())
}
