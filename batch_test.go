package overlaypal

import (
	"context"
	"image"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, file string, offset int) {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))

	m := image.NewPaletted(image.Rect(0, 0, nes.ScreenWidth, nes.ScreenHeight), palette.Default.Palette())
	for i := range m.Pix {
		m.Pix[i] = testBackground
	}
	for y := offset; y < offset+16; y++ {
		for x := offset; x < offset+16; x++ {
			m.SetColorIndex(x, y, 0x16)
		}
	}

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

func TestReadImage(t *testing.T) {
	file := filepath.Join(t.TempDir(), "screen.png")
	writeTestImage(t, file, 32)

	m, background, err := ReadImage(file, &palette.Default, ImageOptions{Background: 0x0f})
	require.NoError(t, err)
	assert.Equal(t, uint8(testBackground), background)
	assert.Equal(t, uint8(0x16), m.At(40, 40))
	assert.Equal(t, uint8(testBackground), m.At(0, 0))

	_, _, err = ReadImage(filepath.Join(t.TempDir(), "missing.png"), &palette.Default, ImageOptions{})
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeTestImage(t, filepath.Join(in, "a.png"), 32)
	writeTestImage(t, filepath.Join(in, "sub", "b.png"), 64)
	writeTestImage(t, filepath.Join(in, ".hidden", "c.png"), 96)
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, "notes.txt"), []byte("notes"), 0644))

	db, err := NewExportDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	var calls int32
	s := greedySolver(t)
	c := newConverter(t, solver.SolverFunc(func(ctx context.Context, pass solver.Pass, problem, solution string, timeout time.Duration) error {
		atomic.AddInt32(&calls, 1)
		return s.Solve(ctx, pass, problem, solution, timeout)
	}))

	b := &Batch{
		Converter: c,
		DB:        db,
		Config:    DefaultConfig(),
		Hardware:  &palette.Default,
		Options:   ImageOptions{Background: testBackground},
		Output:    out,
		Workers:   2,
	}

	require.NoError(t, b.Run(in))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	for _, name := range []string{"a", "b"} {
		e, err := nes.ReadFiles(out, name)
		require.NoError(t, err, name)
		assert.Len(t, e.Nametable, nes.NametableSize)
	}
	_, err = os.Stat(filepath.Join(out, "c.nam"))
	assert.True(t, os.IsNotExist(err))

	// Every conversion is now cached
	require.NoError(t, b.Run(in))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestBatchError(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, "broken.png"), []byte("not a png"), 0644))

	b := &Batch{
		Converter: newConverter(t, greedySolver(t)),
		Config:    DefaultConfig(),
		Hardware:  &palette.Default,
	}
	assert.Error(t, b.Run(in))
}
