package overlaypal

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/solver"
	"github.com/bodgit/overlaypal/sprite"
)

func (c *Converter) solve(ctx context.Context, p solver.Pass, l *layer.Layer, limits solver.Limits, timeout time.Duration) (*solver.Solution, error) {
	if l.Colors().Empty() {
		c.logger.Printf("Skipping %s pass, no colors\n", p)
		return solver.NewSolution(l.Width(), l.Height()), nil
	}

	problem := filepath.Join(c.dir, p.ProblemFile())
	solution := filepath.Join(c.dir, p.SolutionFile())

	if err := solver.WriteProblemFile(problem, l, limits); err != nil {
		return nil, err
	}

	c.logger.Printf("Solving %s pass, %dx%d cells, %d colors\n", p, l.Width(), l.Height(), l.Colors().Len())
	start := time.Now()
	if err := c.solver.Solve(ctx, p, problem, solution, timeout); err != nil {
		return nil, err
	}
	c.logger.Printf("Solved %s pass in %v\n", p, time.Since(start).Round(time.Millisecond))

	return solver.ParseSolutionFile(solution, p, l.Width(), l.Height())
}

// Convert converts m, an image of hardware color indices, using background
// as the shared background color. The image is cropped or extended to the
// screen size first. Hard failures are returned as errors and leave the
// last result unchanged; a result that breaks a soft limit such as the
// scanline budget is returned with a diagnostic message.
func (c *Converter) Convert(ctx context.Context, m *grid.Image, background uint8, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	if err := solver.RemoveFiles(c.dir); err != nil {
		return nil, err
	}

	r := &Result{
		config:     cfg,
		background: background,
	}

	m = grid.CropOrExtend(m, nes.ScreenWidth, nes.ScreenHeight, background)
	if cfg.Align {
		r.shiftX, r.shiftY = layer.OptimalShift(m, background, cfg.CellWidth, cfg.CellHeight, 0, cfg.CellWidth-1, 0, cfg.CellHeight-1)
		m = layer.Shift(m, r.shiftX, r.shiftY)
		c.logger.Printf("Shifted image by (%d, %d)\n", r.shiftX, r.shiftY)
	}
	r.image = m

	// Background and overlay
	l := layer.New(m, background, cfg.CellWidth, cfg.CellHeight)
	c.logger.Printf("Input uses %d colors, at most %d per cell\n", l.Colors().Len(), l.MaxColorsPerCell())

	s, err := c.solve(ctx, solver.First, l, solver.Limits{
		CellColorLimit:        cfg.CellColorLimit,
		MaxBackgroundPalettes: cfg.MaxBackgroundPalettes,
		MaxSpritePalettes:     cfg.MaxSpritePalettes,
		MaxRowSize:            cfg.firstPassRowSize(),
	}, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	first, err := integrate(s, l, 0, nes.NumBackgroundPalettes, cfg.CellColorLimit)
	if err != nil {
		return nil, err
	}
	palettes := first.palettes

	if n := pullBack(first.kept, first.moved, palettes, first.indices, 0, nes.NumBackgroundPalettes); n > 0 {
		c.logger.Printf("Moved overlay colors back into %d background cells\n", n)
	}

	r.backgroundImage, r.overlayImage = layer.Split(m, first.moved)
	if err := checkConsistent(r.backgroundImage, first.kept, palettes, first.indices); err != nil {
		return nil, err
	}

	// Overlay grid and free overlay
	ol := layer.New(r.overlayImage, background, cfg.overlayCellWidth(), cfg.CellHeight)

	s, err = c.solve(ctx, solver.Second, ol, solver.Limits{
		CellColorLimit:        cfg.CellColorLimit,
		MaxBackgroundPalettes: 0,
		MaxSpritePalettes:     cfg.MaxSpritePalettes,
		MaxRowSize:            cfg.secondPassRowSize(),
	}, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	second, err := integrate(s, ol, nes.NumBackgroundPalettes, nes.NumSpritePalettes, cfg.CellColorLimit)
	if err != nil {
		return nil, err
	}
	palettes = append(palettes, second.palettes...)

	lo, hi := nes.NumBackgroundPalettes, nes.NumBackgroundPalettes+nes.NumSpritePalettes
	if n := pullBack(second.kept, second.moved, palettes, second.indices, lo, hi); n > 0 {
		c.logger.Printf("Moved free overlay colors back into %d overlay cells\n", n)
	}

	r.overlayImage, r.freeImage = layer.Split(r.overlayImage, second.moved)
	if err := checkConsistent(r.overlayImage, second.kept, palettes, second.indices); err != nil {
		return nil, err
	}

	// Clean up
	if n := mergePalettes(palettes, 0, nes.NumBackgroundPalettes, first.indices); n > 0 {
		c.logger.Printf("Merged %d background palette groups\n", n)
	}
	if n := mergePalettes(palettes, lo, hi, second.indices); n > 0 {
		c.logger.Printf("Merged %d sprite palette groups\n", n)
	}
	if cfg.Continuity {
		if n := smoothRows(first.kept, palettes, first.indices, 0, nes.NumBackgroundPalettes); n > 0 {
			c.logger.Printf("Changed palette group of %d background cells for continuity\n", n)
		}
	}

	if err := checkConsistent(r.backgroundImage, first.kept, palettes, first.indices); err != nil {
		return nil, err
	}
	if err := checkConsistent(r.overlayImage, second.kept, palettes, second.indices); err != nil {
		return nil, err
	}

	r.palettes = palettes
	r.backgroundLayer, r.backgroundIndices = first.kept, first.indices
	r.overlayLayer, r.overlayIndices = second.kept, second.indices
	r.freeLayer = second.moved

	// Sprites
	r.sprites = sprite.Grid(r.overlayImage, r.overlayLayer, r.overlayIndices, cfg.SpriteWidth, cfg.SpriteHeight)
	r.gridSprites = len(r.sprites)

	packer := &sprite.Packer{
		Width:      cfg.SpriteWidth,
		Height:     cfg.SpriteHeight,
		Palettes:   palettes,
		First:      lo,
		Last:       hi,
		Background: background,
	}
	free, left := packer.Pack(r.freeImage)
	free = sprite.Coalesce(free, background)
	r.sprites = append(r.sprites, free...)
	r.leftover = countPixels(left, background)

	c.logger.Printf("%d grid sprites, %d free sprites\n", r.gridSprites, len(free))

	r.diagnostic = r.diagnose()
	if r.diagnostic != "" {
		c.logger.Println(r.diagnostic)
	}

	c.last.Store(r)

	return r, nil
}

func countPixels(m *grid.Image, background uint8) int {
	n := 0
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) != background {
				n++
			}
		}
	}
	return n
}

func (r *Result) diagnose() string {
	switch n := sprite.MaxPerScanline(r.sprites); {
	case n > r.config.MaxSpritesPerScanline:
		return fmt.Sprintf("Too many sprites / scanline (%d > %d)", n, r.config.MaxSpritesPerScanline)
	case len(r.sprites) > nes.MaxSprites:
		return fmt.Sprintf("Too many sprites (%d > %d)", len(r.sprites), nes.MaxSprites)
	case r.leftover > 0:
		return fmt.Sprintf("%d overlay pixels do not fit any sprite palette", r.leftover)
	}
	return ""
}

// palettesFor returns the palette group used by cell (x, y), or no colors
// if its index is out of range.
func palettesFor(palettes []palette.Colors, indices *grid.Grid[int], x, y int) palette.Colors {
	i := indices.At(x, y)
	if i < 0 || i >= len(palettes) {
		return palette.Colors{}
	}
	return palettes[i]
}
