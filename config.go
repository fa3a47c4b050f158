package overlaypal

import (
	"errors"
	"fmt"
	"time"

	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/tile"
)

// Config holds the parameters of a conversion.
type Config struct {
	// CellWidth and CellHeight are the size of a background cell, the
	// area that shares one palette group. Overlay cells are half as wide.
	CellWidth, CellHeight int
	// SpriteWidth and SpriteHeight are the sprite dimensions; the height
	// is either 8 or 16.
	SpriteWidth, SpriteHeight int
	// CellColorLimit is the most colors, excluding background, any cell
	// may use.
	CellColorLimit int
	// MaxBackgroundPalettes and MaxSpritePalettes limit how many palette
	// groups the solver may use.
	MaxBackgroundPalettes int
	MaxSpritePalettes     int
	// MaxSpritesPerScanline is the scanline budget.
	MaxSpritesPerScanline int
	// Timeout is the time each solver pass may spend searching.
	Timeout time.Duration
	// Align shifts the image to the alignment with the fewest colors per
	// cell before converting.
	Align bool
	// Continuity smooths background palette choices along each row.
	Continuity bool
	// BankSize splits the background CHR data into banks of this many
	// bytes; zero disables banking.
	BankSize int
	// PaletteMask selects the palette groups included in an export.
	PaletteMask uint8
}

// DefaultConfig returns the configuration for standard NES hardware.
func DefaultConfig() Config {
	return Config{
		CellWidth:             16,
		CellHeight:            16,
		SpriteWidth:           8,
		SpriteHeight:          8,
		CellColorLimit:        palette.GroupSize - 1,
		MaxBackgroundPalettes: nes.NumBackgroundPalettes,
		MaxSpritePalettes:     nes.NumSpritePalettes,
		MaxSpritesPerScanline: 8,
		Timeout:               60 * time.Second,
		Continuity:            true,
		PaletteMask:           0xff,
	}
}

var errConfig = errors.New("overlaypal: invalid configuration")

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", errConfig, fmt.Sprintf(format, a...))
}

// Validate checks the configuration describes geometry the hardware can
// display.
func (c Config) Validate() error {
	switch {
	case c.SpriteWidth != tile.Width:
		return invalid("sprite width %d", c.SpriteWidth)
	case c.SpriteHeight != 8 && c.SpriteHeight != 16:
		return invalid("sprite height %d", c.SpriteHeight)
	case c.CellWidth <= 0 || c.CellWidth%(2*c.SpriteWidth) != 0 || nes.ScreenWidth%c.CellWidth != 0:
		return invalid("cell width %d", c.CellWidth)
	case c.CellHeight <= 0 || c.CellHeight%c.SpriteHeight != 0 || c.CellHeight%tile.Height != 0 || nes.ScreenHeight%c.CellHeight != 0:
		return invalid("cell height %d", c.CellHeight)
	case c.CellColorLimit < 1 || c.CellColorLimit > palette.GroupSize-1:
		return invalid("cell color limit %d", c.CellColorLimit)
	case c.MaxBackgroundPalettes < 0 || c.MaxBackgroundPalettes > nes.NumBackgroundPalettes:
		return invalid("%d background palettes", c.MaxBackgroundPalettes)
	case c.MaxSpritePalettes < 0 || c.MaxSpritePalettes > nes.NumSpritePalettes:
		return invalid("%d sprite palettes", c.MaxSpritePalettes)
	case c.MaxSpritesPerScanline < 1:
		return invalid("%d sprites per scanline", c.MaxSpritesPerScanline)
	case c.Timeout <= 0:
		return invalid("timeout %v", c.Timeout)
	case c.BankSize < 0 || c.BankSize%tile.Size != 0:
		return invalid("bank size %d", c.BankSize)
	}
	return nil
}

// overlayCellWidth is the width of a cell in the overlay passes.
func (c Config) overlayCellWidth() int {
	return c.CellWidth / 2
}

// firstPassRowSize limits overlay cells per row in the first pass, which
// uses full width cells, so one extra is allowed.
func (c Config) firstPassRowSize() int {
	return c.MaxSpritesPerScanline*c.SpriteWidth/c.CellWidth + 1
}

func (c Config) secondPassRowSize() int {
	return 2 * c.MaxSpritesPerScanline
}
