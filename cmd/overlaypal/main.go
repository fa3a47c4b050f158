package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/overlaypal"
	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/solver"
	"github.com/urfave/cli/v2"
)

const defaultDB = "overlaypal.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func readHardware(c *cli.Context) (*palette.Hardware, error) {
	h := palette.Default
	if c.String("palette") == "" {
		return &h, nil
	}

	f, err := os.Open(c.String("palette"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if h, err = palette.ReadHardware(f); err != nil {
		return nil, err
	}
	return &h, nil
}

func imageOptions(c *cli.Context) overlaypal.ImageOptions {
	return overlaypal.ImageOptions{
		MapOptions: palette.MapOptions{
			Map:              c.Bool("map"),
			Unique:           c.Bool("unique"),
			BlackerThanBlack: c.Bool("btb"),
		},
		Background: uint8(c.Int("background")),
	}
}

func writePNG(file string, m *grid.Image, p color.Palette) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, grid.ToPaletted(m, p)); err != nil {
		return err
	}

	return f.Close()
}

func outputBase(c *cli.Context) (string, string) {
	if c.NArg() > 1 {
		return filepath.Split(c.Args().Get(1))
	}
	name := filepath.Base(c.Args().First())
	return "", strings.TrimSuffix(name, filepath.Ext(name))
}

func config(c *cli.Context) overlaypal.Config {
	cfg := overlaypal.DefaultConfig()
	cfg.CellWidth = c.Int("cell-width")
	cfg.CellHeight = c.Int("cell-height")
	cfg.SpriteHeight = c.Int("sprite-height")
	cfg.CellColorLimit = c.Int("color-limit")
	cfg.MaxBackgroundPalettes = c.Int("bg-palettes")
	cfg.MaxSpritePalettes = c.Int("spr-palettes")
	cfg.MaxSpritesPerScanline = c.Int("scanline")
	cfg.Timeout = c.Duration("timeout")
	cfg.Align = c.Bool("align")
	cfg.Continuity = !c.Bool("no-continuity")
	cfg.BankSize = c.Int("bank-size")
	cfg.PaletteMask = uint8(c.Int("mask"))
	return cfg
}

func newSolver(c *cli.Context) (solver.Solver, error) {
	switch {
	case c.String("cmpl") != "":
		return &solver.CMPL{Dir: c.String("cmpl")}, nil
	case c.String("solver") != "":
		return &solver.Command{Path: c.String("solver"), Args: c.StringSlice("solver-arg")}, nil
	}
	return nil, errors.New("no solver, use --solver or --cmpl")
}

func newConverter(c *cli.Context, logger *log.Logger) (*overlaypal.Converter, func(), error) {
	s, err := newSolver(c)
	if err != nil {
		return nil, nil, err
	}

	work, cleanup := c.String("workdir"), func() {}
	if work == "" {
		if work, err = ioutil.TempDir("", "overlaypal"); err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			os.RemoveAll(work)
		}
	}

	return overlaypal.New(s, work, logger), cleanup, nil
}

func openDB(c *cli.Context) (*overlaypal.ExportDB, error) {
	if c.String("db") == "" {
		return nil, nil
	}
	return overlaypal.NewExportDB(c.String("db"))
}

func convert(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)
	cfg := config(c)
	if err := cfg.Validate(); err != nil {
		return err
	}

	h, err := readHardware(c)
	if err != nil {
		return err
	}

	m, background, err := overlaypal.ReadImage(c.Args().First(), h, imageOptions(c))
	if err != nil {
		return err
	}
	logger.Printf("Using background color %02x\n", background)

	dir, base := outputBase(c)

	db, err := openDB(c)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	key := overlaypal.Key(m, background, cfg)
	if db != nil {
		e, err := db.Find(key)
		if err != nil {
			return err
		}
		if e != nil {
			logger.Printf("Using cached export %s\n", key)
			return e.WriteFiles(dir, base)
		}
	}

	conv, cleanup, err := newConverter(c, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	r, err := conv.Convert(context.Background(), m, background, cfg)
	if err != nil {
		return err
	}
	if !r.Success() {
		fmt.Fprintln(os.Stderr, r.Diagnostic())
	}

	e, err := r.Export(cfg.PaletteMask)
	if err != nil {
		return err
	}
	logger.Printf("%d background tiles, %d sprites\n", e.NumBackgroundTiles(), len(e.OAM)/4)

	if err := e.WriteFiles(dir, base); err != nil {
		return err
	}

	if c.Bool("preview") {
		if err := writePNG(filepath.Join(dir, base+".png"), overlaypal.MaskImage(r.Output(), cfg.PaletteMask), r.ColorTable(h)); err != nil {
			return err
		}
	}

	if db != nil && r.Success() {
		return db.Store(key, e)
	}

	return nil
}

func batch(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	h, err := readHardware(c)
	if err != nil {
		return err
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	conv, cleanup, err := newConverter(c, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	b := &overlaypal.Batch{
		Converter: conv,
		DB:        db,
		Config:    config(c),
		Hardware:  h,
		Options:   imageOptions(c),
		Output:    c.String("output"),
		Workers:   c.Int("workers"),
	}

	return b.Run(c.Args().First())
}

func shift(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	h, err := readHardware(c)
	if err != nil {
		return err
	}

	m, background, err := overlaypal.ReadImage(c.Args().First(), h, imageOptions(c))
	if err != nil {
		return err
	}

	w, ht := c.Int("cell-width"), c.Int("cell-height")
	x, y := layer.OptimalShift(m, background, w, ht, 0, w-1, 0, ht-1)

	before := layer.New(m, background, w, ht).SumColorsPerCell()
	after := layer.New(layer.Shift(m, x, y), background, w, ht).SumColorsPerCell()

	fmt.Printf("%d %d (%d -> %d colors)\n", x, y, before, after)

	return nil
}

func decode(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	h, err := readHardware(c)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(c.Args().First())
	e, err := nes.ReadFiles(dir, base)
	if err != nil {
		return err
	}

	m, err := nes.DecodeBackground(e)
	if err != nil {
		return err
	}

	p := make(color.Palette, nes.NumBackgroundPalettes*palette.GroupSize)
	for i := range p {
		p[i] = color.RGBA{}
		if i < len(e.Palette) {
			p[i] = h[e.Palette[i]%palette.HardwareSize]
		}
	}

	out := base + ".png"
	if c.NArg() > 1 {
		out = c.Args().Get(1)
	}

	return writePNG(out, m, p)
}

func action(f cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := f(c); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "overlaypal"
	app.Usage = "NES background and sprite overlay converter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	defaults := overlaypal.DefaultConfig()

	imageFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "palette",
			Usage: "hardware palette `FILE` (192 bytes)",
		},
		&cli.IntFlag{
			Name:  "background",
			Value: 0x0f,
			Usage: "background color, if the image uses it",
		},
		&cli.BoolFlag{
			Name:  "map",
			Usage: "always map colors onto the hardware palette",
		},
		&cli.BoolFlag{
			Name:  "unique",
			Usage: "map each color to a different hardware color",
		},
		&cli.BoolFlag{
			Name:  "btb",
			Usage: "allow the blacker than black color",
		},
		&cli.IntFlag{
			Name:  "cell-width",
			Value: defaults.CellWidth,
			Usage: "background cell width",
		},
		&cli.IntFlag{
			Name:  "cell-height",
			Value: defaults.CellHeight,
			Usage: "background cell height",
		},
	}

	convertFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "solver",
			EnvVars: []string{"OVERLAYPAL_SOLVER"},
			Usage:   "solver `COMMAND`",
		},
		&cli.StringSliceFlag{
			Name:  "solver-arg",
			Usage: "solver argument, {problem}, {solution}, {timeout} and {pass} are replaced",
		},
		&cli.StringFlag{
			Name:    "cmpl",
			EnvVars: []string{"OVERLAYPAL_CMPL"},
			Usage:   "CMPL installation `DIRECTORY`, used instead of --solver",
		},
		&cli.StringFlag{
			Name:  "workdir",
			Usage: "keep solver files in `DIRECTORY`",
		},
		&cli.IntFlag{
			Name:  "sprite-height",
			Value: defaults.SpriteHeight,
			Usage: "sprite height, 8 or 16",
		},
		&cli.IntFlag{
			Name:  "color-limit",
			Value: defaults.CellColorLimit,
			Usage: "colors per cell",
		},
		&cli.IntFlag{
			Name:  "bg-palettes",
			Value: defaults.MaxBackgroundPalettes,
			Usage: "background palette groups",
		},
		&cli.IntFlag{
			Name:  "spr-palettes",
			Value: defaults.MaxSpritePalettes,
			Usage: "sprite palette groups",
		},
		&cli.IntFlag{
			Name:  "scanline",
			Value: defaults.MaxSpritesPerScanline,
			Usage: "sprites per scanline",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: defaults.Timeout,
			Usage: "solver time per pass",
		},
		&cli.BoolFlag{
			Name:  "align",
			Usage: "shift the image to the cell alignment with the fewest colors",
		},
		&cli.BoolFlag{
			Name:  "no-continuity",
			Usage: "do not smooth background palette groups along rows",
		},
		&cli.IntFlag{
			Name:  "bank-size",
			Usage: "split background tiles into banks of this many bytes",
		},
		&cli.IntFlag{
			Name:  "mask",
			Value: int(defaults.PaletteMask),
			Usage: "bit mask of palette groups to export",
		},
		&cli.BoolFlag{
			Name:  "preview",
			Usage: "also write a PNG preview",
		},
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"OVERLAYPAL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to export cache, empty to disable",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image into background and sprite data",
			Description: "",
			ArgsUsage:   "IMAGE [OUTPUT]",
			Flags:       append(append([]cli.Flag{}, imageFlags...), convertFlags...),
			Action:      action(convert),
		},
		{
			Name:        "batch",
			Usage:       "Convert every image below a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: append(append(append([]cli.Flag{}, imageFlags...), convertFlags...),
				&cli.StringFlag{
					Name:  "output",
					Usage: "write exports to `DIRECTORY` rather than alongside each image",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "images read at once",
				},
			),
			Action: action(batch),
		},
		{
			Name:        "shift",
			Usage:       "Find the cell alignment with the fewest colors",
			Description: "",
			ArgsUsage:   "IMAGE",
			Flags:       imageFlags,
			Action:      action(shift),
		},
		{
			Name:        "decode",
			Usage:       "Decode exported background data into a PNG",
			Description: "",
			ArgsUsage:   "BASE [OUTPUT]",
			Flags:       imageFlags[:1],
			Action:      action(decode),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
