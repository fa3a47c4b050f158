package solver

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/bodgit/overlaypal/layer"
)

// Limits are the hardware limits the solver must respect.
type Limits struct {
	CellColorLimit        int
	MaxBackgroundPalettes int
	MaxSpritePalettes     int
	// MaxRowSize limits the number of overlay cells on one row.
	MaxRowSize int
}

// WriteProblem writes the CMPL data describing l and limits to w.
func WriteProblem(w io.Writer, l *layer.Layer, limits Limits) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%%CELL_COLOR_LIMIT < %d >\n", limits.CellColorLimit)
	fmt.Fprintf(bw, "%%MAX_BG_PALETTES < %d >\n", limits.MaxBackgroundPalettes)
	fmt.Fprintf(bw, "%%MAX_SPR_PALETTES < %d >\n", limits.MaxSpritePalettes)
	fmt.Fprintf(bw, "%%OVERLAY_ROW_SIZE_LIMIT < %d >\n", limits.MaxRowSize)

	fmt.Fprintf(bw, "%%XRANGE set < 0..%d >\n", l.Width()-1)
	fmt.Fprintf(bw, "%%YRANGE set < 0..%d >\n", l.Height()-1)

	colors := l.Colors().Slice()
	fmt.Fprint(bw, "%COLORS set < ")
	for _, c := range colors {
		fmt.Fprintf(bw, "%d ", c)
	}
	fmt.Fprint(bw, " >\n")

	writeLayerData(bw, "layerColors", l, colors, func(cell layer.Cell, c uint8) int {
		if cell.Colors.Has(c) {
			return 1
		}
		return 0
	})
	writeLayerData(bw, "layerColorColumnCount", l, colors, func(cell layer.Cell, c uint8) int {
		if cell.Colors.Has(c) {
			return cell.ColumnCount[c]
		}
		return 0
	})

	return bw.Flush()
}

// The solver expects x to be the outermost index.
func writeLayerData(w io.Writer, name string, l *layer.Layer, colors []uint8, value func(layer.Cell, uint8) int) {
	fmt.Fprintf(w, "%%%s[XRANGE, YRANGE, COLORS] <\n", name)
	for x := 0; x < l.Width(); x++ {
		for y := 0; y < l.Height(); y++ {
			cell := l.At(x, y)
			for _, c := range colors {
				fmt.Fprintf(w, "%d ", value(cell, c))
			}
			fmt.Fprint(w, "\n")
		}
	}
	fmt.Fprint(w, ">\n")
}

// WriteProblemFile writes the problem to the named file.
func WriteProblemFile(file string, l *layer.Layer, limits Limits) error {
	f, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("solver: failed to create problem file: %w", err)
	}
	defer f.Close()

	if err := WriteProblem(f, l, limits); err != nil {
		return err
	}

	return f.Close()
}
