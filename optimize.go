package overlaypal

import (
	"sort"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/palette"
)

// pullBack moves the colors a cell gave up back into the cell whenever
// one of the palette groups from lo up to hi holds every color of both,
// preferring the group the cell already uses. It returns the number of
// cells changed.
func pullBack(kept, moved *layer.Layer, palettes []palette.Colors, indices *grid.Grid[int], lo, hi int) int {
	n := 0
	for y := 0; y < kept.Height(); y++ {
		for x := 0; x < kept.Width(); x++ {
			out := moved.At(x, y).Colors
			if out.Empty() {
				continue
			}
			all := kept.At(x, y).Colors.Union(out)

			candidates := make([]int, 0, hi-lo+1)
			candidates = append(candidates, indices.At(x, y))
			for i := lo; i < hi; i++ {
				candidates = append(candidates, i)
			}

			for _, i := range candidates {
				if i < lo || i >= hi || i >= len(palettes) || !all.SubsetOf(palettes[i]) {
					continue
				}
				kept.SetColors(x, y, all)
				moved.SetColors(x, y, palette.Colors{})
				indices.Set(x, y, i)
				n++
				break
			}
		}
	}
	kept.Update()
	moved.Update()
	return n
}

// mergePalettes repeatedly merges pairs of non-empty palette groups from lo
// up to hi whose colors fit in one group, until no pair fits. Cells using
// the second group of a pair are moved to the first, later groups move
// down one place and an empty group is added at hi-1. It returns the
// number of merges.
func mergePalettes(palettes []palette.Colors, lo, hi int, indices ...*grid.Grid[int]) int {
	n := 0
	for mergeOne(palettes, lo, hi, indices) {
		n++
	}
	return n
}

func mergeOne(palettes []palette.Colors, lo, hi int, indices []*grid.Grid[int]) bool {
	for i := lo; i < hi; i++ {
		for j := i + 1; j < hi; j++ {
			if palettes[i].Empty() || palettes[j].Empty() {
				continue
			}
			union := palettes[i].Union(palettes[j])
			if union.Len() > palette.GroupSize-1 {
				continue
			}

			palettes[i] = union
			copy(palettes[j:hi], palettes[j+1:hi])
			palettes[hi-1] = palette.Colors{}

			for _, g := range indices {
				for y := 0; y < g.Height(); y++ {
					for x := 0; x < g.Width(); x++ {
						switch v := g.At(x, y); {
						case v == j:
							g.Set(x, y, i)
						case v > j && v < hi:
							g.Set(x, y, v-1)
						}
					}
				}
			}
			return true
		}
	}
	return false
}

type run struct {
	palette    int
	start, end int
}

// smoothRows reassigns cells along each row so that long runs of cells
// share a palette group. On each row every maximal run of cells that one
// non-empty group from lo up to hi could draw is found, then runs are
// applied longest first with each cell taken by the first run to reach it.
// It returns the number of cells changed.
func smoothRows(l *layer.Layer, palettes []palette.Colors, indices *grid.Grid[int], lo, hi int) int {
	changed := 0
	for y := 0; y < l.Height(); y++ {
		var runs []run
		for p := lo; p < hi && p < len(palettes); p++ {
			if palettes[p].Empty() {
				continue
			}
			start := -1
			for x := 0; x <= l.Width(); x++ {
				if x < l.Width() && l.At(x, y).Colors.SubsetOf(palettes[p]) {
					if start < 0 {
						start = x
					}
					continue
				}
				if start >= 0 {
					runs = append(runs, run{p, start, x})
					start = -1
				}
			}
		}

		sort.SliceStable(runs, func(i, j int) bool {
			return runs[i].end-runs[i].start > runs[j].end-runs[j].start
		})

		claimed := make([]bool, l.Width())
		for _, r := range runs {
			for x := r.start; x < r.end; x++ {
				if claimed[x] {
					continue
				}
				claimed[x] = true
				if indices.At(x, y) != r.palette {
					indices.Set(x, y, r.palette)
					changed++
				}
			}
		}
	}
	return changed
}
