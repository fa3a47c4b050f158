package overlaypal

import (
	"fmt"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/layer"
	"github.com/bodgit/overlaypal/palette"
	"github.com/bodgit/overlaypal/solver"
)

// pass is the integrated result of one solver pass.
type pass struct {
	// palettes are the groups chosen in this pass.
	palettes []palette.Colors
	// kept are the colors each cell keeps, moved the colors it gives up.
	kept, moved *layer.Layer
	// indices are absolute palette group indices for each cell.
	indices *grid.Grid[int]
}

// integrate turns a solution for l into layers and palette indices. The
// palette groups of the pass are topped up with empty groups to exactly
// groups entries and indices are offset by base. Cells that keep no
// colors use the first group of the pass. No group may hold more colors
// than fit alongside the background and no cell may keep more than limit
// colors.
func integrate(s *solver.Solution, l *layer.Layer, base, groups, limit int) (*pass, error) {
	if len(s.Palettes) > groups {
		return nil, fmt.Errorf("%w: %d palette groups, at most %d allowed", ErrInconsistent, len(s.Palettes), groups)
	}
	for i, colors := range s.Palettes {
		if colors.Len() > palette.GroupSize-1 {
			return nil, fmt.Errorf("%w: palette group %d has %d colors %v", ErrInconsistent, base+i, colors.Len(), colors)
		}
	}

	p := &pass{
		palettes: palette.Pad(palette.Clone(s.Palettes), groups),
		kept:     layer.NewEmpty(l.Background(), l.CellWidth(), l.CellHeight(), l.Width(), l.Height()),
		moved:    layer.NewEmpty(l.Background(), l.CellWidth(), l.CellHeight(), l.Width(), l.Height()),
		indices:  grid.New[int](l.Width(), l.Height()),
	}

	for y := 0; y < l.Height(); y++ {
		for x := 0; x < l.Width(); x++ {
			kept := s.Kept.At(x, y)
			p.kept.SetColors(x, y, kept)
			p.moved.SetColors(x, y, s.Moved.At(x, y))
			if kept.Empty() {
				p.indices.Set(x, y, base)
				continue
			}
			if kept.Len() > limit {
				return nil, fmt.Errorf("%w: cell (%d, %d) keeps %d colors, at most %d allowed", ErrInconsistent, x, y, kept.Len(), limit)
			}
			if !s.Assigned.At(x, y) {
				return nil, fmt.Errorf("%w: cell (%d, %d) keeps colors %v but has no palette group", ErrInconsistent, x, y, kept)
			}
			i := s.Indices.At(x, y)
			if i >= groups {
				return nil, fmt.Errorf("%w: cell (%d, %d) uses palette group %d", ErrInconsistent, x, y, i)
			}
			p.indices.Set(x, y, base+i)
		}
	}

	p.kept.Update()
	p.moved.Update()

	return p, nil
}

// checkConsistent verifies every cell of l only uses colors of its palette
// group and every pixel of m only uses colors of its cell.
func checkConsistent(m *grid.Image, l *layer.Layer, palettes []palette.Colors, indices *grid.Grid[int]) error {
	for y := 0; y < l.Height(); y++ {
		for x := 0; x < l.Width(); x++ {
			i := indices.At(x, y)
			if i < 0 || i >= len(palettes) {
				return fmt.Errorf("%w: cell (%d, %d) uses palette group %d of %d", ErrInconsistent, x, y, i, len(palettes))
			}
			colors := l.At(x, y).Colors
			if !colors.SubsetOf(palettes[i]) {
				return fmt.Errorf("%w: cell (%d, %d) colors %v not in palette group %d %v", ErrInconsistent, x, y, colors, i, palettes[i])
			}
		}
	}

	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			c := m.At(x, y)
			if c == l.Background() {
				continue
			}
			cx, cy := l.CellOf(x, y)
			if !l.In(cx, cy) || !l.At(cx, cy).Colors.Has(c) {
				return fmt.Errorf("%w: pixel (%d, %d) color %02x not in cell", ErrInconsistent, x, y, c)
			}
		}
	}

	return nil
}
