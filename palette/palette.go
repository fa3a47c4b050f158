/*
Package palette implements palette groups and the hardware color palette.

A palette group holds up to three colors and shares a fourth, implicit,
background color with every other group. Groups are numbered with the
background groups first, followed by the sprite groups.
*/
package palette

const (
	// GroupSize is the number of entries in one hardware palette group,
	// including the shared background color.
	GroupSize = 4

	// Filler pads unused entries of a palette group in the palette table.
	Filler = 0x3f
)

// Pad appends empty groups to palettes until there are at least n.
func Pad(palettes []Colors, n int) []Colors {
	for len(palettes) < n {
		palettes = append(palettes, Colors{})
	}
	return palettes
}

// Clone returns a copy of palettes.
func Clone(palettes []Colors) []Colors {
	return append([]Colors(nil), palettes...)
}

// Table returns the palette table for palettes; for each group the
// background color followed by its members, padded with Filler to GroupSize
// entries.
func Table(palettes []Colors, background uint8) []byte {
	b := make([]byte, 0, len(palettes)*GroupSize)
	for _, p := range palettes {
		b = append(b, background)
		n := 1
		for _, c := range p.Slice() {
			if n == GroupSize {
				break
			}
			b = append(b, c)
			n++
		}
		for ; n < GroupSize; n++ {
			b = append(b, Filler)
		}
	}
	return b
}

// Rows returns the palette table for palettes as one row per group.
func Rows(palettes []Colors, background uint8) [][]byte {
	t := Table(palettes, background)
	rows := make([][]byte, len(palettes))
	for i := range rows {
		rows[i] = t[i*GroupSize : (i+1)*GroupSize]
	}
	return rows
}

// Best returns the index of the group in palettes[lo:hi] covering the most
// members of want, preferring the lowest index on ties, and the number of
// covered members.
func Best(palettes []Colors, lo, hi int, want Colors) (int, int) {
	best, bestN := lo, -1
	for i := lo; i < hi && i < len(palettes); i++ {
		if n := palettes[i].Intersect(want).Len(); n > bestN {
			best, bestN = i, n
		}
	}
	if bestN < 0 {
		bestN = 0
	}
	return best, bestN
}
