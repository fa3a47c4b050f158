package layer

import "github.com/bodgit/overlaypal/grid"

// Split divides m in two. Every pixel whose color is one of the colors kept
// by its cell in moved goes into the second image, anything else into the
// first. The vacated position in each image is set to the background color
// so no position is ever set in both.
func Split(m *grid.Image, moved *Layer) (*grid.Image, *grid.Image) {
	bg := moved.Background()
	kept := grid.NewImage(m.Width(), m.Height(), bg)
	out := grid.NewImage(m.Width(), m.Height(), bg)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			c := m.At(x, y)
			cx, cy := moved.CellOf(x, y)
			if moved.In(cx, cy) && moved.At(cx, cy).Colors.Has(c) {
				out.Set(x, y, c)
			} else {
				kept.Set(x, y, c)
			}
		}
	}
	return kept, out
}
