package overlaypal

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/nes"
	"github.com/bodgit/overlaypal/palette"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageOptions control how an image file is turned into hardware colors.
type ImageOptions struct {
	palette.MapOptions
	// Background is the preferred background color, used if the image
	// contains it.
	Background uint8
}

// ReadImage decodes the image in file, maps it onto the hardware colors of
// h and crops or extends it to the screen size. It returns the image and
// the background color to convert it with.
func ReadImage(file string, h *palette.Hardware, opts ImageOptions) (*grid.Image, uint8, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, err
	}

	g := h.Map(m, opts.MapOptions)
	background := palette.DetectBackground(g, opts.Background)

	return grid.CropOrExtend(g, nes.ScreenWidth, nes.ScreenHeight, background), background, nil
}
