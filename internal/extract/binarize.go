package extract

import (
	"image"
	"math"
)

// bitmap is a strict two-class view of a raster diagram: every pixel is
// either foreground (part of a plotted trajectory) or background.
type bitmap struct {
	width  int
	height int
	fg     []bool
}

func newBitmap(width, height int) *bitmap {
	return &bitmap{width: width, height: height, fg: make([]bool, width*height)}
}

func (b *bitmap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return false
	}
	return b.fg[y*b.width+x]
}

func (b *bitmap) set(x, y int, v bool) {
	b.fg[y*b.width+x] = v
}

// binarize classifies every pixel against a pure white background
// reference: pixels whose RGB distance to white falls within tolerance are
// background, everything else foreground. Fully transparent pixels count as
// background. The strict two-class result removes compression artifacts and
// antialiasing ambiguity before tracing.
func binarize(img image.Image, tolerance float64) *bitmap {
	bounds := img.Bounds()
	bm := newBitmap(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			// RGBA returns 16-bit channels; scale down to 8-bit.
			dr := 255 - float64(r>>8)
			dg := 255 - float64(g>>8)
			db := 255 - float64(b>>8)
			dist := math.Sqrt(dr*dr + dg*dg + db*db)
			if dist > tolerance {
				bm.set(x-bounds.Min.X, y-bounds.Min.Y, true)
			}
		}
	}
	return bm
}
