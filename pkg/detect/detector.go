// Package detect defines the face/eye detection capability consumed by the
// alignment pipeline. Implementations live in subpackages; the pipeline
// treats them as black boxes returning bounding boxes only.
package detect

import (
	"image"

	"github.com/menta2k/idphoto/pkg/types"
)

// Detector locates a face and eye candidates in an image.
//
// DetectFace returns at most one face box in image-global coordinates; the
// boolean reports whether a face was found at all (absence is a normal state,
// not an error). DetectEyes returns raw eye candidates in face-local
// coordinates, i.e. relative to the face box's top-left corner.
type Detector interface {
	DetectFace(img image.Image) (types.BoundingBox, bool, error)
	DetectEyes(img image.Image, face types.BoundingBox) ([]types.BoundingBox, error)
}

// Grayscale converts an image to 8-bit grayscale pixels in row-major order.
// Shared by detector implementations that operate on luminance.
func Grayscale(img image.Image) ([]uint8, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pixels := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// Rec. 601 luma.
			lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			pixels[y*width+x] = uint8(lum)
		}
	}
	return pixels, height, width
}
