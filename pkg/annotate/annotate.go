// Package annotate draws debug overlays for eye alignment: an outline around
// each detected eye and a horizontal line at the average eye height. The
// overlays are meant for visual verification and must be applied before
// cropping, while the boxes are still in source coordinates.
package annotate

import (
	"image"
	"image/color"

	"github.com/menta2k/idphoto/pkg/align"
	"github.com/menta2k/idphoto/pkg/types"
)

// Annotator draws eye boxes and the eye-alignment line onto an image.
type Annotator struct {
	EyeBoxColor  color.NRGBA
	EyeLineColor color.NRGBA
	Stroke       int
}

// New returns an Annotator with the classic debug palette: green eye boxes,
// red eye line, 2px stroke.
func New() *Annotator {
	return &Annotator{
		EyeBoxColor:  color.NRGBA{0, 255, 0, 255},
		EyeLineColor: color.NRGBA{255, 0, 0, 255},
		Stroke:       2,
	}
}

// Draw mutates img in place: one rectangle outline per eye box (translated
// from face-local to image-global coordinates) and a full-width horizontal
// line at the average eye center Y. No-op when eyes is empty.
func (a *Annotator) Draw(img *image.NRGBA, face types.BoundingBox, eyes []types.BoundingBox) {
	if len(eyes) == 0 {
		return
	}

	for _, eye := range eyes {
		a.drawBox(img, eye.Translate(face.X, face.Y))
	}

	lineY := align.AverageEyeY(face, eyes)
	width := img.Bounds().Dx()
	for s := 0; s < a.Stroke; s++ {
		drawHLine(img, lineY+s, 0, width, a.EyeLineColor)
	}
}

func (a *Annotator) drawBox(img *image.NRGBA, box types.BoundingBox) {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width, box.Y+box.Height
	for s := 0; s < a.Stroke; s++ {
		drawHLine(img, y0+s, x0, x1, a.EyeBoxColor)
		drawHLine(img, y1-1-s, x0, x1, a.EyeBoxColor)
		drawVLine(img, x0+s, y0, y1, a.EyeBoxColor)
		drawVLine(img, x1-1-s, y0, y1, a.EyeBoxColor)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
