package types

import "image"

// BoundingBox is an axis-aligned rectangle described by its top-left corner
// and size. Face boxes are expressed in image-global coordinates; raw eye
// boxes come out of the detector in face-local coordinates (origin at the
// face box's top-left corner) and must be translated before any cross-box
// comparison or drawing.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the integer-truncated center point of the box.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Translate returns the box shifted by (dx, dy). Used to lift face-local eye
// boxes into image-global coordinates.
func (b BoundingBox) Translate(dx, dy int) BoundingBox {
	return BoundingBox{X: b.X + dx, Y: b.Y + dy, Width: b.Width, Height: b.Height}
}

// Rect converts the box to a stdlib image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// DetectionResult is the detector's output for a single image: at most one
// face box (image-global) plus the raw eye candidates (face-local), in
// detection order. Immutable once produced.
type DetectionResult struct {
	Face      BoundingBox
	FaceFound bool
	Eyes      []BoundingBox
}

// CropRectangle is the image-global region extracted from the source before
// resizing to the target dimensions. After clamping it is fully contained
// within the source image.
type CropRectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Rect converts the crop rectangle to a stdlib image.Rectangle.
func (c CropRectangle) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// CropConfig holds the geometry of the standardized output. Constant for a
// whole run and threaded through every call; never global mutable state.
type CropConfig struct {
	TargetWidth      int     `json:"target_width"`
	TargetHeight     int     `json:"target_height"`
	EyeAlignFraction float64 `json:"eye_align_fraction"`
	PaddingRatio     float64 `json:"padding_ratio"`
}

// DefaultCropConfig returns the ID photo defaults: 900x1200 output with the
// eye line a third of the way down and 2/3 padding per side before
// downscaling.
func DefaultCropConfig() CropConfig {
	return CropConfig{
		TargetWidth:      900,
		TargetHeight:     1200,
		EyeAlignFraction: 1.0 / 3.0,
		PaddingRatio:     2.0 / 3.0,
	}
}
