// Package align implements the geometric core of ID photo standardization:
// filtering spurious eye detections and computing the crop rectangle that
// places the eye line at a fixed fraction of the output height while keeping
// the face horizontally centered.
package align

import (
	"errors"
	"math"

	"github.com/menta2k/idphoto/pkg/types"
)

// Fractional bands of the face box where real eyes are expected. Candidates
// outside the 20-50% vertical / 20-80% horizontal region are discarded as
// false positives.
const (
	topBand    = 0.2
	bottomBand = 0.5
	leftBand   = 0.2
	rightBand  = 0.8
)

var (
	// ErrNoEyes is returned when a crop is requested with an empty eye set.
	// Callers are expected to short-circuit before computing a crop.
	ErrNoEyes = errors.New("align: no eyes to align on")

	// ErrGeometryDegenerate is returned when the padded crop rectangle is
	// larger than the source image in either dimension. Clamping such a
	// rectangle would invert the min/max bounds and silently produce an
	// ill-defined crop, so the condition is surfaced instead.
	ErrGeometryDegenerate = errors.New("align: crop rectangle exceeds image bounds")
)

// FilterEyes removes eye candidates whose centers fall outside the expected
// region of the face. The face box is image-global, the eye boxes face-local.
// The result is an order-preserving subsequence of the input; the input is
// not modified. An empty input yields an empty result.
func FilterEyes(face types.BoundingBox, eyes []types.BoundingBox) []types.BoundingBox {
	filtered := make([]types.BoundingBox, 0, len(eyes))

	topThreshold := face.Y + int(float64(face.Height)*topBand)
	bottomThreshold := face.Y + int(float64(face.Height)*bottomBand)
	leftThreshold := face.X + int(float64(face.Width)*leftBand)
	rightThreshold := face.X + int(float64(face.Width)*rightBand)

	for _, eye := range eyes {
		centerX, centerY := eye.Translate(face.X, face.Y).Center()

		if centerY < topThreshold || centerY > bottomThreshold {
			continue
		}
		if centerX < leftThreshold || centerX > rightThreshold {
			continue
		}
		filtered = append(filtered, eye)
	}

	return filtered
}

// AverageEyeY returns the integer-truncated mean of the image-global eye
// center Y coordinates. The eye boxes are face-local. The same value drives
// both the crop placement and the annotation eye line. Returns 0 for an
// empty eye set.
func AverageEyeY(face types.BoundingBox, eyes []types.BoundingBox) int {
	if len(eyes) == 0 {
		return 0
	}
	sum := 0
	for _, eye := range eyes {
		sum += face.Y + eye.Y + eye.Height/2
	}
	return sum / len(eyes)
}

// ComputeCropRect computes the image-global crop rectangle that, once resized
// to the configured target size, centers the face horizontally and lands the
// average eye line at cfg.EyeAlignFraction of the output height.
//
// The rectangle is padded by cfg.PaddingRatio of each target dimension on
// every side and clamped to the image bounds. If the padded rectangle cannot
// fit inside the image, ErrGeometryDegenerate is returned and the caller
// decides the fallback.
func ComputeCropRect(imgWidth, imgHeight int, face types.BoundingBox, eyes []types.BoundingBox, cfg types.CropConfig) (types.CropRectangle, error) {
	if len(eyes) == 0 {
		return types.CropRectangle{}, ErrNoEyes
	}

	avgEyeY := AverageEyeY(face, eyes)

	verticalPadding := int(math.Round(float64(cfg.TargetHeight) * cfg.PaddingRatio))
	horizontalPadding := int(math.Round(float64(cfg.TargetWidth) * cfg.PaddingRatio))

	cropHeight := cfg.TargetHeight + 2*verticalPadding
	cropWidth := cfg.TargetWidth + 2*horizontalPadding

	if cropWidth > imgWidth || cropHeight > imgHeight {
		return types.CropRectangle{}, ErrGeometryDegenerate
	}

	// Eye line position in the final output, mapped back onto the padded
	// crop. Uniform resize keeps the fraction intact.
	finalEyeY := math.Round(float64(cfg.TargetHeight) * cfg.EyeAlignFraction)

	cropX := face.X + face.Width/2 - cropWidth/2
	cropY := avgEyeY - int(math.Round(finalEyeY/float64(cfg.TargetHeight)*float64(cropHeight)))

	cropX = clampInt(cropX, 0, imgWidth-cropWidth)
	cropY = clampInt(cropY, 0, imgHeight-cropHeight)

	return types.CropRectangle{X: cropX, Y: cropY, Width: cropWidth, Height: cropHeight}, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
