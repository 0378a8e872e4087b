// Package pigodet implements face and eye detection on top of the pure Go
// pigo cascade classifier: the facefinder cascade for the face box and the
// puploc cascade for pupil localization, widened into eye boxes.
package pigodet

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/idphoto/pkg/detect"
	"github.com/menta2k/idphoto/pkg/types"
)

// Cascade tuning. Shift/scale factors follow the pigo defaults for frontal
// portraits; the IoU threshold merges overlapping detections of one face.
const (
	minFaceSize   = 60
	shiftFactor   = 0.1
	scaleFactor   = 1.1
	clusterIoU    = 0.2
	qualityThresh = 5.0

	// Pupil seed offsets relative to the face detection, from the pigo
	// puploc reference usage.
	leftEyeColOffset  = -0.175
	rightEyeColOffset = 0.185
	eyeRowOffset      = -0.075
	pupilScaleRatio   = 0.25
	puplocPerturbs    = 50

	// A pupil point becomes an eye box of roughly twice the pupil scale.
	eyeBoxScale = 2.0
)

// Detector runs pigo cascades. Safe for concurrent use once constructed;
// detection itself allocates per-call state only.
type Detector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
}

// New loads the facefinder and puploc cascade files. Missing or corrupt
// cascade data is a fatal setup error: no detector, no run.
func New(facefinderPath, puplocPath string) (*Detector, error) {
	faceCascade, err := os.ReadFile(facefinderPath)
	if err != nil {
		return nil, fmt.Errorf("pigodet: reading facefinder cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(faceCascade)
	if err != nil {
		return nil, fmt.Errorf("pigodet: unpacking facefinder cascade: %w", err)
	}

	puplocCascade, err := os.ReadFile(puplocPath)
	if err != nil {
		return nil, fmt.Errorf("pigodet: reading puploc cascade: %w", err)
	}
	plc, err := pigo.NewPuplocCascade().UnpackCascade(puplocCascade)
	if err != nil {
		return nil, fmt.Errorf("pigodet: unpacking puploc cascade: %w", err)
	}

	return &Detector{classifier: classifier, puploc: plc}, nil
}

// DetectFace runs the face cascade and returns the strongest clustered
// detection as an image-global box, or found=false when nothing qualifies.
func (d *Detector) DetectFace(img image.Image) (types.BoundingBox, bool, error) {
	params := d.imageParams(img)
	maxSize := params.Rows
	if params.Cols < maxSize {
		maxSize = params.Cols
	}

	cParams := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: params,
	}

	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, clusterIoU)

	best, found := bestDetection(dets)
	if !found {
		return types.BoundingBox{}, false, nil
	}

	return types.BoundingBox{
		X:      best.Col - best.Scale/2,
		Y:      best.Row - best.Scale/2,
		Width:  best.Scale,
		Height: best.Scale,
	}, true, nil
}

// DetectEyes localizes both pupils inside the face box and widens each point
// into a face-local eye box. A pupil the cascade cannot place is skipped, so
// the result holds zero, one or two boxes.
func (d *Detector) DetectEyes(img image.Image, face types.BoundingBox) ([]types.BoundingBox, error) {
	params := d.imageParams(img)

	faceRow := face.Y + face.Height/2
	faceCol := face.X + face.Width/2
	scale := float32(face.Width)

	seeds := []pigo.Puploc{
		{
			Row:      faceRow + int(eyeRowOffset*scale),
			Col:      faceCol + int(leftEyeColOffset*scale),
			Scale:    scale * pupilScaleRatio,
			Perturbs: puplocPerturbs,
		},
		{
			Row:      faceRow + int(eyeRowOffset*scale),
			Col:      faceCol + int(rightEyeColOffset*scale),
			Scale:    scale * pupilScaleRatio,
			Perturbs: puplocPerturbs,
		},
	}

	var eyes []types.BoundingBox
	for _, seed := range seeds {
		pupil := d.puploc.RunDetector(seed, params, 0.0, false)
		if pupil.Row < 0 || pupil.Col < 0 {
			continue
		}
		side := int(pupil.Scale * eyeBoxScale)
		if side <= 0 {
			continue
		}
		eyes = append(eyes, types.BoundingBox{
			X:      pupil.Col - side/2 - face.X,
			Y:      pupil.Row - side/2 - face.Y,
			Width:  side,
			Height: side,
		})
	}

	return eyes, nil
}

func (d *Detector) imageParams(img image.Image) pigo.ImageParams {
	pixels, rows, cols := detect.Grayscale(img)
	return pigo.ImageParams{
		Pixels: pixels,
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}
}

// bestDetection picks the largest sufficiently confident face. The pipeline
// supports a single face per image, so ties go to the bigger detection.
func bestDetection(dets []pigo.Detection) (pigo.Detection, bool) {
	var best pigo.Detection
	found := false
	for _, det := range dets {
		if det.Q < qualityThresh {
			continue
		}
		if !found || det.Scale > best.Scale {
			best = det
			found = true
		}
	}
	return best, found
}
