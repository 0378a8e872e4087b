// Package idphoto standardizes ID-style portrait photos.
//
// The package detects a face and eyes in each photo, computes a crop
// rectangle centered on the face with the eye line at a fixed height, and
// resizes the crop to uniform target dimensions. Photos where no face or no
// eyes can be found are passed through unchanged, so a batch always produces
// one output per input.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/menta2k/idphoto"
//		"github.com/menta2k/idphoto/pkg/detect/pigodet"
//	)
//
//	func main() {
//		detector, err := pigodet.New("cascade/facefinder", "cascade/puploc")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		std := idphoto.New(detector, idphoto.Options{})
//		report, err := std.ProcessDir("input", "output")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("aligned %d of %d photos", report.Aligned(), len(report.Results))
//	}
//
// The package consists of five main components:
//
// 1. Detect (pkg/detect): Face and eye detection behind a common interface,
// with a pure-Go cascade backend (pkg/detect/pigodet) and a vision-LLM
// backend (pkg/detect/ollamadet)
// 2. Align (pkg/align): Eye filtering and crop geometry
// 3. Annotate (pkg/annotate): Debug overlay drawing
// 4. Codec (pkg/codec): Image loading, saving and resizing
// 5. Pipeline (pkg/pipeline): Per-image orchestration and batch runs
package idphoto

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/menta2k/idphoto/pkg/align"
	"github.com/menta2k/idphoto/pkg/codec"
	"github.com/menta2k/idphoto/pkg/detect"
	"github.com/menta2k/idphoto/pkg/pipeline"
	"github.com/menta2k/idphoto/pkg/types"
)

// Version of the idphoto library
const Version = "1.0.0"

// Options configures a Standardizer. Zero values select the defaults:
// 900x1200 output, quality 90, sequential processing, no annotation.
type Options struct {
	Crop     types.CropConfig
	Annotate bool
	Workers  int
	Progress bool
	Quality  int
	Logger   *logrus.Logger
}

// Standardizer provides a high-level interface for portrait alignment
type Standardizer struct {
	detector detect.Detector
	codec    codec.Codec
	proc     *pipeline.Processor
	crop     types.CropConfig
}

// New creates a Standardizer around a detection backend
func New(detector detect.Detector, opts Options) *Standardizer {
	if opts.Crop == (types.CropConfig{}) {
		opts.Crop = types.DefaultCropConfig()
	}
	if opts.Quality < 1 {
		opts.Quality = 90
	}

	cdc := codec.NewImaging(opts.Quality)
	proc := pipeline.New(detector, cdc, pipeline.Options{
		Crop:     opts.Crop,
		Annotate: opts.Annotate,
		Workers:  opts.Workers,
		Progress: opts.Progress,
		Logger:   opts.Logger,
	})

	return &Standardizer{
		detector: detector,
		codec:    cdc,
		proc:     proc,
		crop:     opts.Crop,
	}
}

// ProcessFile aligns a single photo and writes the result to outputPath
func (s *Standardizer) ProcessFile(inputPath, outputPath string) pipeline.Result {
	return s.proc.ProcessFile(inputPath, outputPath)
}

// ProcessDir aligns every photo in inputDir into outputDir
func (s *Standardizer) ProcessDir(inputDir, outputDir string) (*pipeline.Report, error) {
	return s.proc.Run(inputDir, outputDir)
}

// Align crops and resizes an in-memory image. It returns the aligned image,
// or ok=false when no face or no eyes were found and the caller should keep
// the original.
func (s *Standardizer) Align(img image.Image) (aligned image.Image, ok bool, err error) {
	face, found, err := s.detector.DetectFace(img)
	if err != nil || !found {
		return nil, false, err
	}

	rawEyes, err := s.detector.DetectEyes(img, face)
	if err != nil {
		return nil, false, err
	}

	eyes := align.FilterEyes(face, rawEyes)
	if len(eyes) == 0 {
		return nil, false, nil
	}

	bounds := img.Bounds()
	rect, err := align.ComputeCropRect(bounds.Dx(), bounds.Dy(), face, eyes, s.crop)
	if err != nil {
		return nil, false, nil
	}

	cropped := codec.Crop(img, rect.Rect())
	return s.codec.Resize(cropped, s.crop.TargetWidth, s.crop.TargetHeight), true, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
