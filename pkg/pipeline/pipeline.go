// Package pipeline orchestrates per-image processing: detection, eye
// filtering, optional annotation, crop computation, resize and encode. Each
// image ends in exactly one terminal outcome; a failing image never stops
// the batch.
package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/idphoto/internal/utils"
	"github.com/menta2k/idphoto/pkg/align"
	"github.com/menta2k/idphoto/pkg/annotate"
	"github.com/menta2k/idphoto/pkg/codec"
	"github.com/menta2k/idphoto/pkg/detect"
	"github.com/menta2k/idphoto/pkg/types"
)

// ErrNoImages is returned by Run when the input directory holds no files
// with an accepted image extension. This aborts the run before any
// processing starts.
var ErrNoImages = errors.New("pipeline: no images in input directory")

// Outcome is the terminal state of one image. There are no retries.
type Outcome string

const (
	// OutcomeAligned: face and at least two eyes found, output cropped
	// and resized.
	OutcomeAligned Outcome = "aligned"
	// OutcomeAlignedOneEye: aligned on a single eye; reduced precision.
	OutcomeAlignedOneEye Outcome = "aligned_one_eye"
	// OutcomeNoFace: detector found no face; original copied through.
	OutcomeNoFace Outcome = "no_face"
	// OutcomeNoEyes: no eye survived filtering; original copied through.
	OutcomeNoEyes Outcome = "no_eyes"
	// OutcomeDegenerateCrop: padded crop larger than the source image;
	// original copied through.
	OutcomeDegenerateCrop Outcome = "degenerate_crop"
	// OutcomeDecodeFailed: the file could not be decoded; nothing written.
	OutcomeDecodeFailed Outcome = "decode_failed"
	// OutcomeWriteFailed: encoding or copying the output failed.
	OutcomeWriteFailed Outcome = "write_failed"
	// OutcomeError: detector failure; nothing written.
	OutcomeError Outcome = "error"
)

// Result records what happened to a single image.
type Result struct {
	Input    string
	Output   string
	Outcome  Outcome
	EyeCount int
	Err      error
}

// Aligned reports whether an aligned output image was produced.
func (r Result) Aligned() bool {
	return r.Outcome == OutcomeAligned || r.Outcome == OutcomeAlignedOneEye
}

// Report aggregates the results of a batch run.
type Report struct {
	Results []Result
}

// Counts returns the number of images per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, res := range r.Results {
		counts[res.Outcome]++
	}
	return counts
}

// Aligned returns how many images produced an aligned output.
func (r *Report) Aligned() int {
	n := 0
	for _, res := range r.Results {
		if res.Aligned() {
			n++
		}
	}
	return n
}

// Options configures a Processor.
type Options struct {
	Crop     types.CropConfig
	Annotate bool
	Workers  int
	Progress bool
	Logger   *logrus.Logger
}

// Processor runs the per-image pipeline. Construct once per run; safe for
// concurrent use as long as the detector is.
type Processor struct {
	detector  detect.Detector
	codec     codec.Codec
	annotator *annotate.Annotator
	opts      Options
	log       *logrus.Logger
}

// New creates a Processor. A nil logger falls back to the logrus standard
// logger; zero workers means sequential processing.
func New(detector detect.Detector, cdc codec.Codec, opts Options) *Processor {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{
		detector:  detector,
		codec:     cdc,
		annotator: annotate.New(),
		opts:      opts,
		log:       log,
	}
}

// ProcessFile runs the full pipeline for one image and writes the outcome to
// outputPath. Every input owns its own buffers; nothing is shared between
// invocations.
func (p *Processor) ProcessFile(inputPath, outputPath string) Result {
	res := Result{Input: inputPath, Output: outputPath}

	img, err := p.codec.Load(inputPath)
	if err != nil {
		// Writing a broken buffer to the output would just propagate
		// the corruption, so decode failures produce no output file.
		res.Outcome = OutcomeDecodeFailed
		res.Err = fmt.Errorf("decoding %s: %w", inputPath, err)
		p.log.WithField("input", inputPath).WithError(err).Error("failed to decode image")
		return res
	}

	face, found, err := p.detector.DetectFace(img)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("detecting face in %s: %w", inputPath, err)
		p.log.WithField("input", inputPath).WithError(err).Error("face detection failed")
		return res
	}
	if !found {
		p.log.WithField("input", inputPath).Info("no face detected, copying original")
		return p.passthrough(res, OutcomeNoFace)
	}

	rawEyes, err := p.detector.DetectEyes(img, face)
	if err != nil {
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("detecting eyes in %s: %w", inputPath, err)
		p.log.WithField("input", inputPath).WithError(err).Error("eye detection failed")
		return res
	}

	eyes := align.FilterEyes(face, rawEyes)
	res.EyeCount = len(eyes)

	switch len(eyes) {
	case 0:
		p.log.WithField("input", inputPath).Info("no eyes detected, copying original")
		return p.passthrough(res, OutcomeNoEyes)
	case 1:
		p.log.WithField("input", inputPath).Warn("only one eye detected, alignment may be skewed")
	}

	bounds := img.Bounds()
	rect, err := align.ComputeCropRect(bounds.Dx(), bounds.Dy(), face, eyes, p.opts.Crop)
	if err != nil {
		if errors.Is(err, align.ErrGeometryDegenerate) {
			p.log.WithFields(logrus.Fields{
				"input":  inputPath,
				"width":  bounds.Dx(),
				"height": bounds.Dy(),
			}).Warn("image too small for padded crop, copying original")
			return p.passthrough(res, OutcomeDegenerateCrop)
		}
		res.Outcome = OutcomeError
		res.Err = fmt.Errorf("computing crop for %s: %w", inputPath, err)
		return res
	}

	source := img
	if p.opts.Annotate {
		// Annotation mutates pixels, and must happen before the crop
		// while the boxes are still in source coordinates.
		canvas := imaging.Clone(img)
		p.annotator.Draw(canvas, face, eyes)
		source = canvas
	}

	cropped := codec.Crop(source, rect.Rect())
	final := p.codec.Resize(cropped, p.opts.Crop.TargetWidth, p.opts.Crop.TargetHeight)

	if err := p.codec.Save(final, outputPath); err != nil {
		res.Outcome = OutcomeWriteFailed
		res.Err = fmt.Errorf("saving %s: %w", outputPath, err)
		p.log.WithField("output", outputPath).WithError(err).Error("failed to save image")
		return res
	}

	if len(eyes) == 1 {
		res.Outcome = OutcomeAlignedOneEye
	} else {
		res.Outcome = OutcomeAligned
	}
	p.log.WithFields(logrus.Fields{
		"input": inputPath,
		"eyes":  len(eyes),
	}).Info("processed")
	return res
}

// passthrough copies the original file to the output path unchanged, keeping
// it byte-identical to the input.
func (p *Processor) passthrough(res Result, outcome Outcome) Result {
	res.Outcome = outcome
	if err := utils.CopyFile(res.Input, res.Output); err != nil {
		res.Outcome = OutcomeWriteFailed
		res.Err = fmt.Errorf("copying %s: %w", res.Input, err)
		p.log.WithField("input", res.Input).WithError(err).Error("failed to copy original")
	}
	return res
}

// Run processes every accepted image in inputDir into outputDir, creating
// outputDir if needed. Images are independent, so they are distributed over
// the configured number of workers; each worker owns its image buffers
// exclusively and output filenames are derived one-to-one from inputs, so no
// further coordination is needed.
func (p *Processor) Run(inputDir, outputDir string) (*Report, error) {
	files, err := utils.ListImageFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, inputDir)
	}

	if err := utils.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var bar *progressbar.ProgressBar
	if p.opts.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Aligning portraits"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	results := make([]Result, len(files))
	sem := make(chan struct{}, p.opts.Workers)
	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, input string) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = p.ProcessFile(input, utils.OutputPath(input, outputDir))
			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, file)
	}
	wg.Wait()

	return &Report{Results: results}, nil
}
