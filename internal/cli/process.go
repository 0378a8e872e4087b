package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/internal/config"
	"github.com/menta2k/idphoto/internal/logging"
	"github.com/menta2k/idphoto/pkg/codec"
	"github.com/menta2k/idphoto/pkg/detect"
	"github.com/menta2k/idphoto/pkg/detect/llamadet"
	"github.com/menta2k/idphoto/pkg/detect/ollamadet"
	"github.com/menta2k/idphoto/pkg/detect/pigodet"
	"github.com/menta2k/idphoto/pkg/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process [input-dir] [output-dir]",
	Short: "Align every portrait in a directory",
	Long: `Process every image in the input directory and write the results to
the output directory under the same file names. Each image is face- and
eye-detected, cropped so the eyes sit on the configured line, and resized
to the target dimensions. Images without a detectable face or eyes are
copied through unchanged.`,
	Args: cobra.ExactArgs(2),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("backend", "", "Detection backend: pigo, ollama or llamacpp (default from config)")
	processCmd.Flags().Bool("annotate", false, "Draw detected eye boxes and the eye line on outputs")
	processCmd.Flags().Int("workers", 0, "Number of images processed in parallel (0 = config value)")
	processCmd.Flags().Int("quality", 0, "JPEG/WebP output quality 1-100 (0 = config value)")
	processCmd.Flags().String("face-cascade", "", "Path to the pigo facefinder cascade")
	processCmd.Flags().String("pupil-cascade", "", "Path to the pigo puploc cascade")
	processCmd.Flags().String("ollama-url", "", "Ollama server URL")
	processCmd.Flags().String("ollama-model", "", "Ollama vision model name")
	processCmd.Flags().String("llamacpp-url", "", "llama.cpp server URL")
	processCmd.Flags().String("llamacpp-model", "", "llama.cpp vision model name")
	processCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputDir, outputDir := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if backend := mustGetString(cmd, "backend"); backend != "" {
		cfg.Detector.Backend = backend
	}
	if cascade := mustGetString(cmd, "face-cascade"); cascade != "" {
		cfg.Detector.FaceCascade = cascade
	}
	if cascade := mustGetString(cmd, "pupil-cascade"); cascade != "" {
		cfg.Detector.PupilCascade = cascade
	}
	if url := mustGetString(cmd, "ollama-url"); url != "" {
		cfg.Detector.OllamaURL = url
	}
	if model := mustGetString(cmd, "ollama-model"); model != "" {
		cfg.Detector.OllamaModel = model
	}
	if url := mustGetString(cmd, "llamacpp-url"); url != "" {
		cfg.Detector.LlamaCppURL = url
	}
	if model := mustGetString(cmd, "llamacpp-model"); model != "" {
		cfg.Detector.LlamaCppModel = model
	}
	if workers := mustGetInt(cmd, "workers"); workers > 0 {
		cfg.Batch.Workers = workers
	}
	if quality := mustGetInt(cmd, "quality"); quality > 0 {
		cfg.Output.Quality = quality
	}
	if mustGetBool(cmd, "annotate") {
		cfg.Output.Annotate = true
	}
	if mustGetBool(cmd, "no-progress") {
		cfg.Batch.Progress = false
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logging.NewLogger(verbose)

	var detector detect.Detector
	switch cfg.Detector.Backend {
	case "pigo":
		detector, err = pigodet.New(cfg.Detector.FaceCascade, cfg.Detector.PupilCascade)
		if err != nil {
			return fmt.Errorf("failed to create pigo detector: %w", err)
		}
	case "ollama":
		detector, err = ollamadet.New(cfg.Detector.OllamaURL, cfg.Detector.OllamaModel)
		if err != nil {
			return fmt.Errorf("failed to create ollama detector: %w", err)
		}
	case "llamacpp":
		detector, err = llamadet.New(cfg.Detector.LlamaCppURL, cfg.Detector.LlamaCppModel)
		if err != nil {
			return fmt.Errorf("failed to create llama.cpp detector: %w", err)
		}
	}

	proc := pipeline.New(detector, codec.NewImaging(cfg.Output.Quality), pipeline.Options{
		Crop:     cfg.CropSettings(),
		Annotate: cfg.Output.Annotate,
		Workers:  cfg.Batch.Workers,
		Progress: cfg.Batch.Progress,
		Logger:   log,
	})

	report, err := proc.Run(inputDir, outputDir)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func printReport(report *pipeline.Report) {
	fmt.Printf("\nProcessed: %d images\n", len(report.Results))
	fmt.Printf("Aligned: %d images\n", report.Aligned())

	counts := report.Counts()
	for _, outcome := range []pipeline.Outcome{
		pipeline.OutcomeAlignedOneEye,
		pipeline.OutcomeNoFace,
		pipeline.OutcomeNoEyes,
		pipeline.OutcomeDegenerateCrop,
		pipeline.OutcomeDecodeFailed,
		pipeline.OutcomeWriteFailed,
		pipeline.OutcomeError,
	} {
		if n := counts[outcome]; n > 0 {
			fmt.Printf("  %s: %d\n", outcome, n)
		}
	}

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("  - %s: %v\n", res.Input, res.Err)
		}
	}
}
