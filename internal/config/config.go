package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/idphoto/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Crop     CropConfig     `json:"crop"`
	Detector DetectorConfig `json:"detector"`
	Output   OutputConfig   `json:"output"`
	Batch    BatchConfig    `json:"batch"`
}

// CropConfig holds the crop geometry settings
type CropConfig struct {
	TargetWidth      int     `json:"target_width"`
	TargetHeight     int     `json:"target_height"`
	EyeAlignFraction float64 `json:"eye_align_fraction"`
	PaddingRatio     float64 `json:"padding_ratio"`
}

// DetectorConfig selects and configures the detection backend
type DetectorConfig struct {
	Backend       string `json:"backend"` // "pigo", "ollama" or "llamacpp"
	FaceCascade   string `json:"face_cascade"`
	PupilCascade  string `json:"pupil_cascade"`
	OllamaURL     string `json:"ollama_url"`
	OllamaModel   string `json:"ollama_model"`
	LlamaCppURL   string `json:"llamacpp_url"`
	LlamaCppModel string `json:"llamacpp_model"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Annotate bool   `json:"annotate"`
}

// BatchConfig holds configuration for batch runs
type BatchConfig struct {
	Workers  int  `json:"workers"`
	Progress bool `json:"progress"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			TargetWidth:      900,
			TargetHeight:     1200,
			EyeAlignFraction: 1.0 / 3.0,
			PaddingRatio:     2.0 / 3.0,
		},
		Detector: DetectorConfig{
			Backend:       "pigo",
			FaceCascade:   "cascade/facefinder",
			PupilCascade:  "cascade/puploc",
			OllamaURL:     "http://localhost:11434",
			OllamaModel:   "llava:13b",
			LlamaCppURL:   "http://localhost:8080",
			LlamaCppModel: "openbmb/minicpm-v4.5",
		},
		Output: OutputConfig{
			Format:   "jpg",
			Quality:  90,
			Annotate: false,
		},
		Batch: BatchConfig{
			Workers:  4,
			Progress: true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Crop.TargetWidth < 1 || c.Crop.TargetHeight < 1 {
		return fmt.Errorf("crop.target_width and crop.target_height must be positive")
	}

	if c.Crop.EyeAlignFraction <= 0 || c.Crop.EyeAlignFraction >= 1 {
		return fmt.Errorf("crop.eye_align_fraction must be between 0 and 1 exclusive")
	}

	if c.Crop.PaddingRatio < 0 {
		return fmt.Errorf("crop.padding_ratio must not be negative")
	}

	switch c.Detector.Backend {
	case "pigo":
		if c.Detector.FaceCascade == "" || c.Detector.PupilCascade == "" {
			return fmt.Errorf("detector.face_cascade and detector.pupil_cascade are required for the pigo backend")
		}
	case "ollama":
		if c.Detector.OllamaURL == "" || c.Detector.OllamaModel == "" {
			return fmt.Errorf("detector.ollama_url and detector.ollama_model are required for the ollama backend")
		}
	case "llamacpp":
		if c.Detector.LlamaCppURL == "" || c.Detector.LlamaCppModel == "" {
			return fmt.Errorf("detector.llamacpp_url and detector.llamacpp_model are required for the llamacpp backend")
		}
	default:
		return fmt.Errorf("detector.backend must be one of pigo, ollama, llamacpp, got %q", c.Detector.Backend)
	}

	switch c.Output.Format {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be one of jpg, jpeg, png, webp, got %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}

	return nil
}

// CropSettings converts the crop section to the geometry type used by the
// alignment code.
func (c *Config) CropSettings() types.CropConfig {
	return types.CropConfig{
		TargetWidth:      c.Crop.TargetWidth,
		TargetHeight:     c.Crop.TargetHeight,
		EyeAlignFraction: c.Crop.EyeAlignFraction,
		PaddingRatio:     c.Crop.PaddingRatio,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "idphoto", "config.json")
}
