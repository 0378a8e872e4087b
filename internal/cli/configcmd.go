package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/idphoto/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.Default().SaveToFile(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Printf("Crop: %dx%d, eye line at %.3f, padding %.3f\n",
			cfg.Crop.TargetWidth, cfg.Crop.TargetHeight, cfg.Crop.EyeAlignFraction, cfg.Crop.PaddingRatio)
		fmt.Printf("Detector: %s\n", cfg.Detector.Backend)
		fmt.Printf("Output: %s quality %d annotate=%v\n", cfg.Output.Format, cfg.Output.Quality, cfg.Output.Annotate)
		fmt.Printf("Batch: %d workers\n", cfg.Batch.Workers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
