package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/optolab/ivctl/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "ivctl",
	Short: "ivctl drives IV characterization runs on an optoelectronic probe bench",
	Long: `ivctl orchestrates current-voltage measurements: a source-measure unit,
a relay multiplexer, and YAML protocols describing the sequence. Without
real instrument transports it runs against a physics-based mock bench.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("protocols", "protocols", "Directory containing protocol YAML files")
	rootCmd.PersistentFlags().String("results", "results", "Directory for saved measurement data")
	rootCmd.PersistentFlags().String("calibration", "", "YAML file with current/irradiance calibration samples")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func logLevelFromFlags(cmd *cobra.Command) slog.Level {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func configFromFlags(cmd *cobra.Command) cli.Config {
	protocols, _ := cmd.Flags().GetString("protocols")
	results, _ := cmd.Flags().GetString("results")
	calibrationFile, _ := cmd.Flags().GetString("calibration")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return cli.Config{
		ProtocolDir:     protocols,
		ResultsDir:      results,
		CalibrationFile: calibrationFile,
		Verbose:         verbose,
	}
}
