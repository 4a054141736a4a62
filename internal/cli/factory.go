// Package cli holds the logic behind the ivctl commands: controller
// assembly from flags and terminal-aware output formatting.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ivctl "github.com/optolab/ivctl"
	"github.com/optolab/ivctl/internal/calibration"
	"github.com/optolab/ivctl/internal/logging"
	"github.com/optolab/ivctl/pkg/adapters/csvsink"
	"github.com/optolab/ivctl/pkg/adapters/fsrepo"
	"github.com/optolab/ivctl/pkg/domain"
)

// Config are the bench settings shared by all commands.
type Config struct {
	ProtocolDir     string
	ResultsDir      string
	CalibrationFile string
	Verbose         bool
}

// BuildController assembles a Controller from the CLI configuration.
func BuildController(cfg Config) (*ivctl.Controller, error) {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	opts := []ivctl.Option{
		ivctl.WithRepository(fsrepo.New(cfg.ProtocolDir)),
		ivctl.WithResultSink(csvsink.New(cfg.ResultsDir)),
		ivctl.WithLogger(logger),
	}

	if cfg.CalibrationFile != "" {
		cal, err := loadCalibration(cfg.CalibrationFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ivctl.WithCalibration(cal))
	}
	return ivctl.New(opts...), nil
}

// loadCalibration reads a YAML list of {current, irradiance} samples.
func loadCalibration(path string) (*calibration.Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}
	var curve domain.CalibrationCurve
	if err := yaml.Unmarshal(raw, &curve); err != nil {
		return nil, fmt.Errorf("parse calibration file %s: %w", path, err)
	}
	m, err := calibration.New(curve)
	if err != nil {
		return nil, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return m, nil
}
