// Package csvsink writes sweep results to timestamped CSV files.
package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/optolab/ivctl/pkg/domain"
)

// Sink implements ports.ResultSink, one file per save under the configured
// directory. Files are named <name>_<timestamp>.csv so repeated saves never
// overwrite each other.
type Sink struct {
	dir string
	now func() time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the timestamp source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) { s.now = now }
}

// New creates a Sink writing into dir, creating it if needed.
func New(dir string, opts ...Option) *Sink {
	s := &Sink{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes result as CSV and returns the file path.
func (s *Sink) Save(ctx context.Context, name string, result domain.SweepResult) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(s.dir,
		fmt.Sprintf("%s_%s.csv", name, s.now().UTC().Format("20060102T150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "voltage_v", "current_a"}); err != nil {
		return "", err
	}
	for _, p := range result.Results {
		record := []string{
			p.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Voltage, 'g', -1, 64),
			strconv.FormatFloat(p.Current, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
