package ports

import (
	"context"

	"github.com/optolab/ivctl/pkg/domain"
)

// ResultSink persists measurement data captured during a run. The data/save
// action drives it; the core never touches file formats directly.
type ResultSink interface {
	// Save writes the sweep under the given name and returns a locator for
	// the written artifact (e.g. a file path).
	Save(ctx context.Context, name string, result domain.SweepResult) (string, error)
}
