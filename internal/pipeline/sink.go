package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/station-telemetry-etl/internal/domain"
)

// Sink receives canonical modules in batches from the pipeline and one at a
// time from the computers.
type Sink interface {
	BatchLoader
	domain.Sink
}

// Fanout writes to every sink in order. A failing sink does not stop the
// others; their errors are joined.
type Fanout []Sink

func (f Fanout) LoadBatch(ctx context.Context, modules []domain.Module) error {
	var errs []error
	for _, s := range f {
		if err := s.LoadBatch(ctx, modules); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) WriteModule(ctx context.Context, m domain.Module) error {
	var errs []error
	for _, s := range f {
		if err := s.WriteModule(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
