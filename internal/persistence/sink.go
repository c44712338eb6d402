package persistence

import (
	"context"
	"errors"

	"github.com/spec-kit/tokenchain/internal/domain"
)

// Sink receives the raw JSON body of a stage.
type Sink interface {
	Save(ctx context.Context, payload domain.StagePayload) error
}

// MultiSink writes to every sink and joins their errors.
type MultiSink []Sink

// Save implements Sink.
func (m MultiSink) Save(ctx context.Context, payload domain.StagePayload) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
