// Package persistence saves survey results: every rating trial as soon as
// it ends, and one aggregate record when the participant completes the run.
package persistence

import (
	"context"
	"errors"

	"facerate-go/internal/models"

	"go.uber.org/zap"
)

// Store appends records to the two result collections. Implementations
// stamp ServerTimestamp at write time.
type Store interface {
	AppendTrial(ctx context.Context, tr *models.TrialResult) error
	AppendSession(ctx context.Context, sp *models.SessionPayload) error
}

// Multi writes to every store and joins their errors.
type Multi []Store

func (m Multi) AppendTrial(ctx context.Context, tr *models.TrialResult) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendTrial(ctx, tr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) AppendSession(ctx context.Context, sp *models.SessionPayload) error {
	var errs []error
	for _, s := range m {
		if err := s.AppendSession(ctx, sp); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Mirror wraps a secondary store whose failures are logged but never reported
// to the caller, so an outage there cannot fail a participant's save.
type Mirror struct {
	Store Store
	Log   *zap.Logger
}

func (m Mirror) AppendTrial(ctx context.Context, tr *models.TrialResult) error {
	if err := m.Store.AppendTrial(ctx, tr); err != nil {
		m.Log.Warn("Mirror write failed", zap.String("collection", models.StreamCollection), zap.Error(err))
	}
	return nil
}

func (m Mirror) AppendSession(ctx context.Context, sp *models.SessionPayload) error {
	if err := m.Store.AppendSession(ctx, sp); err != nil {
		m.Log.Warn("Mirror write failed", zap.String("collection", models.AggregateCollection), zap.Error(err))
	}
	return nil
}
