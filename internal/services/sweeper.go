package services

import (
	"context"
	"time"

	"hospital-booking-server/internal/apperrors"
	"hospital-booking-server/internal/logging"
	"hospital-booking-server/internal/metrics"
)

// CompletionSweeper marks approved appointments whose slot has ended as COMPLETED.
// It is an administrative job and bypasses the role-gated transitions.
type CompletionSweeper struct {
	store   AppointmentStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewCompletionSweeper wires a sweeper.
func NewCompletionSweeper(store AppointmentStore, m *metrics.Metrics, now func() time.Time) *CompletionSweeper {
	return &CompletionSweeper{store: store, metrics: m, now: now}
}

// Run completes every elapsed approved appointment and returns how many changed.
func (s *CompletionSweeper) Run(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC()
	completed, err := s.store.CompleteElapsed(ctx, cutoff)
	if err != nil {
		return 0, apperrors.NewInternal("failed to complete elapsed appointments", err)
	}
	s.metrics.AppointmentsCompleted.Add(float64(completed))
	logging.FromContext(ctx).Info().Int64("completed", completed).Time("cutoff", cutoff).Msg("completion sweep finished")
	return completed, nil
}
