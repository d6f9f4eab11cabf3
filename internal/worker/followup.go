package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebook/scheduling-api/internal/service/followup"
	apperrors "github.com/carebook/scheduling-api/pkg/errors"
	"github.com/carebook/scheduling-api/pkg/logger"
	"github.com/carebook/scheduling-api/pkg/metrics"
)

// FollowUpWorker runs the periodic reminder scan. Overlapping runs are safe:
// dispatch is idempotent at the store layer, so two scans picking up the same
// appointment send at most one email.
type FollowUpWorker struct {
	svc     *followup.Service
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewFollowUpWorker(svc *followup.Service, logger *logger.Logger, m *metrics.Metrics) *FollowUpWorker {
	return &FollowUpWorker{
		svc:     svc,
		logger:  logger,
		metrics: m,
	}
}

// Scan processes one batch of due reminders. Individual dispatch failures are
// logged and skipped; the appointment stays unsent and the next scan retries.
func (w *FollowUpWorker) Scan(ctx context.Context) error {
	timer := prometheus.NewTimer(w.metrics.ReminderScanLatency)
	defer timer.ObserveDuration()

	due, err := w.svc.DueReminders(ctx, nil)
	if err != nil {
		return err
	}
	w.metrics.RemindersDue.Set(float64(len(due)))

	if len(due) == 0 {
		return nil
	}

	w.logger.ZL.Info().Int("due", len(due)).Msg("dispatching due follow-up reminders")

	var dispatched, failed int
	for _, appt := range due {
		if err := w.svc.Dispatch(ctx, appt.ID); err != nil {
			if apperrors.IsCode(err, apperrors.ErrNotEligible) {
				// Follow-up was cleared between scan and dispatch.
				continue
			}
			failed++
			w.logger.ZL.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("failed to dispatch follow-up reminder")
			continue
		}
		dispatched++
	}

	w.logger.ZL.Info().
		Int("dispatched", dispatched).
		Int("failed", failed).
		Msg("follow-up scan finished")
	return nil
}

// Run drives Scan on a fixed interval until the context is cancelled. The
// cron-based worker in cmd/worker is the usual entry point; Run exists for
// embedded deployments.
func (w *FollowUpWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.ZL.Info().Msg("follow-up worker shutting down")
			return
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				w.logger.ZL.Error().Err(err).Msg("follow-up scan failed")
			}
		}
	}
}
