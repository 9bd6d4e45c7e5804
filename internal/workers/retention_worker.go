package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/services"
)

// RetentionWorker runs the retention sweep once at startup and then on a
// fixed interval until the context is cancelled.
type RetentionWorker struct {
	Retention services.RetentionService
	Interval  time.Duration
	Logger    *logrus.Logger
}

func (w *RetentionWorker) Start(ctx context.Context) error {
	if w.Retention == nil {
		return errors.New("RetentionWorker missing dependency: Retention must be set")
	}
	if w.Interval <= 0 {
		w.Interval = 24 * time.Hour
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}

	go func() {
		w.sweep(ctx)

		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.sweep(ctx)
			}
		}
	}()
	return nil
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	report, err := w.Retention.Sweep(ctx)
	if err != nil {
		w.Logger.WithError(err).Error("retention sweep failed")
		return
	}
	if len(report.Errors) > 0 {
		w.Logger.WithFields(logrus.Fields{
			"deleted": report.DeletedCount,
			"errors":  report.Errors,
		}).Warn("retention sweep finished with errors")
	}
}
