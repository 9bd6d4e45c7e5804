package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/metrics"
	mongorepo "github.com/callsight/callsight/internal/repositories/mongo"
	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
	"github.com/callsight/callsight/internal/storage"
)

// SweepReport summarizes one retention pass.
type SweepReport struct {
	DeletedCount int64    `json:"deleted_count"`
	Errors       []string `json:"errors,omitempty"`
}

// RetentionService removes calls older than the retention window, together
// with their transcripts, criterion results, alerts and audio files. A failed
// audio or transcript delete is recorded and does not block the row delete;
// a failed child-row delete skips that call so no orphans are left behind.
type RetentionService interface {
	Sweep(ctx context.Context) (*SweepReport, error)
}

type retentionService struct {
	calls         pgrepo.CallRepository
	results       pgrepo.ResultRepository
	alerts        pgrepo.AlertRepository
	transcripts   mongorepo.TranscriptRepository
	store         storage.ObjectStore
	retentionDays int
	log           *logrus.Logger
}

func NewRetentionService(
	calls pgrepo.CallRepository,
	results pgrepo.ResultRepository,
	alerts pgrepo.AlertRepository,
	transcripts mongorepo.TranscriptRepository,
	store storage.ObjectStore,
	retentionDays int,
	log *logrus.Logger,
) RetentionService {
	if retentionDays <= 0 {
		retentionDays = 60
	}
	return &retentionService{
		calls:         calls,
		results:       results,
		alerts:        alerts,
		transcripts:   transcripts,
		store:         store,
		retentionDays: retentionDays,
		log:           log,
	}
}

func (s *retentionService) Sweep(ctx context.Context) (*SweepReport, error) {
	const op = "RetentionService.Sweep"

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	expired, err := s.calls.ListOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: list expired calls: %w", op, err)
	}
	report := &SweepReport{}
	if len(expired) == 0 {
		return report, nil
	}

	deletable := make([]string, 0, len(expired))
	for _, call := range expired {
		if call.AudioReference != nil && s.store != nil {
			if err := s.store.Delete(ctx, *call.AudioReference); err != nil {
				s.log.WithError(err).WithField("call_id", call.ID).Warn("audio delete failed")
				report.Errors = append(report.Errors, fmt.Sprintf("audio %s: %v", call.ID, err))
				metrics.RetentionErrors.Inc()
			}
		}
		deletable = append(deletable, call.ID)
	}

	if s.transcripts != nil {
		if _, err := s.transcripts.DeleteByCallIDs(ctx, deletable); err != nil {
			s.log.WithError(err).Warn("transcript delete failed")
			report.Errors = append(report.Errors, fmt.Sprintf("transcripts: %v", err))
			metrics.RetentionErrors.Inc()
		}
	}

	// Child rows must go before call rows.
	if err := s.results.DeleteByCallIDs(ctx, deletable); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("criterion results: %v", err))
		metrics.RetentionErrors.Inc()
		return report, fmt.Errorf("%s: delete criterion results: %w", op, err)
	}
	if err := s.alerts.DeleteByCallIDs(ctx, deletable); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("alerts: %v", err))
		metrics.RetentionErrors.Inc()
		return report, fmt.Errorf("%s: delete alerts: %w", op, err)
	}

	deleted, err := s.calls.DeleteByIDs(ctx, deletable)
	if err != nil {
		metrics.RetentionErrors.Inc()
		return report, fmt.Errorf("%s: delete calls: %w", op, err)
	}
	report.DeletedCount = deleted
	metrics.RetentionDeleted.Add(float64(deleted))

	s.log.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
		"errors":  len(report.Errors),
	}).Info("retention sweep finished")
	return report, nil
}
