package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/metrics"
	"github.com/callsight/callsight/internal/models"
	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
)

// minNextStepLen is the trimmed length below which a next step counts as
// missing.
const minNextStepLen = 10

// AlertService derives and persists alerts from a processed call. Rules are
// independent: a persistence failure for one type is recorded and the rest
// still run.
type AlertService interface {
	Derive(ctx context.Context, call *models.Call) ([]models.Alert, []string)
}

type alertService struct {
	repo            pgrepo.AlertRepository
	lowScore        float64
	longCallSeconds int
	log             *logrus.Logger
}

func NewAlertService(repo pgrepo.AlertRepository, lowScoreThreshold float64, longCallThresholdSeconds int, log *logrus.Logger) AlertService {
	return &alertService{
		repo:            repo,
		lowScore:        lowScoreThreshold,
		longCallSeconds: longCallThresholdSeconds,
		log:             log,
	}
}

func (s *alertService) Derive(ctx context.Context, call *models.Call) ([]models.Alert, []string) {
	type rule struct {
		typ     models.AlertType
		trigger bool
		message string
	}

	rules := []rule{
		{
			typ:     models.AlertLowScore,
			trigger: call.FinalScore != nil && *call.FinalScore < s.lowScore,
			message: lowScoreMessage(call.FinalScore, s.lowScore),
		},
		{
			typ:     models.AlertRiskWords,
			trigger: len(call.RiskWords) > 0,
			message: "Risk phrases detected: " + strings.Join(call.RiskWords, ", "),
		},
		{
			typ:     models.AlertLongDuration,
			trigger: call.DurationSeconds > s.longCallSeconds,
			message: fmt.Sprintf("Call lasted %d minutes", int(math.Round(float64(call.DurationSeconds)/60))),
		},
		{
			typ:     models.AlertNoNextStep,
			trigger: len(strings.TrimSpace(call.NextStep)) < minNextStepLen,
			message: "No next step was recorded for this call",
		},
	}

	var (
		out  []models.Alert
		errs []string
	)
	for _, r := range rules {
		if !r.trigger {
			continue
		}
		alert := models.Alert{
			ID:        uuid.NewString(),
			CompanyID: call.CompanyID,
			CallID:    call.ID,
			AgentID:   call.AgentID,
			Type:      r.typ,
			Message:   r.message,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, &alert); err != nil {
			s.log.WithError(err).WithField("type", r.typ).Warn("alert persistence failed")
			errs = append(errs, fmt.Sprintf("alert %s: %v", r.typ, err))
			continue
		}
		metrics.AlertsEmitted.WithLabelValues(string(r.typ)).Inc()
		out = append(out, alert)
	}
	return out, errs
}

func lowScoreMessage(score *float64, threshold float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("Call scored %.1f, below the %.1f threshold", *score, threshold)
}
