package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/models"
)

type fakeAlertRepo struct {
	inserted []models.Alert
	failType models.AlertType
}

func (f *fakeAlertRepo) Insert(_ context.Context, a *models.Alert) error {
	if f.failType != "" && a.Type == f.failType {
		return errors.New("insert failed")
	}
	f.inserted = append(f.inserted, *a)
	return nil
}

func (f *fakeAlertRepo) ListByCall(context.Context, string) ([]models.Alert, error) {
	return f.inserted, nil
}

func (f *fakeAlertRepo) ListByCompany(context.Context, string, bool, int) ([]models.Alert, error) {
	return f.inserted, nil
}

func (f *fakeAlertRepo) MarkRead(context.Context, string, string) error { return nil }

func (f *fakeAlertRepo) DeleteByCallIDs(context.Context, []string) error { return nil }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func alertTypes(alerts []models.Alert) []models.AlertType {
	out := make([]models.AlertType, len(alerts))
	for i, a := range alerts {
		out[i] = a.Type
	}
	return out
}

func TestDeriveAllFourAlerts(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo, 5.0, 1800, testLogger())

	score := 4.0
	call := &models.Call{
		ID:              "call-1",
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		DurationSeconds: 2000,
		FinalScore:      &score,
		RiskWords:       []string{"cancelar"},
		NextStep:        "",
	}

	alerts, errs := svc.Derive(context.Background(), call)

	require.Empty(t, errs)
	require.Len(t, alerts, 4)
	assert.Equal(t, []models.AlertType{
		models.AlertLowScore,
		models.AlertRiskWords,
		models.AlertLongDuration,
		models.AlertNoNextStep,
	}, alertTypes(alerts))

	assert.Equal(t, "Call scored 4.0, below the 5.0 threshold", alerts[0].Message)
	assert.Equal(t, "Risk phrases detected: cancelar", alerts[1].Message)
	assert.Equal(t, "Call lasted 33 minutes", alerts[2].Message)
	assert.Equal(t, "No next step was recorded for this call", alerts[3].Message)

	for _, a := range alerts {
		assert.Equal(t, "co-1", a.CompanyID)
		assert.Equal(t, "call-1", a.CallID)
		assert.Equal(t, "agent-1", a.AgentID)
		assert.False(t, a.IsRead)
		assert.NotEmpty(t, a.ID)
	}
}

func TestDeriveNoAlertsOnCleanCall(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo, 5.0, 1800, testLogger())

	score := 8.5
	call := &models.Call{
		ID:              "call-2",
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		DurationSeconds: 300,
		FinalScore:      &score,
		NextStep:        "Send the refund confirmation by email within two business days.",
	}

	alerts, errs := svc.Derive(context.Background(), call)

	assert.Empty(t, alerts)
	assert.Empty(t, errs)
}

func TestDeriveThresholdsAreExclusive(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo, 5.0, 1800, testLogger())

	score := 5.0
	call := &models.Call{
		ID:              "call-3",
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		DurationSeconds: 1800,
		FinalScore:      &score,
		NextStep:        "Follow up with the customer about the billing adjustment.",
	}

	alerts, errs := svc.Derive(context.Background(), call)

	// score == threshold and duration == threshold trigger nothing
	assert.Empty(t, alerts)
	assert.Empty(t, errs)
}

func TestDeriveShortNextStepCountsAsMissing(t *testing.T) {
	repo := &fakeAlertRepo{}
	svc := NewAlertService(repo, 5.0, 1800, testLogger())

	score := 9.0
	call := &models.Call{
		ID:              "call-4",
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		DurationSeconds: 60,
		FinalScore:      &score,
		NextStep:        "   ok    ",
	}

	alerts, _ := svc.Derive(context.Background(), call)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertNoNextStep, alerts[0].Type)
}

func TestDerivePartialPersistFailure(t *testing.T) {
	repo := &fakeAlertRepo{failType: models.AlertRiskWords}
	svc := NewAlertService(repo, 5.0, 1800, testLogger())

	score := 4.0
	call := &models.Call{
		ID:              "call-5",
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		DurationSeconds: 2000,
		FinalScore:      &score,
		RiskWords:       []string{"procon"},
		NextStep:        "",
	}

	alerts, errs := svc.Derive(context.Background(), call)

	// the failed rule is reported, the other three still persist
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "alert risk_words")
	assert.Equal(t, []models.AlertType{
		models.AlertLowScore,
		models.AlertLongDuration,
		models.AlertNoNextStep,
	}, alertTypes(alerts))
}
