package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/providers/llm"
	"github.com/callsight/callsight/internal/providers/stt"
	"github.com/callsight/callsight/internal/utils"
)

type fakeCallRepo struct {
	calls      map[string]*models.Call
	byExternal map[string]*models.Call
	insertErr  error
	updateErr  error
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{
		calls:      map[string]*models.Call{},
		byExternal: map[string]*models.Call{},
	}
}

func externalKey(companyID, externalID string) string {
	return companyID + "/" + externalID
}

func (f *fakeCallRepo) Insert(_ context.Context, call *models.Call) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if call.ExternalCallID != nil {
		key := externalKey(call.CompanyID, *call.ExternalCallID)
		if _, ok := f.byExternal[key]; ok {
			return utils.ErrAlreadyProcessed
		}
		f.byExternal[key] = call
	}
	f.calls[call.ID] = call
	return nil
}

func (f *fakeCallRepo) GetByID(_ context.Context, id string) (*models.Call, error) {
	if c, ok := f.calls[id]; ok {
		return c, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeCallRepo) GetByExternalID(_ context.Context, companyID, externalID string) (*models.Call, error) {
	if c, ok := f.byExternal[externalKey(companyID, externalID)]; ok {
		return c, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeCallRepo) UpdateAnalysis(_ context.Context, call *models.Call) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.calls[call.ID] = call
	return nil
}

func (f *fakeCallRepo) ListOlderThan(_ context.Context, cutoff time.Time) ([]models.Call, error) {
	var out []models.Call
	for _, c := range f.calls {
		if c.CallDate.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCallRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.calls[id]; ok {
			delete(f.calls, id)
			n++
		}
	}
	return n, nil
}

type fakeResultRepo struct {
	rows      []models.CallCriterionResult
	insertErr error
	deleteErr error
}

func (f *fakeResultRepo) BulkInsert(_ context.Context, results []models.CallCriterionResult) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, results...)
	return nil
}

func (f *fakeResultRepo) ListByCall(_ context.Context, callID string) ([]models.CallCriterionResult, error) {
	var out []models.CallCriterionResult
	for _, r := range f.rows {
		if r.CallID == callID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResultRepo) DeleteByCallIDs(_ context.Context, callIDs []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	keep := f.rows[:0]
	for _, r := range f.rows {
		matched := false
		for _, id := range callIDs {
			if r.CallID == id {
				matched = true
				break
			}
		}
		if !matched {
			keep = append(keep, r)
		}
	}
	f.rows = keep
	return nil
}

type fakeAgentRepo struct {
	agents map[string]*models.Agent
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id string) (*models.Agent, error) {
	if a, ok := f.agents[id]; ok {
		return a, nil
	}
	return nil, utils.ErrNotFound
}

type fakeTranscriptRepo struct {
	docs      map[string]*models.TranscriptDoc
	upsertErr error
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{docs: map[string]*models.TranscriptDoc{}}
}

func (f *fakeTranscriptRepo) Upsert(_ context.Context, doc *models.TranscriptDoc) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.docs[doc.CallID] = doc
	return nil
}

func (f *fakeTranscriptRepo) GetByCallID(_ context.Context, callID string) (*models.TranscriptDoc, error) {
	if d, ok := f.docs[callID]; ok {
		return d, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeTranscriptRepo) DeleteByCallIDs(_ context.Context, callIDs []string) (int64, error) {
	var n int64
	for _, id := range callIDs {
		if _, ok := f.docs[id]; ok {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

// failingAnalyzer simulates an unreachable model backend.
type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, string, []llm.CriterionInput) (*llm.Analysis, error) {
	return nil, errors.New("model backend unreachable")
}

func (failingAnalyzer) Close() error { return nil }

type pipelineFixture struct {
	calls       *fakeCallRepo
	results     *fakeResultRepo
	alerts      *fakeAlertRepo
	transcripts *fakeTranscriptRepo
	svc         PipelineService
}

func newPipelineFixture(t *testing.T, analyzer llm.Analyzer) *pipelineFixture {
	t.Helper()
	lg := testLogger()

	calls := newFakeCallRepo()
	results := &fakeResultRepo{}
	alerts := &fakeAlertRepo{}
	transcripts := newFakeTranscriptRepo()
	agents := &fakeAgentRepo{agents: map[string]*models.Agent{
		"agent-1": {ID: "agent-1", CompanyID: "co-1", Name: "Ana", CustomRoleName: "Suporte"},
	}}
	criteria := seedCriteria()

	if analyzer == nil {
		analyzer = llm.NewKeyword()
	}

	svc := NewPipelineService(PipelineDeps{
		Calls:       calls,
		Agents:      agents,
		Results:     results,
		Alerts:      alerts,
		Transcripts: transcripts,
		Criteria:    NewCriteriaService(criteria, nil, time.Minute, lg),
		Transcriber: NewTranscriptionService(stt.NewScripted(), time.Second, lg),
		Analyzer:    NewAnalysisService(analyzer, []string{"cancelar", "procon"}, time.Second, lg),
		AlertEngine: NewAlertService(alerts, 5.0, 1800, lg),
		Resolver:    nil,
		Notifier:    NopNotifier{},
		Logger:      lg,
	})

	return &pipelineFixture{
		calls:       calls,
		results:     results,
		alerts:      alerts,
		transcripts: transcripts,
		svc:         svc,
	}
}

func baseInput() PipelineInput {
	ext := "ext-1"
	return PipelineInput{
		CompanyID:       "co-1",
		AgentID:         "agent-1",
		PhoneNumber:     "+5511999990000",
		Direction:       models.DirectionInbound,
		DurationSeconds: 180,
		ExternalCallID:  &ext,
	}
}

func TestProcessCompletesWithoutAudio(t *testing.T) {
	f := newPipelineFixture(t, nil)

	out, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.CallID)
	assert.NotEmpty(t, out.Transcription)
	assert.NotEmpty(t, out.Summary)
	assert.GreaterOrEqual(t, out.FinalScore, 3.0)
	assert.LessOrEqual(t, out.FinalScore, 10.0)
	assert.Empty(t, out.Errors)
	assert.False(t, out.AlreadyProcessed)

	// suporte agent resolves the "all" criterion plus the Suporte one
	require.Len(t, out.CriteriaResults, 2)
	for _, r := range out.CriteriaResults {
		assert.Equal(t, out.CallID, r.CallID)
		assert.NotEmpty(t, r.Justification)
	}

	// call row carries the analysis
	stored, err := f.calls.GetByID(context.Background(), out.CallID)
	require.NoError(t, err)
	require.NotNil(t, stored.FinalScore)
	assert.Equal(t, out.FinalScore, *stored.FinalScore)
	assert.NotNil(t, stored.ProcessedAt)

	// transcript document mirrors the call
	doc, err := f.transcripts.GetByCallID(context.Background(), out.CallID)
	require.NoError(t, err)
	assert.Equal(t, "scripted", doc.Provider)
	assert.Equal(t, out.Transcription, doc.Text)
}

func TestProcessDegradesWhenAnalyzerFails(t *testing.T) {
	f := newPipelineFixture(t, failingAnalyzer{})

	out, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	// fallback still yields a full evaluation
	assert.Len(t, out.CriteriaResults, 2)
	assert.GreaterOrEqual(t, out.FinalScore, 3.0)
	assert.LessOrEqual(t, out.FinalScore, 10.0)
	assert.NotEmpty(t, out.Summary)
	assert.NotEmpty(t, out.NextStepRecommendation)
}

func TestProcessDuplicateReturnsExistingResult(t *testing.T) {
	f := newPipelineFixture(t, nil)

	first, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	second, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.CallID, second.CallID)
	assert.Equal(t, first.FinalScore, second.FinalScore)
	assert.Len(t, f.calls.calls, 1)
}

func TestProcessInsertFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.calls.insertErr = errors.New("connection refused")

	_, err := f.svc.Process(context.Background(), baseInput())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
	assert.ErrorIs(t, err, utils.ErrStoreUnavailable)
}

func TestProcessAnalysisUpdateFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.calls.updateErr = errors.New("connection refused")

	_, err := f.svc.Process(context.Background(), baseInput())
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}

func TestProcessResultPersistFailureIsPartial(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.results.insertErr = errors.New("connection refused")

	out, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0], "criterion results")
	assert.GreaterOrEqual(t, out.FinalScore, 3.0)
}

func TestProcessTranscriptDocFailureIsPartial(t *testing.T) {
	f := newPipelineFixture(t, nil)
	f.transcripts.upsertErr = errors.New("mongo down")

	out, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0], "transcript doc")
}

func TestProcessValidatesInput(t *testing.T) {
	f := newPipelineFixture(t, nil)

	_, err := f.svc.Process(context.Background(), PipelineInput{AgentID: "agent-1"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	in := baseInput()
	in.DurationSeconds = -5
	_, err = f.svc.Process(context.Background(), in)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	in = baseInput()
	in.Direction = "sideways"
	_, err = f.svc.Process(context.Background(), in)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestProcessUnknownAgentStillCompletes(t *testing.T) {
	f := newPipelineFixture(t, nil)

	in := baseInput()
	in.AgentID = "ghost-agent"
	out, err := f.svc.Process(context.Background(), in)
	require.NoError(t, err)

	// no category filter: all three active criteria of the company apply
	assert.Len(t, out.CriteriaResults, 3)
}

func TestResultReturnsPersistedAggregate(t *testing.T) {
	f := newPipelineFixture(t, nil)

	processed, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	got, err := f.svc.Result(context.Background(), "co-1", processed.CallID)
	require.NoError(t, err)

	assert.Equal(t, processed.CallID, got.CallID)
	assert.Equal(t, processed.FinalScore, got.FinalScore)
	assert.Equal(t, processed.Transcription, got.Transcription)
	assert.Len(t, got.CriteriaResults, len(processed.CriteriaResults))
}

func TestResultEnforcesTenancy(t *testing.T) {
	f := newPipelineFixture(t, nil)

	processed, err := f.svc.Process(context.Background(), baseInput())
	require.NoError(t, err)

	_, err = f.svc.Result(context.Background(), "co-2", processed.CallID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = f.svc.Result(context.Background(), "co-1", "missing-call")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
