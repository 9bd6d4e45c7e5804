package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/callsight/callsight/internal/audio"
	"github.com/callsight/callsight/internal/metrics"
	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/providers/llm"
	"github.com/callsight/callsight/internal/providers/stt"
	mongorepo "github.com/callsight/callsight/internal/repositories/mongo"
	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
	"github.com/callsight/callsight/internal/utils"
)

// Pipeline stages, in execution order.
const (
	StageCreated          = "created"
	StageAudioResolved    = "audio_resolved"
	StageTranscribed      = "transcribed"
	StageCriteriaResolved = "criteria_resolved"
	StageAnalyzed         = "analyzed"
	StageScored           = "scored"
	StagePersisted        = "persisted"
	StageAlertsEmitted    = "alerts_emitted"
	StageDone             = "done"
)

type PipelineInput struct {
	CompanyID       string               `json:"company_id"`
	AgentID         string               `json:"agent_id"`
	PhoneNumber     string               `json:"phone_number"`
	Direction       models.CallDirection `json:"direction"`
	DurationSeconds int                  `json:"duration_seconds"`
	AudioReference  *string              `json:"audio_reference,omitempty"` // already in the object store
	AudioURL        *string              `json:"audio_url,omitempty"`       // remote recording to download
	ExternalCallID  *string              `json:"external_call_id,omitempty"`
	Language        string               `json:"language,omitempty"`
}

// ProcessedCall is the consolidated pipeline result handed to the HTTP layer.
type ProcessedCall struct {
	CallID                  string                       `json:"call_id"`
	Transcription           string                       `json:"transcription"`
	TranscriptionTimestamps []models.TranscriptSegment   `json:"transcription_timestamps"`
	Summary                 string                       `json:"summary"`
	NextStepRecommendation  string                       `json:"next_step_recommendation"`
	FinalScore              float64                      `json:"final_score"`
	ScoreJustification      string                       `json:"score_justification"`
	WhatWentWell            []models.Remark              `json:"what_went_well"`
	WhatWentWrong           []models.Remark              `json:"what_went_wrong"`
	RiskWordsDetected       []string                     `json:"risk_words_detected"`
	CriteriaResults         []models.CallCriterionResult `json:"criteria_results"`
	AlertsGenerated         []models.Alert               `json:"alerts_generated"`
	AlreadyProcessed        bool                         `json:"already_processed,omitempty"`
	Errors                  []string                     `json:"errors,omitempty"`
}

type PipelineService interface {
	Process(ctx context.Context, in PipelineInput) (*ProcessedCall, error)
	Result(ctx context.Context, companyID, callID string) (*ProcessedCall, error)
}

type pipelineService struct {
	calls       pgrepo.CallRepository
	agents      pgrepo.AgentRepository
	results     pgrepo.ResultRepository
	alertRepo   pgrepo.AlertRepository
	transcripts mongorepo.TranscriptRepository
	criteria    CriteriaService
	transcriber TranscriptionService
	analyzer    AnalysisService
	alerts      AlertService
	resolver    *audio.Resolver
	notifier    Notifier
	language    string
	log         *logrus.Logger
}

type PipelineDeps struct {
	Calls       pgrepo.CallRepository
	Agents      pgrepo.AgentRepository
	Results     pgrepo.ResultRepository
	Alerts      pgrepo.AlertRepository
	Transcripts mongorepo.TranscriptRepository
	Criteria    CriteriaService
	Transcriber TranscriptionService
	Analyzer    AnalysisService
	AlertEngine AlertService
	Resolver    *audio.Resolver
	Notifier    Notifier
	Language    string
	Logger      *logrus.Logger
}

func NewPipelineService(d PipelineDeps) PipelineService {
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Language == "" {
		d.Language = "pt-BR"
	}
	return &pipelineService{
		calls:       d.Calls,
		agents:      d.Agents,
		results:     d.Results,
		alertRepo:   d.Alerts,
		transcripts: d.Transcripts,
		criteria:    d.Criteria,
		transcriber: d.Transcriber,
		analyzer:    d.Analyzer,
		alerts:      d.AlertEngine,
		resolver:    d.Resolver,
		notifier:    d.Notifier,
		language:    d.Language,
		log:         d.Logger,
	}
}

func (s *pipelineService) Process(ctx context.Context, in PipelineInput) (*ProcessedCall, error) {
	const op = "PipelineService.Process"

	if in.CompanyID == "" || in.AgentID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id and agent_id are required", nil)
	}
	if in.DurationSeconds < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "duration_seconds must not be negative", nil)
	}
	switch in.Direction {
	case models.DirectionInbound, models.DirectionOutbound, models.DirectionMeeting:
	case "":
		in.Direction = models.DirectionInbound
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown call direction", nil)
	}

	log := s.log.WithFields(logrus.Fields{
		"company_id": in.CompanyID,
		"agent_id":   in.AgentID,
	})

	// Created — the only stage whose failure leaves nothing to report.
	now := time.Now().UTC()
	call := &models.Call{
		ID:              uuid.NewString(),
		CompanyID:       in.CompanyID,
		AgentID:         in.AgentID,
		ExternalCallID:  in.ExternalCallID,
		PhoneNumber:     in.PhoneNumber,
		Direction:       in.Direction,
		DurationSeconds: in.DurationSeconds,
		AudioReference:  in.AudioReference,
		CallDate:        now,
		CreatedAt:       now,
	}
	if err := s.calls.Insert(ctx, call); err != nil {
		if errors.Is(err, utils.ErrAlreadyProcessed) && in.ExternalCallID != nil {
			existing, gerr := s.calls.GetByExternalID(ctx, in.CompanyID, *in.ExternalCallID)
			if gerr == nil {
				log.WithField("call_id", existing.ID).Info("duplicate webhook delivery, returning existing result")
				metrics.CallsProcessed.WithLabelValues("duplicate").Inc()
				return s.assemble(ctx, existing, true)
			}
		}
		metrics.CallsProcessed.WithLabelValues("failed").Inc()
		return nil, utils.E(utils.CodeUnavailable, op, "failed to create call record",
			fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err))
	}
	log = log.WithField("call_id", call.ID)
	s.notifier.Publish(ctx, call.ID, StageCreated, "")

	var stageErrs []string

	// AudioResolved — non-fatal: without audio the scripted fallback runs.
	stop := stageTimer(StageAudioResolved)
	audioBytes := s.resolveAudio(ctx, call, in, log, &stageErrs)
	stop()
	s.notifier.Publish(ctx, call.ID, StageAudioResolved, "")

	// Transcribed
	stop = stageTimer(StageTranscribed)
	res := s.transcriber.Transcribe(ctx, stt.Request{
		Audio:           audioBytes,
		Language:        in.Language,
		DurationSeconds: in.DurationSeconds,
	})
	stop()
	segments := toModelSegments(res.Segments)
	s.storeTranscript(ctx, call, res, segments, log, &stageErrs)
	s.notifier.Publish(ctx, call.ID, StageTranscribed, res.Provider)

	// CriteriaResolved — store failure is fatal here.
	stop = stageTimer(StageCriteriaResolved)
	category := s.agentCategory(ctx, in.AgentID, log)
	crits, err := s.criteria.Select(ctx, in.CompanyID, category)
	stop()
	if err != nil {
		metrics.CallsProcessed.WithLabelValues("failed").Inc()
		return nil, err
	}
	s.notifier.Publish(ctx, call.ID, StageCriteriaResolved, fmt.Sprintf("%d criteria", len(crits)))

	// Analyzed
	stop = stageTimer(StageAnalyzed)
	analysis, riskWords := s.analyzer.Analyze(ctx, res.Text, crits)
	stop()
	s.notifier.Publish(ctx, call.ID, StageAnalyzed, "")

	// Scored
	weighted := make([]WeightedResult, len(crits))
	for i := range crits {
		weighted[i] = WeightedResult{Passed: analysis.Verdicts[i].Passed, Weight: crits[i].Weight}
	}
	score, justification := AggregateScore(weighted, riskWords)
	s.notifier.Publish(ctx, call.ID, StageScored, fmt.Sprintf("%.1f", score))

	// Persisted — analysis fields first, then per-criterion results; alerts
	// read the derived fields so this must complete before they run.
	processedAt := time.Now().UTC()
	call.Transcript = &res.Text
	call.TranscriptSegments = segments
	call.Summary = analysis.Summary
	call.NextStep = analysis.NextStep
	call.FinalScore = &score
	call.ScoreJustification = justification
	call.WhatWentWell = toRemarks(analysis.WentWell)
	call.WhatWentWrong = toRemarks(analysis.WentWrong)
	call.RiskWords = riskWords
	call.ProviderMetadata = providerMetadata(res.Provider, analysis.Raw)
	call.ProcessedAt = &processedAt

	stop = stageTimer(StagePersisted)
	if err := s.calls.UpdateAnalysis(ctx, call); err != nil {
		stop()
		metrics.CallsProcessed.WithLabelValues("failed").Inc()
		return nil, utils.E(utils.CodeUnavailable, op, "failed to persist analysis",
			fmt.Errorf("%w: %v", utils.ErrStoreUnavailable, err))
	}
	crResults := make([]models.CallCriterionResult, len(crits))
	for i := range crits {
		v := analysis.Verdicts[i]
		crResults[i] = models.CallCriterionResult{
			ID:            uuid.NewString(),
			CallID:        call.ID,
			CriterionID:   crits[i].ID,
			Passed:        v.Passed,
			Justification: v.Justification,
		}
		if v.TimestampRef != "" {
			ts := v.TimestampRef
			crResults[i].TimestampRef = &ts
		}
	}
	if err := s.results.BulkInsert(ctx, crResults); err != nil {
		log.WithError(err).Warn("criterion results not persisted")
		stageErrs = append(stageErrs, fmt.Sprintf("criterion results: %v", err))
	}
	stop()
	s.notifier.Publish(ctx, call.ID, StagePersisted, "")

	// AlertsEmitted — each rule independent, partial failures collected.
	stop = stageTimer(StageAlertsEmitted)
	alerts, alertErrs := s.alerts.Derive(ctx, call)
	stop()
	stageErrs = append(stageErrs, alertErrs...)
	s.notifier.Publish(ctx, call.ID, StageAlertsEmitted, fmt.Sprintf("%d alerts", len(alerts)))

	// Done
	metrics.CallsProcessed.WithLabelValues("completed").Inc()
	metrics.FinalScore.Observe(score)
	s.notifier.Publish(ctx, call.ID, StageDone, "")
	log.WithFields(logrus.Fields{
		"final_score": score,
		"alerts":      len(alerts),
		"risk_words":  len(riskWords),
	}).Info("call processed")

	return &ProcessedCall{
		CallID:                  call.ID,
		Transcription:           res.Text,
		TranscriptionTimestamps: segments,
		Summary:                 analysis.Summary,
		NextStepRecommendation:  analysis.NextStep,
		FinalScore:              score,
		ScoreJustification:      justification,
		WhatWentWell:            call.WhatWentWell,
		WhatWentWrong:           call.WhatWentWrong,
		RiskWordsDetected:       riskWords,
		CriteriaResults:         crResults,
		AlertsGenerated:         alerts,
		Errors:                  stageErrs,
	}, nil
}

// Result loads the consolidated aggregate for an already-processed call.
func (s *pipelineService) Result(ctx context.Context, companyID, callID string) (*ProcessedCall, error) {
	const op = "PipelineService.Result"

	if companyID == "" || callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company_id and call_id are required", nil)
	}
	call, err := s.calls.GetByID(ctx, callID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "call not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load call", err)
	}
	if call.CompanyID != companyID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return s.assemble(ctx, call, false)
}

func (s *pipelineService) assemble(ctx context.Context, call *models.Call, duplicate bool) (*ProcessedCall, error) {
	const op = "PipelineService.assemble"

	crResults, err := s.results.ListByCall(ctx, call.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load criterion results", err)
	}
	alerts, err := s.alertRepo.ListByCall(ctx, call.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load alerts", err)
	}

	out := &ProcessedCall{
		CallID:                  call.ID,
		TranscriptionTimestamps: call.TranscriptSegments,
		Summary:                 call.Summary,
		NextStepRecommendation:  call.NextStep,
		ScoreJustification:      call.ScoreJustification,
		WhatWentWell:            call.WhatWentWell,
		WhatWentWrong:           call.WhatWentWrong,
		RiskWordsDetected:       call.RiskWords,
		CriteriaResults:         crResults,
		AlertsGenerated:         alerts,
		AlreadyProcessed:        duplicate,
	}
	if call.Transcript != nil {
		out.Transcription = *call.Transcript
	}
	if call.FinalScore != nil {
		out.FinalScore = *call.FinalScore
	}
	return out, nil
}

// resolveAudio makes the recording bytes available, downloading the remote
// recording first when needed. Every failure is degraded.
func (s *pipelineService) resolveAudio(ctx context.Context, call *models.Call, in PipelineInput, log *logrus.Entry, stageErrs *[]string) []byte {
	if call.AudioReference == nil && in.AudioURL != nil {
		objectName := fmt.Sprintf("calls/%s/%s.audio", in.CompanyID, call.ID)
		stored, err := s.resolver.Fetch(ctx, *in.AudioURL, objectName)
		if err != nil {
			log.WithError(err).Warn("audio download failed, continuing without recording")
			*stageErrs = append(*stageErrs, fmt.Sprintf("audio download: %v", err))
		} else {
			call.AudioReference = &stored
		}
	}
	if call.AudioReference == nil {
		return nil
	}
	b, err := s.resolver.Load(ctx, *call.AudioReference)
	if err != nil {
		log.WithError(err).Warn("stored audio unreadable, continuing without recording")
		*stageErrs = append(*stageErrs, fmt.Sprintf("audio read: %v", err))
		return nil
	}
	return b
}

func (s *pipelineService) storeTranscript(ctx context.Context, call *models.Call, res *stt.Result, segments []models.TranscriptSegment, log *logrus.Entry, stageErrs *[]string) {
	if s.transcripts == nil {
		return
	}
	doc := &models.TranscriptDoc{
		CallID:    call.ID,
		CompanyID: call.CompanyID,
		Provider:  res.Provider,
		Text:      res.Text,
		Segments:  segments,
		Raw:       res.Raw,
	}
	if err := s.transcripts.Upsert(ctx, doc); err != nil {
		log.WithError(err).Warn("transcript document not stored")
		*stageErrs = append(*stageErrs, fmt.Sprintf("transcript doc: %v", err))
	}
}

// agentCategory resolves the agent's free-text category; a missing or
// unreadable agent just means no category filter.
func (s *pipelineService) agentCategory(ctx context.Context, agentID string, log *logrus.Entry) *string {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		if !errors.Is(err, utils.ErrNotFound) {
			log.WithError(err).Warn("agent lookup failed, selecting criteria without category")
		}
		return nil
	}
	if strings.TrimSpace(agent.CustomRoleName) == "" {
		return nil
	}
	category := agent.CustomRoleName
	return &category
}

func toModelSegments(in []stt.Segment) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, len(in))
	for i, seg := range in {
		out[i] = models.TranscriptSegment{Speaker: seg.Speaker, Text: seg.Text, Offset: seg.Offset}
	}
	return out
}

func toRemarks(in []llm.Observation) []models.Remark {
	out := make([]models.Remark, len(in))
	for i, o := range in {
		out[i] = models.Remark{Text: o.Text, Timestamp: o.Timestamp}
	}
	return out
}

func providerMetadata(sttProvider, analysisRaw string) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{
		"stt_provider": sttProvider,
		"analysis_raw": analysisRaw,
	})
	return datatypes.JSON(b)
}

func stageTimer(stage string) func() {
	t := prometheus.NewTimer(metrics.StageDuration.WithLabelValues(stage))
	return func() { t.ObserveDuration() }
}
