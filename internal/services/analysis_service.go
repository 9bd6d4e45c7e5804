package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/providers/llm"
)

// AnalysisService evaluates a transcript against the applicable criteria.
// Risk detection is always local and deterministic; the evaluation itself
// delegates to the injected analyzer and degrades to the keyword fallback on
// failure, so analysis never aborts a call.
type AnalysisService interface {
	Analyze(ctx context.Context, transcript string, criteria []models.Criterion) (*llm.Analysis, []string)
}

type analysisService struct {
	analyzer  llm.Analyzer
	fallback  *llm.Keyword
	riskWords []string
	timeout   time.Duration
	log       *logrus.Logger
}

func NewAnalysisService(analyzer llm.Analyzer, riskWords []string, timeout time.Duration, log *logrus.Logger) AnalysisService {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &analysisService{
		analyzer:  analyzer,
		fallback:  llm.NewKeyword(),
		riskWords: riskWords,
		timeout:   timeout,
		log:       log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, transcript string, criteria []models.Criterion) (*llm.Analysis, []string) {
	inputs := make([]llm.CriterionInput, len(criteria))
	for i, c := range criteria {
		inputs[i] = llm.CriterionInput{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Weight:      c.Weight,
		}
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(cctx, transcript, inputs)
	if err != nil {
		s.log.WithError(err).Warn("analysis backend failed, using keyword fallback")
		analysis, _ = s.fallback.Analyze(ctx, transcript, inputs) // keyword never errors
	}

	return analysis, DetectRiskWords(transcript, s.riskWords)
}
