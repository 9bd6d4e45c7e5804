package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/providers/stt"
)

// TranscriptionService turns a call's audio (or its absence) into a
// transcript. It never fails: backend errors and timeouts degrade to the
// deterministic scripted transcript.
type TranscriptionService interface {
	Transcribe(ctx context.Context, req stt.Request) *stt.Result
}

type transcriptionService struct {
	provider stt.Provider // injected by the composition root; may itself be the scripted one
	fallback *stt.Scripted
	timeout  time.Duration
	log      *logrus.Logger
}

func NewTranscriptionService(provider stt.Provider, timeout time.Duration, log *logrus.Logger) TranscriptionService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &transcriptionService{
		provider: provider,
		fallback: stt.NewScripted(),
		timeout:  timeout,
		log:      log,
	}
}

func (s *transcriptionService) Transcribe(ctx context.Context, req stt.Request) *stt.Result {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.provider.Transcribe(cctx, req)
	if err == nil {
		return res
	}

	s.log.WithError(err).Warn("transcription backend failed, using scripted fallback")
	res, _ = s.fallback.Transcribe(ctx, req) // scripted never errors
	return res
}
