package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/services"
	"github.com/callsight/callsight/internal/utils"
)

// CallWorkerPool drains the ingest stream and runs the evaluation pipeline for
// each queued webhook. Consumers share one group so every message is processed
// exactly once across the pool.
type CallWorkerPool struct {
	Redis      *redis.Client
	Pipeline   services.PipelineService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *CallWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Pipeline == nil {
		return errors.New("CallWorkerPool missing dependency: Redis/Pipeline must be set")
	}
	if p.Stream == "" {
		p.Stream = "calls:ingest"
	}
	if p.Group == "" {
		p.Group = "call-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *CallWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// DecodeIngestMessage maps a stream entry's fields back into pipeline input.
// Entries missing company_id or agent_id are malformed and dropped.
func DecodeIngestMessage(msg redis.XMessage) (services.PipelineInput, bool) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	in := services.PipelineInput{
		CompanyID:   getStr("company_id"),
		AgentID:     getStr("agent_id"),
		PhoneNumber: getStr("phone_number"),
		Direction:   models.CallDirection(getStr("direction")),
		Language:    getStr("language"),
	}
	if in.CompanyID == "" || in.AgentID == "" {
		return in, false
	}
	if v := getStr("duration_seconds"); v != "" {
		in.DurationSeconds, _ = strconv.Atoi(v)
	}
	if v := strings.TrimSpace(getStr("audio_url")); v != "" {
		in.AudioURL = &v
	}
	if v := strings.TrimSpace(getStr("audio_reference")); v != "" {
		in.AudioReference = &v
	}
	if v := strings.TrimSpace(getStr("external_call_id")); v != "" {
		in.ExternalCallID = &v
	}
	return in, true
}

func (p *CallWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	in, ok := DecodeIngestMessage(msg)
	if !ok {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed ingest message")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"company_id": in.CompanyID,
		"agent_id":   in.AgentID,
	})

	out, err := p.Pipeline.Process(ctx, in)
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyProcessed) {
			log.Info("ingest message was a duplicate delivery")
			return
		}
		log.WithError(err).Error("pipeline failed for queued call")
		return
	}
	log.WithFields(logrus.Fields{
		"call_id":     out.CallID,
		"final_score": out.FinalScore,
		"alerts":      len(out.AlertsGenerated),
	}).Info("queued call processed")
}
