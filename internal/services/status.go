package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes pipeline stage transitions for live consumers (the
// WebSocket handler relays them). Publishing is best-effort everywhere.
type Notifier interface {
	Publish(ctx context.Context, callID, stage, detail string)
}

// StatusChannel is the pub/sub channel carrying one call's stage events.
func StatusChannel(callID string) string {
	return "call:" + callID + ":status"
}

type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (n *RedisNotifier) Publish(ctx context.Context, callID, stage, detail string) {
	payload, _ := json.Marshal(map[string]any{
		"type":    "status",
		"call_id": callID,
		"stage":   stage,
		"detail":  detail,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	})
	_ = n.rdb.Publish(ctx, StatusChannel(callID), string(payload)).Err()
}

// NopNotifier drops everything; used in tests and when Redis is absent.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, string, string, string) {}
