package workers

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/models"
)

func TestDecodeIngestMessage(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"company_id":       "co-1",
			"agent_id":         "agent-1",
			"phone_number":     "+5511999990000",
			"direction":        "inbound",
			"duration_seconds": "240",
			"audio_url":        "https://recordings.example.com/abc.wav",
			"external_call_id": "ext-42",
			"language":         "pt-BR",
		},
	}

	in, ok := DecodeIngestMessage(msg)
	require.True(t, ok)
	assert.Equal(t, "co-1", in.CompanyID)
	assert.Equal(t, "agent-1", in.AgentID)
	assert.Equal(t, models.DirectionInbound, in.Direction)
	assert.Equal(t, 240, in.DurationSeconds)
	require.NotNil(t, in.AudioURL)
	assert.Equal(t, "https://recordings.example.com/abc.wav", *in.AudioURL)
	require.NotNil(t, in.ExternalCallID)
	assert.Equal(t, "ext-42", *in.ExternalCallID)
	assert.Nil(t, in.AudioReference)
}

func TestDecodeIngestMessageMissingTenant(t *testing.T) {
	_, ok := DecodeIngestMessage(redis.XMessage{
		ID:     "1-1",
		Values: map[string]any{"agent_id": "agent-1"},
	})
	assert.False(t, ok)

	_, ok = DecodeIngestMessage(redis.XMessage{
		ID:     "1-2",
		Values: map[string]any{"company_id": "co-1"},
	})
	assert.False(t, ok)
}

func TestDecodeIngestMessageOptionalFieldsAbsent(t *testing.T) {
	in, ok := DecodeIngestMessage(redis.XMessage{
		ID: "1-3",
		Values: map[string]any{
			"company_id": "co-1",
			"agent_id":   "agent-1",
		},
	})
	require.True(t, ok)
	assert.Zero(t, in.DurationSeconds)
	assert.Nil(t, in.AudioURL)
	assert.Nil(t, in.AudioReference)
	assert.Nil(t, in.ExternalCallID)
}
