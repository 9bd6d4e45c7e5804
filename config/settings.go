package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the environment-driven configuration consumed by the core
// pipeline. Secrets and provider credentials stay in the environment and are
// picked up by the Google SDKs directly.
type Settings struct {
	LowScoreThreshold   float64       // LOW_SCORE_THRESHOLD
	LongCallThresholdS  int           // LONG_CALL_THRESHOLD_SECONDS
	RetentionDays       int           // RETENTION_DAYS
	RetentionInterval   time.Duration // RETENTION_INTERVAL_HOURS
	RiskWords           []string      // RISK_WORDS (comma separated)
	STTTimeout          time.Duration // STT_TIMEOUT_SECONDS
	LLMTimeout          time.Duration // LLM_TIMEOUT_SECONDS
	CriteriaCacheTTL    time.Duration // CRITERIA_CACHE_TTL_SECONDS
	AudioBucket         string        // AUDIO_BUCKET (GCS; empty = local dir)
	AudioLocalDir       string        // AUDIO_LOCAL_DIR
	IngestStream        string        // INGEST_STREAM
	IngestGroup         string        // INGEST_GROUP
	IngestWorkers       int           // INGEST_WORKERS
	GoogleSTTEnabled    bool          // GOOGLE_STT_ENABLED
	VertexProjectID     string        // VERTEX_PROJECT_ID (empty = fallback analyzer)
	VertexLocation      string        // VERTEX_LOCATION
	VertexModel         string        // VERTEX_MODEL
	DefaultLanguage     string        // DEFAULT_LANGUAGE
}

// defaultRiskWords covers the complaint / cancellation / legal-threat phrases
// the evaluation flags when they show up in a transcript.
var defaultRiskWords = []string{
	"cancelar",
	"cancelamento",
	"reclamação",
	"insatisfeito",
	"insatisfeita",
	"procon",
	"processo",
	"advogado",
	"reembolso",
	"péssimo",
	"horrível",
	"nunca mais",
}

func LoadSettings() Settings {
	return Settings{
		LowScoreThreshold:  envFloat("LOW_SCORE_THRESHOLD", 5.0),
		LongCallThresholdS: envInt("LONG_CALL_THRESHOLD_SECONDS", 1800),
		RetentionDays:      envInt("RETENTION_DAYS", 60),
		RetentionInterval:  time.Duration(envInt("RETENTION_INTERVAL_HOURS", 24)) * time.Hour,
		RiskWords:          envList("RISK_WORDS", defaultRiskWords),
		STTTimeout:         time.Duration(envInt("STT_TIMEOUT_SECONDS", 30)) * time.Second,
		LLMTimeout:         time.Duration(envInt("LLM_TIMEOUT_SECONDS", 45)) * time.Second,
		CriteriaCacheTTL:   time.Duration(envInt("CRITERIA_CACHE_TTL_SECONDS", 60)) * time.Second,
		AudioBucket:        os.Getenv("AUDIO_BUCKET"),
		AudioLocalDir:      envStr("AUDIO_LOCAL_DIR", "./data/audio"),
		IngestStream:       envStr("INGEST_STREAM", "calls:ingest"),
		IngestGroup:        envStr("INGEST_GROUP", "call-workers"),
		IngestWorkers:      envInt("INGEST_WORKERS", 5),
		GoogleSTTEnabled:   os.Getenv("GOOGLE_STT_ENABLED") == "true",
		VertexProjectID:    os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:     envStr("VERTEX_LOCATION", "us-central1"),
		VertexModel:        envStr("VERTEX_MODEL", "gemini-1.5-flash"),
		DefaultLanguage:    envStr("DEFAULT_LANGUAGE", "pt-BR"),
	}
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
