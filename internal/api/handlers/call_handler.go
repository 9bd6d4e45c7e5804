package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/services"
	"github.com/callsight/callsight/internal/utils"
)

type CallHandler struct {
	pipeline services.PipelineService
	redis    *redis.Client
	stream   string
}

func NewCallHandler(pipeline services.PipelineService, rdb *redis.Client, stream string) *CallHandler {
	if stream == "" {
		stream = "calls:ingest"
	}
	return &CallHandler{pipeline: pipeline, redis: rdb, stream: stream}
}

type webhookRequest struct {
	AgentID         string  `json:"agent_id" binding:"required"`
	PhoneNumber     string  `json:"phone_number"`
	Direction       string  `json:"direction"`
	DurationSeconds int     `json:"duration_seconds"`
	AudioURL        *string `json:"audio_url,omitempty"`
	AudioReference  *string `json:"audio_reference,omitempty"`
	ExternalCallID  *string `json:"external_call_id,omitempty"`
	Language        string  `json:"language,omitempty"`
}

func (r webhookRequest) toInput(companyID string) services.PipelineInput {
	return services.PipelineInput{
		CompanyID:       companyID,
		AgentID:         r.AgentID,
		PhoneNumber:     r.PhoneNumber,
		Direction:       models.CallDirection(r.Direction),
		DurationSeconds: r.DurationSeconds,
		AudioURL:        r.AudioURL,
		AudioReference:  r.AudioReference,
		ExternalCallID:  r.ExternalCallID,
		Language:        r.Language,
	}
}

// Ingest runs the full evaluation synchronously and returns the consolidated
// result. Telephony platforms that tolerate long webhook responses use this;
// the rest use IngestAsync.
func (h *CallHandler) Ingest(c *gin.Context) {
	const op = "CallHandler.Ingest"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	out, err := h.pipeline.Process(c.Request.Context(), req.toInput(companyID))
	if err != nil {
		writeError(c, err)
		return
	}
	if out.AlreadyProcessed {
		c.JSON(http.StatusOK, out)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// IngestAsync enqueues the webhook on the ingest stream and returns 202.
// The worker pool picks it up; clients follow progress over the status
// WebSocket or poll GET /calls/:call_id.
func (h *CallHandler) IngestAsync(c *gin.Context) {
	const op = "CallHandler.IngestAsync"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}
	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "async ingestion is not enabled", nil))
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	fields := map[string]any{
		"company_id":       companyID,
		"agent_id":         req.AgentID,
		"phone_number":     req.PhoneNumber,
		"direction":        req.Direction,
		"duration_seconds": strconv.Itoa(req.DurationSeconds),
		"language":         req.Language,
		"ts_unix":          strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}
	if req.AudioURL != nil {
		fields["audio_url"] = *req.AudioURL
	}
	if req.AudioReference != nil {
		fields["audio_reference"] = *req.AudioReference
	}
	if req.ExternalCallID != nil {
		fields["external_call_id"] = *req.ExternalCallID
	}

	id, err := h.redis.XAdd(c.Request.Context(), &redis.XAddArgs{
		Stream: h.stream,
		Values: fields,
	}).Result()
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "failed to enqueue call", err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": true, "message_id": id})
}

// Get returns the consolidated evaluation for one call.
func (h *CallHandler) Get(c *gin.Context) {
	const op = "CallHandler.Get"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}
	callID := c.Param("call_id")
	if callID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing call_id", nil))
		return
	}

	out, err := h.pipeline.Result(c.Request.Context(), companyID, callID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
