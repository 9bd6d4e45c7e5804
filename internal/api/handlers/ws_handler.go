package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/callsight/callsight/internal/services"
	"github.com/callsight/callsight/internal/utils"
)

// WSHandler relays pipeline status events for one call to a WebSocket client.
// The connection is read-only from the client's point of view: the pipeline
// publishes stage transitions to Redis and this handler forwards them.
type WSHandler struct {
	pipeline services.PipelineService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(pipeline services.PipelineService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		pipeline: pipeline,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (h *WSHandler) CallStatusWS(c *gin.Context) {
	const op = "WSHandler.CallStatusWS"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}

	callID := c.Param("call_id")
	if callID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing call_id", nil))
		return
	}

	// Authorize ownership before upgrading. A queued call may not have a row
	// yet, so not-found is allowed through; a row owned by another company is
	// not.
	if _, err := h.pipeline.Result(c.Request.Context(), companyID, callID); err != nil {
		if !utils.IsCode(err, utils.CodeNotFound) {
			writeError(c, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, services.StatusChannel(callID))
	defer pubsub.Close()

	// reader: drain client frames so pings keep the connection alive
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}
