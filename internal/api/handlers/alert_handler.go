package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	pgrepo "github.com/callsight/callsight/internal/repositories/postgres"
	"github.com/callsight/callsight/internal/utils"
)

type AlertHandler struct {
	alerts pgrepo.AlertRepository
}

func NewAlertHandler(alerts pgrepo.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List returns the company's alerts, newest first. ?unread=true filters to
// unread ones, ?limit= caps the page (default 100).
func (h *AlertHandler) List(c *gin.Context) {
	const op = "AlertHandler.List"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}

	onlyUnread := c.Query("unread") == "true"
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "limit must be a non-negative integer", err))
			return
		}
		limit = n
	}

	rows, err := h.alerts.ListByCompany(c.Request.Context(), companyID, onlyUnread, limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to list alerts", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": rows})
}

func (h *AlertHandler) MarkRead(c *gin.Context) {
	const op = "AlertHandler.MarkRead"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}
	id := c.Param("alert_id")
	if id == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing alert_id", nil))
		return
	}

	if err := h.alerts.MarkRead(c.Request.Context(), companyID, id); err != nil {
		if err == utils.ErrNotFound {
			writeError(c, utils.E(utils.CodeNotFound, op, "alert not found", err))
			return
		}
		writeError(c, utils.E(utils.CodeInternal, op, "failed to mark alert read", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}
