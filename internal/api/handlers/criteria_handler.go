package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/services"
	"github.com/callsight/callsight/internal/utils"
)

type CriteriaHandler struct {
	criteria services.CriteriaService
}

func NewCriteriaHandler(criteria services.CriteriaService) *CriteriaHandler {
	return &CriteriaHandler{criteria: criteria}
}

type createCriterionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
	Category    string `json:"category"`
}

func (h *CriteriaHandler) Create(c *gin.Context) {
	const op = "CriteriaHandler.Create"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}

	var req createCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}
	if req.Weight == 0 {
		req.Weight = 1
	}

	criterion := &models.Criterion{
		CompanyID:   companyID,
		Name:        req.Name,
		Description: req.Description,
		Weight:      req.Weight,
		Category:    req.Category,
	}
	if err := h.criteria.Create(c.Request.Context(), criterion); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, criterion)
}

// List returns the active criteria, optionally filtered by ?category=.
func (h *CriteriaHandler) List(c *gin.Context) {
	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}

	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	rows, err := h.criteria.Select(c.Request.Context(), companyID, category)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"criteria": rows})
}

func (h *CriteriaHandler) Deactivate(c *gin.Context) {
	const op = "CriteriaHandler.Deactivate"

	companyID, ok := requireCompanyID(c)
	if !ok {
		return
	}
	id := c.Param("criterion_id")
	if id == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing criterion_id", nil))
		return
	}

	if err := h.criteria.Deactivate(c.Request.Context(), companyID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}
