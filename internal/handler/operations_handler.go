package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/service"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/response"
)

// OperationsHandler exposes expense and event planning endpoints.
type OperationsHandler struct {
	operations *service.OperationsService
}

// NewOperationsHandler constructs OperationsHandler.
func NewOperationsHandler(operations *service.OperationsService) *OperationsHandler {
	return &OperationsHandler{operations: operations}
}

// ListExpenses godoc
// @Summary List branch expenses
// @Tags Operations
// @Produce json
// @Param branch_id query string false "Filter by branch"
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *OperationsHandler) ListExpenses(c *gin.Context) {
	page, size := parsePaging(c)
	expenses, pagination, err := h.operations.ListExpenses(c.Request.Context(), c.Query("branch_id"), c.Query("category"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expenses, pagination)
}

// CreateExpense godoc
// @Summary Log a branch expense
// @Tags Operations
// @Accept json
// @Produce json
// @Param payload body service.CreateExpenseRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Router /expenses [post]
func (h *OperationsHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	expense, err := h.operations.CreateExpense(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expense)
}

// DeleteExpense godoc
// @Summary Delete a branch expense
// @Tags Operations
// @Produce json
// @Param id path string true "Expense ID"
// @Success 204
// @Router /expenses/{id} [delete]
func (h *OperationsHandler) DeleteExpense(c *gin.Context) {
	if err := h.operations.DeleteExpense(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEvents godoc
// @Summary List planned branch events
// @Tags Operations
// @Produce json
// @Param branch_id query string false "Filter by branch"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *OperationsHandler) ListEvents(c *gin.Context) {
	page, size := parsePaging(c)
	events, pagination, err := h.operations.ListEvents(c.Request.Context(), c.Query("branch_id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// CreateEvent godoc
// @Summary Schedule a branch event
// @Tags Operations
// @Accept json
// @Produce json
// @Param payload body service.EventPlanRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *OperationsHandler) CreateEvent(c *gin.Context) {
	var req service.EventPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.operations.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// UpdateEvent godoc
// @Summary Update a planned event
// @Tags Operations
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.EventPlanRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *OperationsHandler) UpdateEvent(c *gin.Context) {
	var req service.EventPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.operations.UpdateEvent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}
