package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/models"
	"github.com/nexskill/institute-api/internal/service"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/response"
)

// PortfolioHandler exposes portfolio task and submission endpoints.
type PortfolioHandler struct {
	portfolios *service.PortfolioService
	students   *service.StudentService
}

// NewPortfolioHandler constructs PortfolioHandler.
func NewPortfolioHandler(portfolios *service.PortfolioService, students *service.StudentService) *PortfolioHandler {
	return &PortfolioHandler{portfolios: portfolios, students: students}
}

// ListTasks godoc
// @Summary List the portfolio tasks for a batch
// @Tags Portfolio
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/tasks [get]
func (h *PortfolioHandler) ListTasks(c *gin.Context) {
	tasks, err := h.portfolios.ListTasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// CreateTask godoc
// @Summary Publish a portfolio task to a batch
// @Tags Portfolio
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /batches/{id}/tasks [post]
func (h *PortfolioHandler) CreateTask(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.portfolios.CreateTask(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// DeleteTask godoc
// @Summary Delete a portfolio task
// @Tags Portfolio
// @Produce json
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *PortfolioHandler) DeleteTask(c *gin.Context) {
	if err := h.portfolios.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit work for a task
// @Description Students submit their own work; the student profile is
// resolved from the access token.
// @Tags Portfolio
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.SubmitWorkRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /tasks/{id}/submissions [post]
func (h *PortfolioHandler) Submit(c *gin.Context) {
	var req service.SubmitWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	sub, err := h.portfolios.Submit(c.Request.Context(), c.Param("id"), student.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// ListSubmissions godoc
// @Summary List the submissions for a task
// @Tags Portfolio
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/submissions [get]
func (h *PortfolioHandler) ListSubmissions(c *gin.Context) {
	subs, err := h.portfolios.ListSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// Review godoc
// @Summary Review a submission
// @Tags Portfolio
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.ReviewSubmissionRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/review [post]
func (h *PortfolioHandler) Review(c *gin.Context) {
	var req service.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sub, err := h.portfolios.Review(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
