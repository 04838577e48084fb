package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/service"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/response"
)

// AssessmentHandler exposes test and score endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// ListTests godoc
// @Summary List the tests for a batch
// @Tags Assessments
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/tests [get]
func (h *AssessmentHandler) ListTests(c *gin.Context) {
	tests, err := h.assessments.ListTests(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, nil)
}

// CreateTest godoc
// @Summary Schedule a test for a batch
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body service.CreateTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Router /batches/{id}/tests [post]
func (h *AssessmentHandler) CreateTest(c *gin.Context) {
	var req service.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	test, err := h.assessments.CreateTest(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// DeleteTest godoc
// @Summary Delete a test and its scores
// @Tags Assessments
// @Produce json
// @Param id path string true "Test ID"
// @Success 204
// @Router /tests/{id} [delete]
func (h *AssessmentHandler) DeleteTest(c *gin.Context) {
	if err := h.assessments.DeleteTest(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordScores godoc
// @Summary Record marks for a test
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body service.RecordScoresRequest true "Scores payload"
// @Success 200 {object} response.Envelope
// @Router /tests/{id}/scores [post]
func (h *AssessmentHandler) RecordScores(c *gin.Context) {
	var req service.RecordScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scores, err := h.assessments.RecordScores(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}

// ListScores godoc
// @Summary List the marks for a test
// @Tags Assessments
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /tests/{id}/scores [get]
func (h *AssessmentHandler) ListScores(c *gin.Context) {
	scores, err := h.assessments.ListScores(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scores, nil)
}
