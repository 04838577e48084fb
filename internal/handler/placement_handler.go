package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/models"
	"github.com/nexskill/institute-api/internal/service"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/response"
)

// PlacementHandler exposes company, placement and incentive endpoints.
type PlacementHandler struct {
	placements *service.PlacementService
}

// NewPlacementHandler constructs PlacementHandler.
func NewPlacementHandler(placements *service.PlacementService) *PlacementHandler {
	return &PlacementHandler{placements: placements}
}

// ListCompanies godoc
// @Summary List hiring partners
// @Tags Placements
// @Produce json
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *PlacementHandler) ListCompanies(c *gin.Context) {
	page, size := parsePaging(c)
	companies, pagination, err := h.placements.ListCompanies(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, pagination)
}

// CreateCompany godoc
// @Summary Register a hiring partner
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.CompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Router /companies [post]
func (h *PlacementHandler) CreateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	company, err := h.placements.CreateCompany(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// UpdateCompany godoc
// @Summary Update a hiring partner
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param payload body service.CompanyRequest true "Company payload"
// @Success 200 {object} response.Envelope
// @Router /companies/{id} [put]
func (h *PlacementHandler) UpdateCompany(c *gin.Context) {
	var req service.CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	company, err := h.placements.UpdateCompany(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// ListPlacements godoc
// @Summary List placements
// @Tags Placements
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param company_id query string false "Filter by company"
// @Success 200 {object} response.Envelope
// @Router /placements [get]
func (h *PlacementHandler) ListPlacements(c *gin.Context) {
	page, size := parsePaging(c)
	placements, pagination, err := h.placements.ListPlacements(c.Request.Context(), c.Query("student_id"), c.Query("company_id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placements, pagination)
}

// CreatePlacement godoc
// @Summary Record a placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.CreatePlacementRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements [post]
func (h *PlacementHandler) CreatePlacement(c *gin.Context) {
	var req service.CreatePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.placements.CreatePlacement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, placement)
}

// ListIncentives godoc
// @Summary List partner incentives
// @Description Channel partners only see their own incentives.
// @Tags Placements
// @Produce json
// @Param partner_id query string false "Filter by partner"
// @Success 200 {object} response.Envelope
// @Router /incentives [get]
func (h *PlacementHandler) ListIncentives(c *gin.Context) {
	page, size := parsePaging(c)
	partnerID := c.Query("partner_id")
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleChannelPartner {
		partnerID = claims.UserID
	}
	incentives, pagination, err := h.placements.ListIncentives(c.Request.Context(), partnerID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incentives, pagination)
}

// ApproveIncentive godoc
// @Summary Approve a pending incentive
// @Tags Placements
// @Produce json
// @Param id path string true "Incentive ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /incentives/{id}/approve [post]
func (h *PlacementHandler) ApproveIncentive(c *gin.Context) {
	incentive, err := h.placements.ApproveIncentive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incentive, nil)
}

// PayIncentive godoc
// @Summary Mark an approved incentive as paid
// @Tags Placements
// @Produce json
// @Param id path string true "Incentive ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /incentives/{id}/pay [post]
func (h *PlacementHandler) PayIncentive(c *gin.Context) {
	incentive, err := h.placements.PayIncentive(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, incentive, nil)
}
