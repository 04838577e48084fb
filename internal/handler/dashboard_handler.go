package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexskill/institute-api/internal/models"
	"github.com/nexskill/institute-api/internal/service"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/response"
)

// DashboardHandler exposes the role-scoped overview endpoint.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Get godoc
// @Summary Get the dashboard for the caller's role
// @Description ADMIN and CEO get the institute overview, CHANNEL_PARTNER the
// branch overview, TRAINER the teaching overview and STUDENT the personal
// overview. Cache state is reported in the response meta.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var (
		payload  interface{}
		cacheHit bool
		err      error
	)
	switch claims.Role {
	case models.RoleAdmin, models.RoleCEO:
		payload, cacheHit, err = h.dashboards.Admin(c.Request.Context())
	case models.RoleChannelPartner:
		payload, cacheHit, err = h.dashboards.Branch(c.Request.Context(), claims.BranchID, claims.UserID)
	case models.RoleTrainer:
		payload, cacheHit, err = h.dashboards.Trainer(c.Request.Context(), claims.UserID)
	case models.RoleStudent:
		payload, cacheHit, err = h.dashboards.Student(c.Request.Context(), claims.UserID)
	default:
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload, nil, map[string]interface{}{"cache_hit": cacheHit})
}
