package trust

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/middleware"
)

// Handler handles HTTP requests for trust scores
type Handler struct {
	service *Service
}

// NewHandler creates a new trust handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetScore computes a requester's trust score breakdown
func (h *Handler) GetScore(c *gin.Context) {
	requesterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid requester id")
		return
	}

	breakdown, err := h.service.Compute(c.Request.Context(), requesterID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to compute trust score")
		return
	}

	common.SuccessResponse(c, breakdown)
}

// Recompute recomputes and persists a requester's trust score
func (h *Handler) Recompute(c *gin.Context) {
	requesterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid requester id")
		return
	}

	breakdown, err := h.service.Update(c.Request.Context(), requesterID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to update trust score")
		return
	}

	common.SuccessResponse(c, breakdown)
}

// BatchRecompute recomputes trust scores for all requesters
func (h *Handler) BatchRecompute(c *gin.Context) {
	result, err := h.service.BatchUpdate(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "failed to run batch trust score update")
		return
	}

	common.SuccessResponse(c, result)
}

// Override manually sets a requester's trust score
func (h *Handler) Override(c *gin.Context) {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	requesterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid requester id")
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Override(c.Request.Context(), requesterID, adminID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to override trust score")
		return
	}

	common.SuccessResponse(c, profile)
}

// RegisterRoutes wires the trust endpoints onto the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, approverRole string) {
	trust := rg.Group("/trust", middleware.RequireRole(approverRole))
	{
		trust.GET("/:id", h.GetScore)
		trust.POST("/:id/recompute", h.Recompute)
		trust.POST("/recompute", h.BatchRecompute)
		trust.PUT("/:id/override", h.Override)
	}
}
