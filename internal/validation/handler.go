package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retracehq/returns-service/internal/returns"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/middleware"
)

// Handler handles HTTP requests for the decision engine
type Handler struct {
	service *Service
}

// NewHandler creates a new validation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Preview runs a pre-submission validation without persisting anything
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	common.SuccessResponse(c, h.service.Preview(c.Request.Context(), &req))
}

// ValidateReturn evaluates a stored return and persists the verdict
func (h *Handler) ValidateReturn(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid return id")
		return
	}

	role, _ := middleware.GetRole(c)
	result, err := h.service.ValidateReturn(c.Request.Context(), returnID, callerID,
		returns.Role(role))
	if err != nil {
		common.HandleServiceError(c, err, "failed to validate return")
		return
	}

	common.SuccessResponse(c, result)
}

// RegisterRoutes wires the validation endpoints onto the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/validation/preview", h.Preview)
	rg.POST("/returns/:id/validate", h.ValidateReturn)
}
