package behavior

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/common"
)

// Handler handles HTTP requests for behavior scores
type Handler struct {
	service *Service
}

// NewHandler creates a new behavior handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetScore returns a requester's behavior score
func (h *Handler) GetScore(c *gin.Context) {
	requesterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid requester id")
		return
	}

	score, err := h.service.GetScore(c.Request.Context(), requesterID)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to compute behavior score")
		return
	}

	common.SuccessResponse(c, score)
}
