package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/pagination"
)

// Handler handles HTTP requests for the audit trail
type Handler struct {
	service *Service
}

// NewHandler creates a new audit handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListEvents returns audit events, optionally filtered by return, workflow or action
func (h *Handler) ListEvents(c *gin.Context) {
	params := pagination.ParseParams(c)

	filter := ListFilter{
		WorkflowID: c.Query("workflow_id"),
		Action:     c.Query("action"),
		Limit:      params.Limit,
		Offset:     params.Offset,
	}

	if returnIDStr := c.Query("return_id"); returnIDStr != "" {
		returnID, err := uuid.Parse(returnIDStr)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "invalid return_id")
			return
		}
		filter.ReturnID = &returnID
	}

	events, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list audit events")
		return
	}

	common.SuccessResponseWithMeta(c, events, pagination.BuildMeta(filter.Limit, filter.Offset, total))
}
