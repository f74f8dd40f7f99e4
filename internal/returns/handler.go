package returns

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/middleware"
	"github.com/retracehq/returns-service/pkg/pagination"
)

// Handler handles HTTP requests for returns
type Handler struct {
	service *Service
}

// NewHandler creates a new returns handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateReturn submits a new return request
func (h *Handler) CreateReturn(c *gin.Context) {
	requesterID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.service.CreateReturn(c.Request.Context(), requesterID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to create return")
		return
	}

	common.CreatedResponse(c, record)
}

// GetReturn retrieves a single return
func (h *Handler) GetReturn(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid return id")
		return
	}

	role, _ := middleware.GetRole(c)
	record, err := h.service.GetReturn(c.Request.Context(), id, callerID, Role(role))
	if err != nil {
		common.HandleServiceError(c, err, "failed to get return")
		return
	}

	common.SuccessResponse(c, record)
}

// ListReturns lists returns visible to the caller
func (h *Handler) ListReturns(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := pagination.ParseParams(c)
	status := Status(c.Query("status"))
	validationStatus := ValidationStatus(c.Query("validation_status"))

	role, _ := middleware.GetRole(c)
	records, total, err := h.service.ListReturns(c.Request.Context(), callerID,
		Role(role), status, validationStatus, params.Limit, params.Offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list returns")
		return
	}

	common.SuccessResponseWithMeta(c, records, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// UpdateStatus performs a workflow transition
func (h *Handler) UpdateStatus(c *gin.Context) {
	callerID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid return id")
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	role, _ := middleware.GetRole(c)
	record, err := h.service.RequestTransition(c.Request.Context(), id, callerID, Role(role), &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to update return status")
		return
	}

	common.SuccessResponse(c, record)
}

// ConfirmDropbox records a dropbox scan for an approved return
func (h *Handler) ConfirmDropbox(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid return id")
		return
	}

	var req struct {
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.service.ConfirmDropbox(c.Request.Context(), id, req.Location)
	if err != nil {
		common.HandleServiceError(c, err, "failed to confirm dropbox deposit")
		return
	}

	common.SuccessResponse(c, record)
}

// RegisterRoutes wires the returns endpoints onto the router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/returns")
	{
		returns.POST("", h.CreateReturn)
		returns.GET("", h.ListReturns)
		returns.GET("/:id", h.GetReturn)
		returns.PATCH("/:id/status", middleware.RequireRole(
			string(RoleApprover), string(RoleWarehouse), string(RoleLogistics)), h.UpdateStatus)
		returns.POST("/:id/dropbox-confirm", middleware.RequireRole(
			string(RoleWarehouse), string(RoleLogistics)), h.ConfirmDropbox)
	}
}
