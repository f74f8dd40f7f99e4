package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse writes a success envelope
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessResponseWithMeta writes a success envelope with pagination metadata
func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta":    meta,
	})
}

// CreatedResponse writes a 201 envelope
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// ErrorResponse writes a plain error envelope
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// AppErrorResponse writes an AppError with its mapped status code
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.StatusCode, gin.H{
		"success": false,
		"error":   err.Message,
		"code":    err.Code,
	})
}

// HandleServiceError maps a service error to an HTTP response.
// AppErrors keep their status; anything else becomes a 500.
func HandleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*AppError); ok {
		AppErrorResponse(c, appErr)
		return
	}
	ErrorResponse(c, http.StatusInternalServerError, fallback)
}
