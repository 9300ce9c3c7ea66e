// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. All
// failures go through fail(), which writes an ErrorResponse with a stable
// code and logs 5xx with the request-scoped logger. Expected domain errors
// never reach the client as raw error text; unexpected ones collapse to a
// generic message.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "appointment not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"appointment not found"`
}

// VersionConflictResponse is returned with 409 when an update carried a
// stale version. Clients refetch, merge and retry with CurrentVersion.
type VersionConflictResponse struct {
	RequestID      string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code           string `json:"code" example:"version_conflict"`
	Message        string `json:"message" example:"appointment was modified by another request"`
	CurrentVersion int    `json:"currentVersion" example:"3"`
}

// MessageResponse is a bare confirmation body.
type MessageResponse struct {
	Message string `json:"message" example:"Appointment deleted successfully"`
}

// fail aborts the request with a structured error. Server errors (>=500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail(), used by router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// internalError answers with a generic 500. err is attached to the gin
// context so the access log records it; it is never sent to the client.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "server error")
}

func versionConflict(c *gin.Context, current int) {
	c.AbortWithStatusJSON(http.StatusConflict, VersionConflictResponse{
		RequestID:      c.Writer.Header().Get("X-Request-ID"),
		Code:           ErrCodeVersionConflict,
		Message:        "appointment was modified by another request",
		CurrentVersion: current,
	})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
