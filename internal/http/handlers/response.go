// Package handlers implements the calendar, checkout and payment-provider
// endpoints of the public API.
//
// Every failure is written through fail as an ErrorResponse carrying a stable
// code from errors.go, so the web client can branch on the code (for example
// not_ready while a calendar is still generating, or payments_disabled while
// checkout is switched off) and show the message as is.
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_ready",
//	  "message": "Calendar is not ready for purchase"
//	}
//
// Success bodies are the DTOs or service projections themselves, with no
// wrapper:
//
//	HTTP/1.1 201 Created
//	{ "id": 42, "status": "pending" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pet-calendar-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Correlation id, same value as the X-Request-ID response header
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Machine-readable code from errors.go
	Code string `json:"code" example:"not_ready"`
	// Safe to show to the pet owner
	Message string `json:"message" example:"Calendar is not ready for purchase"`
}

// fail aborts the request with an ErrorResponse. 5xx responses are logged
// with the request-scoped logger and the matched route; 4xx are left to the
// access log.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := middleware.RequestIDFrom(c)
	if reqID == "" {
		reqID = c.Writer.Header().Get("X-Request-ID")
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("route", c.FullPath()).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router write the same envelope for its NoRoute and NoMethod
// fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
