package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptowise-backend/internal/client"
	"cryptowise-backend/internal/service"
	"cryptowise-backend/internal/storage"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnknownKey),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, client.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, client.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrNoQuoteSource),
		errors.Is(err, service.ErrNoInputStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}
