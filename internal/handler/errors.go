// internal/handler/errors.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalDriver "order-printer/internal/driver"
	"order-printer/internal/job"
	"order-printer/internal/queue"
	"order-printer/internal/service"
	"order-printer/internal/utils"
)

// statusCode maps a service error to its HTTP status
func statusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidWidth),
		errors.Is(err, job.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, internalDriver.ErrUnknownPrinter):
		return http.StatusNotFound
	case errors.Is(err, queue.ErrNoDeviceAvailable), errors.Is(err, queue.ErrDeviceBusy):
		return http.StatusConflict
	case errors.Is(err, queue.ErrConnectionTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, queue.ErrExecutionFailure):
		return http.StatusBadGateway
	case errors.Is(err, queue.ErrControllerClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

// writeError sends err in the API envelope
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		utils.ValidationErrorResponse(c, verr.Fields)
		return
	}
	utils.ErrorResponse(c, statusCode(err), queue.UserMessage(err), err)
}
