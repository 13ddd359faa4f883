// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError carries a stable machine code next to the human message
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// errorCodes maps statuses the printer API produces to envelope codes.
// 502 and 504 come from the printer side of a job.
var errorCodes = map[int]string{
	http.StatusBadRequest:           "BAD_REQUEST",
	http.StatusUnauthorized:         "UNAUTHORIZED",
	http.StatusForbidden:            "FORBIDDEN",
	http.StatusNotFound:             "NOT_FOUND",
	http.StatusRequestTimeout:       "REQUEST_TIMEOUT",
	http.StatusConflict:             "CONFLICT",
	http.StatusUnsupportedMediaType: "UNSUPPORTED_MEDIA_TYPE",
	http.StatusInternalServerError:  "INTERNAL_SERVER_ERROR",
	http.StatusBadGateway:           "PRINTER_ERROR",
	http.StatusServiceUnavailable:   "SERVICE_UNAVAILABLE",
	http.StatusGatewayTimeout:       "PRINTER_TIMEOUT",
}

func errorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}

func envelope(c *gin.Context, status int, resp APIResponse) {
	resp.Timestamp = time.Now()
	resp.RequestID = c.GetString(RequestIDKey)
	c.JSON(status, resp)
}

// SuccessResponse writes data under a success envelope
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	envelope(c, statusCode, APIResponse{Success: true, Message: message, Data: data})
}

// ErrorResponse writes a failure envelope. err, when set, becomes the
// error details.
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	apiErr := &APIError{Code: errorCode(statusCode), Message: message}
	if err != nil {
		apiErr.Details = err.Error()
	}
	envelope(c, statusCode, APIResponse{Message: message, Error: apiErr})
}

// AbortWithError is ErrorResponse followed by c.Abort
func AbortWithError(c *gin.Context, statusCode int, message string, err error) {
	ErrorResponse(c, statusCode, message, err)
	c.Abort()
}

// ValidationErrorResponse answers 400 with the offending fields listed
// under data.validation_errors
func ValidationErrorResponse(c *gin.Context, fields map[string]string) {
	envelope(c, http.StatusBadRequest, APIResponse{
		Message: "Validation failed",
		Error:   &APIError{Code: "VALIDATION_ERROR", Message: "Request validation failed"},
		Data:    gin.H{"validation_errors": fields},
	})
}
