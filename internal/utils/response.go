package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lwan2205/storefront/pkg/shopapi"
)

// Response defines the standard API response envelope.
type Response struct {
	Success  bool        `json:"success"`
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Meta     Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	SuccessRedirect(c, code, message, data, "")
}

// SuccessRedirect writes a success response telling the browser where to
// navigate next.
func SuccessRedirect(c *gin.Context, code int, message string, data interface{}, redirect string) {
	c.JSON(code, Response{
		Success:  true,
		Code:     code,
		Message:  message,
		Data:     data,
		Redirect: redirect,
		Meta:     newMeta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: message,
		Error: &ErrorInfo{
			Code:    errCode,
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// errorStatus maps sentinel errors to HTTP statuses.
var errorStatus = []struct {
	err    error
	status int
}{
	{ErrDraftNotFound, http.StatusNotFound},
	{ErrInvalidField, http.StatusBadRequest},
	{ErrInvalidStock, http.StatusBadRequest},
	{ErrSizeRequired, http.StatusBadRequest},
	{ErrSizeUnavailable, http.StatusConflict},
	{ErrSubmissionInFlight, http.StatusConflict},
	{ErrNothingToRetry, http.StatusConflict},
	{ErrImageTooLarge, http.StatusRequestEntityTooLarge},
	{ErrImageRejected, http.StatusUnprocessableEntity},
	{ErrInvalidSession, http.StatusUnauthorized},
	{ErrProductNotLoaded, http.StatusBadGateway},
	{shopapi.ErrRejected, http.StatusBadGateway},
	{shopapi.ErrUnavailable, http.StatusBadGateway},
	{shopapi.ErrInvalidResponse, http.StatusBadGateway},
}

// ErrorFrom writes an error response derived from err. The error code is the
// matching sentinel's text; unknown errors become INTERNAL_ERROR.
func ErrorFrom(c *gin.Context, err error, message string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			Error(c, e.status, e.err.Error(), message)
			return
		}
	}
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
