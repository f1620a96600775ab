package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	. "todolist/internal/adapter/http/validation"
	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
)

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:         http.StatusBadRequest,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodeInvalidCredentials: http.StatusUnauthorized,
	domain.CodeUnauthorized:       http.StatusUnauthorized,
	domain.CodeInvalidToken:       http.StatusUnauthorized,
	domain.CodeExpiredToken:       http.StatusUnauthorized,
	domain.CodeForbidden:          http.StatusForbidden,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeInvalidOtp:         http.StatusBadRequest,
	domain.CodeExpiredOtp:         http.StatusBadRequest,
	domain.CodeSamePassword:       http.StatusBadRequest,
	domain.CodeInternal:           http.StatusInternalServerError,
}

// StatusOf maps an error code to its HTTP status.
func StatusOf(code domain.ErrorCode) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

func SendSuccess(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, response.Envelope{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Success:    statusCode < http.StatusBadRequest,
	})
}

func SendError(c *gin.Context, statusCode int, code domain.ErrorCode, message string, errs []response.ValidationError) {
	c.JSON(statusCode, response.Envelope{
		StatusCode: statusCode,
		Message:    message,
		Data:       nil,
		Success:    false,
		Code:       string(code),
		Errors:     errs,
	})
}

// SendFailure writes the envelope for err. Internal causes are attached to
// the gin context for the logging middleware and never reach the client.
func SendFailure(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) {
		SendValidationError(c, err)
		return
	}

	code := domain.CodeOf(err)
	status := StatusOf(code)

	if status >= http.StatusInternalServerError {
		c.Error(err)
	}

	SendError(c, status, code, domain.MessageOf(err), nil)
}

func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, domain.CodeValidation, "validation failed", FormatValidationErrors(err))
}

// SendBindingError reports a body that could not be decoded at all.
func SendBindingError(c *gin.Context, err error) {
	c.Error(err).SetType(gin.ErrorTypeBind)

	SendError(c, http.StatusBadRequest, domain.CodeValidation, "invalid request body", []response.ValidationError{
		{Field: "body", Message: "request body is malformed"},
	})
}

func SendUnauthorizedError(c *gin.Context, err error) {
	code := domain.CodeOf(err)

	if code == domain.CodeInternal {
		code = domain.CodeUnauthorized
	}

	SendError(c, http.StatusUnauthorized, code, unauthorizedMessage(code), nil)
}

func unauthorizedMessage(code domain.ErrorCode) string {
	switch code {
	case domain.CodeInvalidToken:
		return "invalid token"
	case domain.CodeExpiredToken:
		return "token expired"
	default:
		return "unauthorized request"
	}
}
