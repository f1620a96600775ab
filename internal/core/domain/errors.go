package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable error code shared by services and transports.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeExpiredToken       ErrorCode = "EXPIRED_TOKEN"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeInvalidOtp         ErrorCode = "INVALID_OTP"
	CodeExpiredOtp         ErrorCode = "EXPIRED_OTP"
	CodeSamePassword       ErrorCode = "SAME_PASSWORD"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// Error carries a code, a client-safe message and an optional cause.
// Two errors match with errors.Is when their codes are equal.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	return t.Code == e.Code
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

var (
	ErrValidation         = NewError(CodeValidation, "invalid request")
	ErrConflict           = NewError(CodeConflict, "resource already exists")
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, "invalid email or password")
	ErrUnauthorized       = NewError(CodeUnauthorized, "unauthorized")
	ErrInvalidToken       = NewError(CodeInvalidToken, "invalid token")
	ErrExpiredToken       = NewError(CodeExpiredToken, "token expired")
	ErrForbidden          = NewError(CodeForbidden, "forbidden")
	ErrNotFound           = NewError(CodeNotFound, "resource not found")
	ErrInvalidOtp         = NewError(CodeInvalidOtp, "invalid otp")
	ErrExpiredOtp         = NewError(CodeExpiredOtp, "otp expired")
	ErrSamePassword       = NewError(CodeSamePassword, "new password must differ from the current one")
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error

	if errors.As(err, &e) {
		return e.Code
	}

	return CodeInternal
}

// MessageOf returns the client-safe message of err, hiding internal causes.
func MessageOf(err error) string {
	var e *Error

	if errors.As(err, &e) {
		return e.Message
	}

	return "internal server error"
}
