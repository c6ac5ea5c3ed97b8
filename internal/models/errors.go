package models

import "fmt"

type ErrorKind string

const (
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindExternal   ErrorKind = "external"
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindInternal   ErrorKind = "internal"
)

// AppError carries a stable code alongside the human message so callers can
// branch on failures without string matching.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func NewTimeoutError(code, message string) *AppError {
	return &AppError{Kind: ErrorKindTimeout, Code: code, Message: message}
}

func NewExternalError(code, message string) *AppError {
	return &AppError{Kind: ErrorKindExternal, Code: code, Message: message}
}

func NewValidationError(code, message string) *AppError {
	return &AppError{Kind: ErrorKindValidation, Code: code, Message: message}
}

func NewInternalError(code, message string) *AppError {
	return &AppError{Kind: ErrorKindInternal, Code: code, Message: message}
}

func WrapExternalError(system string, err error) *AppError {
	return &AppError{
		Kind:    ErrorKindExternal,
		Code:    system + "_ERROR",
		Message: "external system call failed",
		Cause:   err,
	}
}
