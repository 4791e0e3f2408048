package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
)

// AppError is an error that can be shown to the API caller. Field is the
// response key the message is reported under, e.g. {"noprofile": "..."}.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(field, message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message, Field: field}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// BadRequest reports a request that is well formed but cannot be applied to
// the current state, such as liking a post twice.
func BadRequest(field, message string) *AppError {
	return &AppError{Err: ErrBadRequest, Message: message, Field: field}
}

func Unauthorized(field, message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message, Field: field}
}

func Conflict(field, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Field: field}
}

// StatusCode maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
