// Package apperror defines the error vocabulary shared by services and
// handlers.
//
// Services return *AppError values; handlers inspect them with errors.Is /
// errors.As and map the sentinel to an HTTP status. Repository code never
// builds HTTP concerns, it only wraps sentinels.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials are missing or wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// FieldErrors collects per-field validation failures so a submission can
// report every invalid answer at once instead of the first one.
type FieldErrors map[string]string

// Err returns nil when no failures were recorded. Otherwise it returns a
// validation AppError whose Field names the first failing field in order.
func (fe FieldErrors) Err(order []string) error {
	if len(fe) == 0 {
		return nil
	}
	var first string
	var msgs []string
	for _, id := range order {
		msg, ok := fe[id]
		if !ok {
			continue
		}
		if first == "" {
			first = id
		}
		msgs = append(msgs, msg)
	}
	// ids outside the given order still count
	if first == "" {
		for id, msg := range fe {
			first = id
			msgs = append(msgs, msg)
			break
		}
	}
	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(msgs, "; "),
		Field:   first,
	}
}
