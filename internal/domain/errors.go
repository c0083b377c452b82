package domain

import (
	"errors"
	"net/http"
)

// HTTPError is an error that knows its response status.
type HTTPError interface {
	error
	StatusCode() int
}

// Kinds of failure shared by repositories and services. Wrap them with
// fmt.Errorf("...: %w", ErrX) and test with errors.Is; ChatErrorFrom maps
// each kind to a response code.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")
	ErrDisabled     = errors.New("feature disabled")
)

// ConflictError reports a unique constraint hit on insert.
type ConflictError struct {
	Message      string
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string { return e.Message }

// StatusCode implements HTTPError.
func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
