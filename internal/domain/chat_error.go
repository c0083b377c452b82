package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType is the first half of an error code ("rate_limit" in "rate_limit:chat").
type ErrorType string

const (
	TypeBadRequest   ErrorType = "bad_request"
	TypeUnauthorized ErrorType = "unauthorized"
	TypeForbidden    ErrorType = "forbidden"
	TypeNotFound     ErrorType = "not_found"
	TypeRateLimit    ErrorType = "rate_limit"
	TypeOffline      ErrorType = "offline"
)

// Surface is the second half of an error code: the part of the product that failed.
type Surface string

const (
	SurfaceChat            Surface = "chat"
	SurfaceAuth            Surface = "auth"
	SurfaceAPI             Surface = "api"
	SurfaceStream          Surface = "stream"
	SurfaceDatabase        Surface = "database"
	SurfaceHistory         Surface = "history"
	SurfaceVote            Surface = "vote"
	SurfaceDocument        Surface = "document"
	SurfaceSuggestions     Surface = "suggestions"
	SurfaceFeature         Surface = "feature"
	SurfaceActivateGateway Surface = "activate_gateway"
)

// GenericErrorMessage is returned for errors whose details are only logged.
const GenericErrorMessage = "Something went wrong. Please try again later."

// ChatError is the error shape every endpoint responds with:
// {"code": "<type>:<surface>", "message": "...", "cause": "..."}.
type ChatError struct {
	Type    ErrorType
	Surface Surface
	Cause   string
	Err     error // underlying error, logged but never serialized
}

// NewChatError builds an error from a code such as "not_found:chat".
// Unknown codes degrade to bad_request:api.
func NewChatError(code string, cause ...string) *ChatError {
	t, s, ok := strings.Cut(code, ":")
	if !ok {
		t, s = string(TypeBadRequest), string(SurfaceAPI)
	}
	e := &ChatError{Type: ErrorType(t), Surface: Surface(s)}
	if len(cause) > 0 {
		e.Cause = cause[0]
	}
	return e
}

// Wrap attaches the underlying error for logging.
func (e *ChatError) Wrap(err error) *ChatError {
	e.Err = err
	return e
}

func (e *ChatError) Code() string {
	return string(e.Type) + ":" + string(e.Surface)
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code(), e.Err)
	}
	if e.Cause != "" {
		return e.Code() + ": " + e.Cause
	}
	return e.Code()
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// StatusCode implements HTTPError.
func (e *ChatError) StatusCode() int {
	switch e.Type {
	case TypeBadRequest:
		return http.StatusBadRequest
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeForbidden:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeRateLimit:
		return http.StatusTooManyRequests
	case TypeOffline:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LogOnly reports whether the error details must stay server-side.
func (e *ChatError) LogOnly() bool {
	return e.Surface == SurfaceDatabase
}

// Message returns the user-facing text for the code.
func (e *ChatError) Message() string {
	if e.LogOnly() {
		return GenericErrorMessage
	}
	if msg, ok := errorMessages[e.Code()]; ok {
		return msg
	}
	return GenericErrorMessage
}

var errorMessages = map[string]string{
	"bad_request:api":              "The request couldn't be processed. Please check your input and try again.",
	"bad_request:activate_gateway": "AI Gateway requires a valid credit card on file to service requests. Please add a card to unlock your free credits.",
	"unauthorized:auth":            "You need to sign in before continuing.",
	"forbidden:auth":               "Your account does not have access to this feature.",
	"rate_limit:chat":              "You have exceeded your maximum number of messages for the day. Please try again later.",
	"not_found:chat":               "The requested chat was not found. Please check the chat ID and try again.",
	"forbidden:chat":               "This chat belongs to another user. Please check the chat ID and try again.",
	"unauthorized:chat":            "You need to sign in to view this chat. Please sign in and try again.",
	"offline:chat":                 "We're having trouble sending your message. Please check your internet connection and try again.",
	"not_found:document":           "The requested document was not found. Please check the document ID and try again.",
	"forbidden:document":           "This document belongs to another user. Please check the document ID and try again.",
	"unauthorized:document":        "You need to sign in to view this document. Please sign in and try again.",
	"bad_request:document":         "The request to create or update the document was invalid. Please check your input and try again.",
	"not_found:stream":             "The requested stream was not found.",
	"unauthorized:vote":            "You need to sign in to vote. Please sign in and try again.",
	"forbidden:vote":               "You can only vote on messages in your own chats.",
	"not_found:vote":               "The chat you are voting in was not found.",
	"unauthorized:suggestions":     "You need to sign in to view suggestions.",
	"forbidden:api":                "You do not have access to this resource.",
	"forbidden:feature":            "This feature is disabled.",
	"unauthorized:api":             "You need to sign in before continuing.",
	"rate_limit:api":               "Too many requests. Please slow down and try again.",
}

// ChatErrorFrom converts an error from a service into a ChatError for the given
// surface. Errors that already are ChatErrors pass through unchanged.
func ChatErrorFrom(err error, surface Surface) *ChatError {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce
	}

	var t ErrorType
	switch {
	case errors.Is(err, ErrValidation):
		t = TypeBadRequest
		if surface != SurfaceDocument {
			surface = SurfaceAPI
		}
	case errors.Is(err, ErrConflict):
		t, surface = TypeBadRequest, SurfaceAPI
	case errors.Is(err, ErrNotFound):
		t = TypeNotFound
	case errors.Is(err, ErrUnauthorized):
		t = TypeUnauthorized
	case errors.Is(err, ErrForbidden):
		t = TypeForbidden
	case errors.Is(err, ErrRateLimited):
		t = TypeRateLimit
	case errors.Is(err, ErrDisabled):
		t, surface = TypeForbidden, SurfaceFeature
	default:
		return &ChatError{Type: TypeBadRequest, Surface: SurfaceDatabase, Err: err}
	}

	return &ChatError{Type: t, Surface: surface, Cause: causeOf(err), Err: err}
}

// causeOf exposes validation details while hiding internal wrapping of other errors.
func causeOf(err error) string {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrDisabled) {
		return err.Error()
	}
	return ""
}
