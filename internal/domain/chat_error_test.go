package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatErrorStatusCodes(t *testing.T) {
	cases := map[string]int{
		"bad_request:api":   http.StatusBadRequest,
		"unauthorized:chat": http.StatusUnauthorized,
		"forbidden:chat":    http.StatusForbidden,
		"not_found:stream":  http.StatusNotFound,
		"rate_limit:chat":   http.StatusTooManyRequests,
		"offline:chat":      http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		e := NewChatError(code)
		assert.Equal(t, code, e.Code())
		assert.Equal(t, status, e.StatusCode(), code)
	}
}

func TestChatErrorMessages(t *testing.T) {
	assert.Equal(t,
		"You have exceeded your maximum number of messages for the day. Please try again later.",
		NewChatError("rate_limit:chat").Message())

	// Database errors never leak details
	e := NewChatError("bad_request:database", "Failed to save chat")
	assert.True(t, e.LogOnly())
	assert.Equal(t, GenericErrorMessage, e.Message())

	// Unknown codes get the generic message
	assert.Equal(t, GenericErrorMessage, NewChatError("not_found:nothing").Message())
}

func TestNewChatErrorMalformedCode(t *testing.T) {
	e := NewChatError("garbage")
	assert.Equal(t, "bad_request:api", e.Code())
}

func TestChatErrorFrom(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		surface Surface
		want    string
	}{
		{"not found", fmt.Errorf("chat abc: %w", ErrNotFound), SurfaceChat, "not_found:chat"},
		{"forbidden", ErrForbidden, SurfaceDocument, "forbidden:document"},
		{"unauthorized", ErrUnauthorized, SurfaceVote, "unauthorized:vote"},
		{"validation", fmt.Errorf("%w: title required", ErrValidation), SurfaceVote, "bad_request:api"},
		{"document validation", fmt.Errorf("%w: kind", ErrValidation), SurfaceDocument, "bad_request:document"},
		{"disabled", fmt.Errorf("%w: uploads", ErrDisabled), SurfaceAPI, "forbidden:feature"},
		{"rate limit", ErrRateLimited, SurfaceChat, "rate_limit:chat"},
		{"conflict", &ConflictError{Message: "message already exists"}, SurfaceChat, "bad_request:api"},
		{"unknown", errors.New("connection refused"), SurfaceChat, "bad_request:database"},
		{"passthrough", NewChatError("offline:chat"), SurfaceAPI, "offline:chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChatErrorFrom(tt.err, tt.surface).Code())
		})
	}
}

func TestChatErrorUnwrap(t *testing.T) {
	root := errors.New("boom")
	e := NewChatError("offline:chat").Wrap(root)
	assert.ErrorIs(t, e, root)
}
