package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatbot/internal/domain"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        *domain.ChatError
		wantStatus int
		wantCause  string
	}{
		{
			name:       "rate limit",
			err:        domain.NewChatError("rate_limit:chat"),
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "cause is exposed",
			err:        domain.NewChatError("bad_request:api", "message too long"),
			wantStatus: http.StatusBadRequest,
			wantCause:  "message too long",
		},
		{
			name:       "database cause is hidden",
			err:        domain.NewChatError("bad_request:database", "duplicate key"),
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.err.Code() {
				t.Errorf("code = %q, want %q", body.Code, tt.err.Code())
			}
			if body.Cause != tt.wantCause {
				t.Errorf("cause = %q, want %q", body.Cause, tt.wantCause)
			}
			if body.Message == "" {
				t.Error("message is empty")
			}
		})
	}
}
