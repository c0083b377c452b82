package httputil

import (
	"encoding/json"
	"net/http"

	"chatbot/internal/domain"
)

// RespondJSON writes a JSON response with the given status code.
// It marshals first so an encoding failure never leaves a partial body.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, domain.NewChatError("bad_request:api", "failed to encode response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// RespondError writes a ChatError. Log-only errors keep their cause server-side.
func RespondError(w http.ResponseWriter, e *domain.ChatError) {
	body := ErrorBody{
		Code:    e.Code(),
		Message: e.Message(),
	}
	if !e.LogOnly() {
		body.Cause = e.Cause
	}

	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	w.Write(payload)
}
