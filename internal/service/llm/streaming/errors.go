package streaming

import (
	"errors"
	"log/slog"
	"strings"

	"chatbot/internal/domain"
)

const gatewayCardError = "AI Gateway requires a valid credit card"

// classifyError maps a failure of the chat route to the error returned to the
// client. Unknown failures are logged with the request id and surface as
// offline:chat.
func classifyError(err error, requestID string, logger *slog.Logger) *domain.ChatError {
	var ce *domain.ChatError
	if errors.As(err, &ce) {
		return ce
	}

	if strings.Contains(err.Error(), gatewayCardError) {
		return domain.NewChatError("bad_request:activate_gateway").Wrap(err)
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrRateLimited),
		errors.Is(err, domain.ErrDisabled):
		return domain.ChatErrorFrom(err, domain.SurfaceChat)
	}

	logger.Error("unhandled error in chat API", "request_id", requestID, "error", err)
	return domain.NewChatError("offline:chat").Wrap(err)
}
