package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mstream "github.com/haowjy/meridian-stream-go"

	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	"chatbot/internal/service/llm/chat"
)

// MessageReader is the read side catchup needs.
type MessageReader interface {
	GetMessage(ctx context.Context, id string) (*models.Message, error)
}

// buildCatchupFunc creates a catchup function that replays a finished
// generation from the database. Once the assistant message is persisted the
// whole message is sent as one data-appendMessage event; before that there is
// nothing to replay and live events cover the gap.
func buildCatchupFunc(messages MessageReader, chatExternalID, messageID string, logger *slog.Logger) mstream.CatchupFunc {
	return func(streamID string, lastEventID string) ([]mstream.Event, error) {
		ctx := context.Background()

		logger.Debug("building catchup events",
			"stream_id", streamID,
			"last_event_id", lastEventID,
		)

		msg, err := messages.GetMessage(ctx, messageID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			logger.Error("failed to get message for catchup",
				"message_id", messageID,
				"error", err,
			)
			return nil, fmt.Errorf("failed to get message: %w", err)
		}

		event, err := appendMessageEvent(msg, chatExternalID)
		if err != nil {
			return nil, err
		}
		return []mstream.Event{event}, nil
	}
}

// appendMessageChunk wraps a stored message in a transient data-appendMessage chunk.
func appendMessageChunk(ui models.UIMessage) (models.UIChunk, error) {
	payload, err := json.Marshal(ui)
	if err != nil {
		return models.UIChunk{}, fmt.Errorf("encode message: %w", err)
	}
	return models.DataChunk(models.DataAppendMessage, string(payload), true), nil
}

func appendMessageEvent(msg *models.Message, chatExternalID string) (mstream.Event, error) {
	ui := chat.NormalizeMessages([]models.Message{*msg}, chatExternalID)[0]
	chunk, err := appendMessageChunk(ui)
	if err != nil {
		return mstream.Event{}, err
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return mstream.Event{}, err
	}
	return mstream.NewEvent(data).WithType(chunk.Type), nil
}
