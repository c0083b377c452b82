package llm

import (
	"context"
	"fmt"
	"strings"
)

// GenerateText runs a request to completion and returns the concatenated text.
// Used for short side generations such as chat titles.
func GenerateText(ctx context.Context, p LLMProvider, req *GenerateRequest) (string, error) {
	events, err := p.StreamResponse(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for ev := range events {
		switch ev.Type {
		case EventTextDelta:
			sb.WriteString(ev.Delta)
		case EventError:
			// Drain so the producer goroutine can exit
			for range events {
			}
			return "", ev.Err
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%s returned no text", p.Name())
	}
	return text, nil
}
