package newsletter

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer prepares mail bodies. The HTML part is passed through a UGC
// policy and the plain-text part is the markdown rendering of that HTML.
//
// Safe for concurrent use.
type Renderer struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewRenderer creates a renderer with the default policies.
func NewRenderer() *Renderer {
	return &Renderer{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

// Render fills msg.HTML with the sanitized body and msg.Text with its
// plain-text alternative.
func (r *Renderer) Render(msg Message) (Message, error) {
	msg.HTML = r.policy.Sanitize(msg.HTML)

	text, err := r.converter.ConvertString(msg.HTML)
	if err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	msg.Text = text
	return msg, nil
}

var defaultRenderer = NewRenderer()
