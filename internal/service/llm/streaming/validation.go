package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"chatbot/internal/config"
	"chatbot/internal/domain"
	"chatbot/internal/domain/models"
	domainllm "chatbot/internal/domain/services/llm"
	llmservice "chatbot/internal/service/llm"
)

// validateChatRequest checks the POST /api/chat body. Failures wrap
// domain.ErrValidation.
func validateChatRequest(req *domainllm.ChatRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.ID, validation.Required),
		validation.Field(&req.Message, validation.By(validateIncoming)),
		validation.Field(&req.SelectedChatModel,
			validation.Required,
			validation.In(llmservice.ModelChat, llmservice.ModelChatReasoning),
		),
		validation.Field(&req.SelectedVisibilityType,
			validation.Required,
			validation.In(models.VisibilityPublic, models.VisibilityPrivate),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

func validateIncoming(value interface{}) error {
	msg, ok := value.(domainllm.IncomingMessage)
	if !ok {
		return errors.New("invalid message")
	}
	return validation.ValidateStruct(&msg,
		validation.Field(&msg.ID, validation.Required),
		validation.Field(&msg.Role, validation.Required, validation.In(models.RoleUser)),
		validation.Field(&msg.Parts, validation.Required, validation.Each(validation.By(validatePart))),
	)
}

func validatePart(value interface{}) error {
	raw, ok := value.(json.RawMessage)
	if !ok {
		return errors.New("invalid part")
	}
	var p models.Part
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.New("part must be an object")
	}

	switch p.Type {
	case models.PartText:
		return validation.ValidateStruct(&p,
			validation.Field(&p.Text, validation.Required, validation.RuneLength(1, config.MaxMessageTextLength)),
		)
	case models.PartFile:
		return validation.ValidateStruct(&p,
			validation.Field(&p.MediaType, validation.Required, validation.In(toInterfaces(config.AllowedAttachmentTypes)...)),
			validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
			validation.Field(&p.URL, validation.Required, validation.Match(urlPattern)),
		)
	default:
		return fmt.Errorf("unsupported part type %q", p.Type)
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
