package capabilities

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToolCallQuality grades how reliably a model follows tool schemas.
type ToolCallQuality string

const (
	ToolCallQualityExcellent ToolCallQuality = "excellent"
	ToolCallQualityGood      ToolCallQuality = "good"
	ToolCallQualityBasic     ToolCallQuality = "basic"
	ToolCallQualityNone      ToolCallQuality = "none"
)

// PricingTier prices prompts up to Threshold input tokens. Prices are USD per
// million tokens keyed by modality ("text", "image", ...).
type PricingTier struct {
	Threshold   *int               `yaml:"threshold" json:"threshold"`
	InputPrice  map[string]float64 `yaml:"input_price" json:"input_price"`
	OutputPrice map[string]float64 `yaml:"output_price" json:"output_price"`
}

// ModelCapabilities is one catalog entry.
type ModelCapabilities struct {
	ID          string `yaml:"-" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	SupportsTools    bool            `yaml:"supports_tools" json:"supports_tools"`
	SupportsThinking bool            `yaml:"supports_thinking" json:"supports_thinking"`
	SupportsVision   bool            `yaml:"supports_vision" json:"supports_vision"`
	ToolCallQuality  ToolCallQuality `yaml:"tool_call_quality" json:"tool_call_quality"`

	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`

	PricingTiers []PricingTier `yaml:"pricing_tiers" json:"pricing_tiers"`
}

// TierFor picks the first tier whose threshold covers inputTokens. A nil
// threshold matches everything, so the open-ended tier goes last.
func (m *ModelCapabilities) TierFor(inputTokens int64) (*PricingTier, bool) {
	for i := range m.PricingTiers {
		t := &m.PricingTiers[i]
		if t.Threshold == nil || inputTokens <= int64(*t.Threshold) {
			return t, true
		}
	}
	return nil, false
}

// ProviderCapabilities lists the models of one provider in file order.
type ProviderCapabilities struct {
	Provider string              `json:"provider"`
	Models   []ModelCapabilities `json:"models"`
}

// UnmarshalYAML reads the "models" mapping pair by pair so the catalog keeps
// the order models were written in.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	var doc struct {
		Provider string    `yaml:"provider"`
		Models   yaml.Node `yaml:"models"`
	}
	if err := node.Decode(&doc); err != nil {
		return err
	}
	p.Provider = doc.Provider
	p.Models = nil

	if doc.Models.Kind == 0 {
		return nil
	}
	if doc.Models.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: models must be a mapping", doc.Models.Line)
	}
	pairs := doc.Models.Content
	for i := 0; i+1 < len(pairs); i += 2 {
		var model ModelCapabilities
		if err := pairs[i+1].Decode(&model); err != nil {
			return fmt.Errorf("model %s: %w", pairs[i].Value, err)
		}
		model.ID = pairs[i].Value
		p.Models = append(p.Models, model)
	}
	return nil
}
