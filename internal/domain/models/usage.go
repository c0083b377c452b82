package models

// Usage is token accounting for one generation. Cost fields are present only
// when the model catalog could price the model.
type Usage struct {
	InputTokens     int64    `json:"inputTokens"`
	OutputTokens    int64    `json:"outputTokens"`
	ReasoningTokens int64    `json:"reasoningTokens,omitempty"`
	TotalTokens     int64    `json:"totalTokens"`
	ModelID         string   `json:"modelId,omitempty"`
	ContextWindow   int      `json:"contextWindow,omitempty"`
	InputCostUSD    *float64 `json:"inputCostUSD,omitempty"`
	OutputCostUSD   *float64 `json:"outputCostUSD,omitempty"`
	TotalCostUSD    *float64 `json:"totalCostUSD,omitempty"`
}

// Add accumulates another step's usage.
func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.ReasoningTokens += o.ReasoningTokens
	u.TotalTokens = u.InputTokens + u.OutputTokens
}
