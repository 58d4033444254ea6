package inference

// NewGrokInferencer creates an inferencer against the xAI OpenAI-compatible API.
func NewGrokInferencer(apiKey string, model string) *OpenAIInferencer {
	if model == "" {
		model = "grok-4-fast-reasoning"
	}
	o := NewOpenAIInferencer(apiKey, model)
	o.ChangeBaseURL("https://api.x.ai/v1")
	return o
}
