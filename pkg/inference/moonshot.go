package inference

// NewMoonshotInferencer creates an inferencer against the Moonshot AI OpenAI-compatible API.
func NewMoonshotInferencer(apiKey string, model string) *OpenAIInferencer {
	if model == "" {
		model = "kimi-k2-5"
	}
	o := NewOpenAIInferencer(apiKey, model)
	o.ChangeBaseURL("https://api.moonshot.ai/v1")
	return o
}
