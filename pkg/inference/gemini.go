package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"mirai/pkg/chat"
)

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates a new inferencer instance using the Gemini API.
func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

// Chat replays the conversation as user/model contents.
func (o *GeminiInferencer) Chat(ctx context.Context, c *chat.Chat, opts *Options) (string, error) {
	if opts == nil {
		opts = new(Options)
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cmp.Or(opts.MaxCompletionTokens, 4096*4)),
	}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.Format != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = opts.Format.Schema
	}

	result, err := o.client.Models.GenerateContent(ctx, o.model, geminiContents(c), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("empty completion content")
	}
	return text, nil
}

func geminiContents(c *chat.Chat) []*genai.Content {
	if c == nil {
		return nil
	}
	out := make([]*genai.Content, 0, c.Len())
	for _, m := range c.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == chat.RoleAssistant {
			role = genai.RoleModel
		}
		parts := []*genai.Part{genai.NewPartFromText(m.Content)}
		if len(m.Image) > 0 {
			parts = append(parts, genai.NewPartFromBytes(m.Image, http.DetectContentType(m.Image)))
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out
}
