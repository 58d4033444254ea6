package inference

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"mirai/pkg/chat"
	"mirai/pkg/utils"
)

// OpenAIInferencer implements Inferencer using OpenAI's official Go SDK.
type OpenAIInferencer struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewOpenAIInferencer creates a new inferencer instance using OpenAI client.
func NewOpenAIInferencer(apiKey string, model string) *OpenAIInferencer {
	if model == "" {
		model = "gpt-4o"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIInferencer{
		client: &client,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *OpenAIInferencer) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

func (o *OpenAIInferencer) SetModel(model string) {
	o.model = model
}

// Chat sends the whole conversation to the chat completion endpoint.
func (o *OpenAIInferencer) Chat(ctx context.Context, c *chat.Chat, opts *Options) (string, error) {
	if opts == nil {
		opts = new(Options)
	}
	params := openai.ChatCompletionNewParams{
		Model:    o.model,
		Messages: openAIMessages(opts.System, c),
	}
	if opts.Format != nil {
		params.ResponseFormat = opts.Format.ResponseFormat()
	}
	params.MaxCompletionTokens = openai.Int(cmp.Or(opts.MaxCompletionTokens, 4096*4))
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}

	if last, ok := c.Last(); ok {
		if tokens, err := utils.NumTokens(last.Content); err == nil {
			log.Debug("chat completion", "model", o.model, "turns", c.Len(), "last_turn_tokens", tokens)
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai inference error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	if resp.Choices[0].Message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Choices[0].Message.Refusal)
	}
	if resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion content")
	}

	return resp.Choices[0].Message.Content, nil
}

func openAIMessages(system string, c *chat.Chat) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Role: "system",
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.Opt[string]{Value: system},
				},
			},
		})
	}
	if c == nil {
		return out
	}
	for _, m := range c.Messages {
		switch m.Role {
		case chat.RoleAssistant:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role: "assistant",
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: param.Opt[string]{Value: m.Content},
					},
				},
			})
		default:
			content := openai.ChatCompletionUserMessageParamContentUnion{
				OfString: param.Opt[string]{Value: m.Content},
			}
			if len(m.Image) > 0 {
				content = openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						{OfText: &openai.ChatCompletionContentPartTextParam{Text: m.Content}},
						{OfImageURL: &openai.ChatCompletionContentPartImageParam{
							ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL(m.Image)},
						}},
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Role:    "user",
					Content: content,
				},
			})
		}
	}
	return out
}

func dataURL(b []byte) string {
	return "data:" + http.DetectContentType(b) + ";base64," + base64.StdEncoding.EncodeToString(b)
}
