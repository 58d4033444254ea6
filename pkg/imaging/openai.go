package imaging

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"mirai/pkg/utils"
)

type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey string, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		client: &client,
		model:  cmp.Or(model, string(openai.ImageModelDallE3)),
	}
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	log.Debug("openai image", "model", o.model, "prompt", utils.LimitStr(prompt, 60))
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(o.model),
		N:              openai.Int(1),
		Size:           openAISize(opts),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("no image returned")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// openAISize picks the closest supported size; the compositor scales to the exact frame.
func openAISize(opts Options) openai.ImageGenerateParamsSize {
	w, h := cmp.Or(opts.Width, DefaultWidth), cmp.Or(opts.Height, DefaultHeight)
	switch {
	case w > h:
		return openai.ImageGenerateParamsSize1792x1024
	case h > w:
		return openai.ImageGenerateParamsSize1024x1792
	}
	return openai.ImageGenerateParamsSize1024x1024
}
