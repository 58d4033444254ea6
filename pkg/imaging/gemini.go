package imaging

import (
	"cmp"
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"google.golang.org/genai"

	"mirai/pkg/utils"
)

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(apiKey string, model string) (*Gemini, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{
		client: client,
		model:  cmp.Or(model, "imagen-4.0-generate-001"),
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) ([]byte, error) {
	log.Debug("gemini image", "model", g.model, "prompt", utils.LimitStr(prompt, 60))
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio(opts),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, errors.New("no image returned")
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

func aspectRatio(opts Options) string {
	w, h := cmp.Or(opts.Width, DefaultWidth), cmp.Or(opts.Height, DefaultHeight)
	switch {
	case w*9 == h*16:
		return "16:9"
	case w*16 == h*9:
		return "9:16"
	case w > h:
		return "4:3"
	case h > w:
		return "3:4"
	}
	return "1:1"
}
