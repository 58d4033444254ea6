// Package imaging renders scene illustrations and thumbnails.
package imaging

import (
	"context"
	"fmt"
	"strings"

	"mirai/pkg/schema"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

type Options struct {
	Width  int
	Height int
	Style  schema.Style
}

// Generator renders one image for a fully resolved prompt. The returned bytes are PNG or JPEG.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) ([]byte, error)
}

var styleHints = map[schema.Style]string{
	schema.StyleAnime:      "anime style illustration, cel shading, expressive characters",
	schema.StyleCartoon:    "cartoon style, bold outlines, flat bright colors",
	schema.StyleComic:      "comic book panel, ink lines, halftone shading",
	schema.StyleRealistic:  "photorealistic, cinematic lighting, shallow depth of field",
	schema.StyleWatercolor: "watercolor painting, soft edges, paper texture",
}

// Prompt decorates a scene description with the story's style and framing constraints.
func Prompt(description string, style schema.Style) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(description))
	if hint, ok := styleHints[style]; ok {
		fmt.Fprintf(&b, "\n\nStyle: %s.", hint)
	}
	b.WriteString("\nWide 16:9 composition. No text, captions, watermarks or speech bubbles.")
	return b.String()
}
