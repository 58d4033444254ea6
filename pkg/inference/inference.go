package inference

import (
	"context"

	"mirai/pkg/chat"
	"mirai/pkg/schema"
)

// Options tune one completion. A nil Format requests free text.
type Options struct {
	System              string
	Format              *schema.Format
	MaxCompletionTokens int64
	Temperature         float64
}

// Inferencer continues a conversation with a text model and returns the reply.
// When a Format is given the reply is the raw JSON document produced under that schema.
type Inferencer interface {
	Chat(ctx context.Context, c *chat.Chat, opts *Options) (string, error)
}
