// Package inferencetest provides a scripted Inferencer for tests.
package inferencetest

import (
	"context"
	"errors"
	"sync"

	"mirai/pkg/chat"
	"mirai/pkg/inference"
)

// Reply computes the answer to one call. Returning an error fails the call.
type Reply func(c *chat.Chat, opts *inference.Options) (string, error)

// Static answers with a fixed string.
func Static(s string) Reply {
	return func(*chat.Chat, *inference.Options) (string, error) { return s, nil }
}

// Fail answers with err.
func Fail(err error) Reply {
	return func(*chat.Chat, *inference.Options) (string, error) { return "", err }
}

// Call records what the inferencer saw.
type Call struct {
	Turns  int
	Last   chat.Message
	Format string
}

// Scripted replays replies in order. Once exhausted, the last reply repeats.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

func (s *Scripted) Chat(_ context.Context, c *chat.Chat, opts *inference.Options) (string, error) {
	s.mu.Lock()
	if len(s.replies) == 0 {
		s.mu.Unlock()
		return "", errors.New("no scripted reply")
	}
	idx := min(len(s.calls), len(s.replies)-1)
	call := Call{Turns: c.Len()}
	call.Last, _ = c.Last()
	if opts != nil && opts.Format != nil {
		call.Format = opts.Format.Name
	}
	s.calls = append(s.calls, call)
	reply := s.replies[idx]
	s.mu.Unlock()

	return reply(c, opts)
}

func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// ByFormat dispatches on the requested format name; free-text calls use the "" key.
type ByFormat map[string]inference.Inferencer

func (b ByFormat) Chat(ctx context.Context, c *chat.Chat, opts *inference.Options) (string, error) {
	name := ""
	if opts != nil && opts.Format != nil {
		name = opts.Format.Name
	}
	inf, ok := b[name]
	if !ok {
		return "", errors.New("no inferencer for format " + name)
	}
	return inf.Chat(ctx, c, opts)
}
