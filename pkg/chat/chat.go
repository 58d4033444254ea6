// Package chat is the conversation carried through every generation stage.
package chat

import "slices"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn. Image holds an optional attachment sent with a user turn
// and is never persisted.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Image   []byte `json:"-"`
}

// Chat is an append-only list of turns owned by one in-flight request.
type Chat struct {
	Messages []Message `json:"messages"`
}

func New() *Chat {
	return &Chat{}
}

func (c *Chat) AddUser(content string) {
	c.Messages = append(c.Messages, Message{Role: RoleUser, Content: content})
}

// AddUserImage appends a user turn with an attached image.
func (c *Chat) AddUserImage(content string, image []byte) {
	c.Messages = append(c.Messages, Message{Role: RoleUser, Content: content, Image: slices.Clone(image)})
}

func (c *Chat) AddAssistant(content string) {
	c.Messages = append(c.Messages, Message{Role: RoleAssistant, Content: content})
}

// Last returns the most recent turn, or false when the chat is empty.
func (c *Chat) Last() (Message, bool) {
	if c == nil || len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

func (c *Chat) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Messages)
}

// Clone deep-copies the chat so a branch can extend it without touching its parent.
func (c *Chat) Clone() *Chat {
	if c == nil {
		return New()
	}
	out := &Chat{Messages: make([]Message, len(c.Messages))}
	for i, m := range c.Messages {
		m.Image = slices.Clone(m.Image)
		out.Messages[i] = m
	}
	return out
}
