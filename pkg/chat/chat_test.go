package chat

import "testing"

func TestCloneIsIndependent(t *testing.T) {
	parent := New()
	parent.AddUser("hello")
	parent.AddAssistant("world")

	child := parent.Clone()
	child.AddUser("open the door")

	if parent.Len() != 2 {
		t.Fatalf("parent mutated: %d messages", parent.Len())
	}
	if child.Len() != 3 {
		t.Fatalf("child has %d messages, want 3", child.Len())
	}

	child.Messages[0].Content = "changed"
	if parent.Messages[0].Content != "hello" {
		t.Fatalf("clone shares message storage with parent")
	}
}

func TestCloneCopiesImages(t *testing.T) {
	c := New()
	c.AddUserImage("look", []byte{1, 2, 3})
	clone := c.Clone()
	clone.Messages[0].Image[0] = 9
	if c.Messages[0].Image[0] != 1 {
		t.Fatalf("image bytes shared between clones")
	}
}

func TestLast(t *testing.T) {
	var c *Chat
	if _, ok := c.Last(); ok {
		t.Fatal("nil chat reported a last message")
	}
	c = New()
	c.AddUser("a")
	c.AddAssistant("b")
	m, ok := c.Last()
	if !ok || m.Role != RoleAssistant || m.Content != "b" {
		t.Fatalf("unexpected last message %+v", m)
	}
}
