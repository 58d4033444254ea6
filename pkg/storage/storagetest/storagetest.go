// Package storagetest checks that a storage.Store behaves like the others.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"mirai/pkg/apperrors"
	"mirai/pkg/chat"
	"mirai/pkg/schema"
	"mirai/pkg/storage"
)

func story(id, user string, updated time.Time) *schema.Story {
	c := chat.New()
	c.AddUser("Write a fantasy narrative")
	c.AddAssistant("Once upon a time")
	root := &schema.StoryNode{
		ID:       id + "-root",
		Script:   schema.Script{Title: "Title " + id, Scenes: []schema.Scene{{ID: 1, VisualDescription: "a forest"}}},
		Subjects: schema.Subjects{{ID: 1, Kind: schema.KindCharacter, Name: "Lina", VoiceID: "v1"}},
		Chat:     c,
		Children: []string{},
	}
	return &schema.Story{
		ID:         id,
		UserID:     user,
		Title:      "Title " + id,
		Genre:      schema.GenreFantasy,
		Style:      schema.StyleAnime,
		Language:   "en",
		RootNodeID: root.ID,
		Nodes:      []*schema.StoryNode{root},
		CreatedAt:  updated,
		UpdatedAt:  updated,
	}
}

// Run exercises open's store through the full Store contract.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("create and get", func(t *testing.T) {
		s := open(t)
		if err := s.Create(ctx, story("s1", "alice", now)); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := s.Get(ctx, "s1", "alice")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.RootNodeID != "s1-root" || len(got.Nodes) != 1 {
			t.Fatalf("unexpected story %+v", got)
		}
		root := got.Nodes[0]
		if root.Chat.Len() != 2 || root.Subjects[0].VoiceID != "v1" {
			t.Fatalf("node not persisted whole: %+v", root)
		}
	})

	t.Run("ownership", func(t *testing.T) {
		s := open(t)
		if err := s.Create(ctx, story("s1", "alice", now)); err != nil {
			t.Fatal(err)
		}
		var own *apperrors.OwnershipError
		if _, err := s.Get(ctx, "s1", "bob"); !errors.As(err, &own) {
			t.Fatalf("Get by another user: want OwnershipError, got %v", err)
		}
		if err := s.Delete(ctx, "s1", "bob"); !errors.As(err, &own) {
			t.Fatalf("Delete by another user: want OwnershipError, got %v", err)
		}
		if err := s.Update(ctx, story("s1", "bob", now)); !errors.As(err, &own) {
			t.Fatalf("Update by another user: want OwnershipError, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		s := open(t)
		var nf *apperrors.NotFoundError
		if _, err := s.Get(ctx, "missing", "alice"); !errors.As(err, &nf) {
			t.Fatalf("want NotFoundError, got %v", err)
		}
		if err := s.Delete(ctx, "missing", "alice"); !errors.As(err, &nf) {
			t.Fatalf("want NotFoundError, got %v", err)
		}
		if err := s.Update(ctx, story("missing", "alice", now)); !errors.As(err, &nf) {
			t.Fatalf("want NotFoundError, got %v", err)
		}
	})

	t.Run("update replaces the document", func(t *testing.T) {
		s := open(t)
		st := story("s1", "alice", now)
		if err := s.Create(ctx, st); err != nil {
			t.Fatal(err)
		}
		child := &schema.StoryNode{ID: "s1-child", ParentID: "s1-root", Decision: "open the door"}
		st.Nodes = append(st.Nodes, child)
		st.Nodes[0].Children = append(st.Nodes[0].Children, child.ID)
		st.UpdatedAt = now.Add(time.Minute)
		if err := s.Update(ctx, st); err != nil {
			t.Fatalf("Update: %v", err)
		}
		got, err := s.Get(ctx, "s1", "alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Nodes) != 2 || len(got.Nodes[0].Children) != 1 || got.Nodes[1].Decision != "open the door" {
			t.Fatalf("update not persisted: %+v", got)
		}
	})

	t.Run("list and delete", func(t *testing.T) {
		s := open(t)
		for i, id := range []string{"a", "b", "c"} {
			if err := s.Create(ctx, story(id, "alice", now.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Create(ctx, story("d", "bob", now)); err != nil {
			t.Fatal(err)
		}

		list, err := s.List(ctx, "alice")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 || list[0].ID != "c" || list[2].ID != "a" {
			t.Fatalf("List order = %v", ids(list))
		}

		if err := s.Delete(ctx, "b", "alice"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		list, _ = s.List(ctx, "alice")
		if len(list) != 2 {
			t.Fatalf("after delete: %v", ids(list))
		}
		if list, _ := s.List(ctx, "carol"); len(list) != 0 {
			t.Fatalf("carol sees %v", ids(list))
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		s := open(t)
		if err := s.Create(ctx, story("s1", "alice", now)); err != nil {
			t.Fatal(err)
		}
		if err := s.Create(ctx, story("s1", "alice", now)); err == nil {
			t.Fatal("expected duplicate id to be rejected")
		}
	})
}

func ids(list []*schema.Story) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
