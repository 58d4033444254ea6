// Package file keeps one JSON document per story under a directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"mirai/pkg/apperrors"
	"mirai/pkg/schema"
	"mirai/pkg/utils"
)

var safeID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Store struct {
	dir string
	mu  sync.RWMutex
}

func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) path(id string) (string, error) {
	if !safeID.MatchString(id) {
		return "", &apperrors.NotFoundError{Kind: "story", ID: id}
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *Store) Create(ctx context.Context, story *schema.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if story == nil || story.UserID == "" {
		return fmt.Errorf("story id and user id are required")
	}
	path, err := s.path(story.ID)
	if err != nil {
		return fmt.Errorf("story id and user id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if utils.Exists(path) {
		return fmt.Errorf("story %s already exists", story.ID)
	}
	return utils.Save(path, story)
}

func (s *Store) Get(ctx context.Context, id, userID string) (*schema.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id, userID)
}

func (s *Store) load(id, userID string) (*schema.Story, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	if !utils.Exists(path) {
		return nil, &apperrors.NotFoundError{Kind: "story", ID: id}
	}
	story, err := utils.Load[schema.Story](path)
	if err != nil {
		return nil, fmt.Errorf("load story %s: %w", id, err)
	}
	if story.UserID != userID {
		return nil, &apperrors.OwnershipError{StoryID: id, UserID: userID}
	}
	return &story, nil
}

func (s *Store) Update(ctx context.Context, story *schema.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(story.ID, story.UserID); err != nil {
		return err
	}
	path, _ := s.path(story.ID)
	return utils.Save(path, story)
}

func (s *Store) Delete(ctx context.Context, id, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(id, userID); err != nil {
		return err
	}
	path, _ := s.path(id)
	return os.Remove(path)
}

func (s *Store) List(ctx context.Context, userID string) ([]*schema.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []*schema.Story
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		story, err := utils.Load[schema.Story](filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}
		if story.UserID == userID {
			out = append(out, &story)
		}
	}
	slices.SortFunc(out, func(a, b *schema.Story) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
