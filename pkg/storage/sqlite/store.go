// Package sqlite stores story documents as JSON rows in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mirai/pkg/apperrors"
	"mirai/pkg/schema"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stories (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	document   BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS stories_user_updated ON stories (user_id, updated_at DESC);
`

// Store provides SQLite-backed persistence for stories.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Create(ctx context.Context, story *schema.Story) error {
	doc, err := encode(story)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO stories (id, user_id, title, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		story.ID, story.UserID, story.Title, doc, toMillis(story.CreatedAt), toMillis(story.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id, userID string) (*schema.Story, error) {
	var owner string
	var doc []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT user_id, document FROM stories WHERE id = ?`, id).Scan(&owner, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Kind: "story", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	if owner != userID {
		return nil, &apperrors.OwnershipError{StoryID: id, UserID: userID}
	}
	return decode(doc)
}

// Update replaces the whole document. The owner cannot change.
func (s *Store) Update(ctx context.Context, story *schema.Story) error {
	if _, err := s.Get(ctx, story.ID, story.UserID); err != nil {
		return err
	}
	doc, err := encode(story)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`UPDATE stories SET title = ?, document = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		story.Title, doc, toMillis(story.UpdatedAt), story.ID, story.UserID,
	)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM stories WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID string) ([]*schema.Story, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT document FROM stories WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var out []*schema.Story
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		story, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, story)
	}
	return out, rows.Err()
}

func encode(story *schema.Story) ([]byte, error) {
	if story == nil || strings.TrimSpace(story.ID) == "" || strings.TrimSpace(story.UserID) == "" {
		return nil, fmt.Errorf("story id and user id are required")
	}
	b, err := json.Marshal(story)
	if err != nil {
		return nil, fmt.Errorf("encode story: %w", err)
	}
	return b, nil
}

func decode(doc []byte) (*schema.Story, error) {
	var story schema.Story
	if err := json.Unmarshal(doc, &story); err != nil {
		return nil, fmt.Errorf("decode story: %w", err)
	}
	return &story, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UTC().UnixMilli()
	}
	return t.UTC().UnixMilli()
}
