// Package storage persists whole story documents scoped to their owner.
package storage

import (
	"context"

	"mirai/pkg/schema"
)

// Store reads and writes complete stories. Get, Update and Delete return
// *apperrors.NotFoundError for unknown ids and *apperrors.OwnershipError when the
// story belongs to another user.
type Store interface {
	Create(ctx context.Context, story *schema.Story) error
	Get(ctx context.Context, id, userID string) (*schema.Story, error)
	Update(ctx context.Context, story *schema.Story) error
	Delete(ctx context.Context, id, userID string) error
	// List returns the user's stories, most recently updated first.
	List(ctx context.Context, userID string) ([]*schema.Story, error)
	Close() error
}
