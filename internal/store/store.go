// Package store owns the persisted entities of a processing run:
// sessions and menu items. The in-memory implementation is the default;
// a Postgres-backed implementation is selected when DATABASE_URL is set.
package store

import (
	"context"
	"errors"

	"github.com/menuvision/backend/internal/models"
)

// ErrNotFound is returned by lookups with an unknown id.
var ErrNotFound = errors.New("not found")

// Store is the session and item storage contract. Items and sessions are
// append-only: created once, read many times, never updated or deleted.
type Store interface {
	CreateSession(ctx context.Context, originalText string) (*models.MenuSession, error)
	GetSession(ctx context.Context, id int) (*models.MenuSession, error)
	CreateItem(ctx context.Context, sessionID int, name, description, imageURL string) (*models.MenuItem, error)
	GetItem(ctx context.Context, id int) (*models.MenuItem, error)
	ListItemsBySession(ctx context.Context, sessionID int) ([]*models.MenuItem, error)
	ListAllItems(ctx context.Context) ([]*models.MenuItem, error)
}
