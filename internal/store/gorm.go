package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/menuvision/backend/internal/models"
)

// GormStore persists sessions and items in a relational database. The
// schema mirrors the in-memory store: serial primary keys give the same
// monotonic id guarantee per table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the menu tables and returns a store backed by db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.MenuSession{}, &models.MenuItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate menu tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreateSession(ctx context.Context, originalText string) (*models.MenuSession, error) {
	session := &models.MenuSession{OriginalText: originalText}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (s *GormStore) GetSession(ctx context.Context, id int) (*models.MenuSession, error) {
	var session models.MenuSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *GormStore) CreateItem(ctx context.Context, sessionID int, name, description, imageURL string) (*models.MenuItem, error) {
	item := &models.MenuItem{
		SessionID:   sessionID,
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *GormStore) GetItem(ctx context.Context, id int) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (s *GormStore) ListItemsBySession(ctx context.Context, sessionID int) ([]*models.MenuItem, error) {
	items := make([]*models.MenuItem, 0)
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list session items: %w", err)
	}
	return items, nil
}

func (s *GormStore) ListAllItems(ctx context.Context) ([]*models.MenuItem, error) {
	items := make([]*models.MenuItem, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}
