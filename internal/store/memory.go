package store

import (
	"context"
	"sync"
	"time"

	"github.com/menuvision/backend/internal/models"
)

// MemoryStore keeps sessions and items in process memory. Ids are
// monotonically increasing per entity kind, starting at 1, and are never
// reused within a process lifetime. State is lost on restart.
type MemoryStore struct {
	mu            sync.Mutex
	sessions      map[int]*models.MenuSession
	items         map[int]*models.MenuItem
	itemOrder     []int
	nextSessionID int
	nextItemID    int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:      make(map[int]*models.MenuSession),
		items:         make(map[int]*models.MenuItem),
		nextSessionID: 1,
		nextItemID:    1,
	}
}

func (s *MemoryStore) CreateSession(_ context.Context, originalText string) (*models.MenuSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := &models.MenuSession{
		ID:           s.nextSessionID,
		OriginalText: originalText,
		CreatedAt:    time.Now(),
	}
	s.nextSessionID++
	s.sessions[session.ID] = session

	return copySession(session), nil
}

func (s *MemoryStore) GetSession(_ context.Context, id int) (*models.MenuSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(session), nil
}

func (s *MemoryStore) CreateItem(_ context.Context, sessionID int, name, description, imageURL string) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := &models.MenuItem{
		ID:          s.nextItemID,
		SessionID:   sessionID,
		Name:        name,
		Description: description,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}
	s.nextItemID++
	s.items[item.ID] = item
	s.itemOrder = append(s.itemOrder, item.ID)

	return copyItem(item), nil
}

func (s *MemoryStore) GetItem(_ context.Context, id int) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyItem(item), nil
}

func (s *MemoryStore) ListItemsBySession(_ context.Context, sessionID int) ([]*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*models.MenuItem, 0)
	for _, id := range s.itemOrder {
		if item := s.items[id]; item.SessionID == sessionID {
			items = append(items, copyItem(item))
		}
	}
	return items, nil
}

func (s *MemoryStore) ListAllItems(_ context.Context) ([]*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]*models.MenuItem, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		items = append(items, copyItem(s.items[id]))
	}
	return items, nil
}

// Copies keep callers from mutating stored state through the returned pointer.

func copySession(s *models.MenuSession) *models.MenuSession {
	c := *s
	return &c
}

func copyItem(i *models.MenuItem) *models.MenuItem {
	c := *i
	return &c
}
