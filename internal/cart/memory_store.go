package cart

import (
	"context"
	"sync"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartLine // userID -> lines
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts: make(map[string][]domain.CartLine),
	}
}

func (s *MemoryStore) Lines(_ context.Context, userID string) ([]domain.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines, exists := s.carts[userID]
	if !exists {
		return nil, ErrCartNotFound
	}
	out := make([]domain.CartLine, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *MemoryStore) UpsertLine(_ context.Context, userID string, line domain.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[userID]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i] = line
			return nil
		}
	}
	s.carts[userID] = append(lines, line)
	return nil
}

func (s *MemoryStore) SetQuantity(_ context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, exists := s.carts[userID]
	if !exists {
		return ErrCartNotFound
	}
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}
