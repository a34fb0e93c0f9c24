package feed

import (
	"sync"

	"github.com/sawpanic/smartflow/internal/domain"
)

// BookState holds the latest order-book snapshot. Updates replace the whole
// snapshot; readers get the stored pointer, which is never mutated after
// publication.
type BookState struct {
	mu   sync.RWMutex
	book *domain.OrderBook
}

// NewBookState starts empty.
func NewBookState() *BookState { return &BookState{} }

// Update publishes a new snapshot.
func (s *BookState) Update(book *domain.OrderBook) {
	s.mu.Lock()
	s.book = book
	s.mu.Unlock()
}

// Snapshot returns the latest book, nil before the first update.
func (s *BookState) Snapshot() *domain.OrderBook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book
}
