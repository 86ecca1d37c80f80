package selection

import "sync"

// Selector tracks which entity out of a list is active for the pending
// order. It owns the repair rules: after any list mutation the selected id
// must refer to an entity in the current list, falling back to the default
// entity, then the first one, then none.
type Selector[T any] struct {
	id        func(T) string
	isDefault func(T) bool

	mu         sync.Mutex
	items      []T
	selectedID string
}

func NewSelector[T any](id func(T) string, isDefault func(T) bool) *Selector[T] {
	return &Selector[T]{id: id, isDefault: isDefault}
}

// SetList replaces the whole list and reselects: default entity first, else
// first in list order, else none.
func (s *Selector[T]) SetList(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]T, len(items))
	copy(s.items, items)

	s.selectedID = ""
	for _, item := range s.items {
		if s.isDefault(item) {
			s.selectedID = s.id(item)
			return
		}
	}
	if len(s.items) > 0 {
		s.selectedID = s.id(s.items[0])
	}
}

// Select switches to the given id. Ignored when the id is not in the list,
// so a dangling id restored from a stale draft cannot become selected.
func (s *Selector[T]) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if s.id(item) == id {
			s.selectedID = id
			return true
		}
	}
	return false
}

// Add appends a new entity and selects it immediately.
func (s *Selector[T]) Add(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
	s.selectedID = s.id(item)
}

// Remove deletes the entity. When the selected entity is removed, selection
// falls back to the first remaining entity or to none.
func (s *Selector[T]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if s.id(item) == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}

	if s.selectedID != id {
		return
	}
	if len(s.items) > 0 {
		s.selectedID = s.id(s.items[0])
	} else {
		s.selectedID = ""
	}
}

// Update replaces the entity in place. Which id is selected does not change.
func (s *Selector[T]) Update(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.id(s.items[i]) == s.id(item) {
			s.items[i] = item
			return
		}
	}
}

func (s *Selector[T]) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *Selector[T]) Selected() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.selectedID == "" {
		return zero, false
	}
	for _, item := range s.items {
		if s.id(item) == s.selectedID {
			return item, true
		}
	}
	return zero, false
}

func (s *Selector[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
