package content

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryContentStore is an in-memory ContentStore for tests and local runs.
type MemoryContentStore struct {
	mu    sync.RWMutex
	items map[string]Content // keyed by lowercased slug
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{items: make(map[string]Content)}
}

func (s *MemoryContentStore) GetBySlug(ctx context.Context, slug string) (*Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[strings.ToLower(slug)]
	if !ok {
		return nil, ErrContentNotFound
	}
	return &item, nil
}

func (s *MemoryContentStore) Create(ctx context.Context, item *Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(item.Slug)
	if _, ok := s.items[key]; ok {
		return ErrContentExists
	}
	s.items[key] = *item
	return nil
}

// MemoryEnrollmentStore is an in-memory EnrollmentStore.
type MemoryEnrollmentStore struct {
	mu          sync.RWMutex
	enrollments map[uuid.UUID][]Enrollment
}

func NewMemoryEnrollmentStore() *MemoryEnrollmentStore {
	return &MemoryEnrollmentStore{enrollments: make(map[uuid.UUID][]Enrollment)}
}

func (s *MemoryEnrollmentStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.enrollments[userID]
	if len(list) == 0 {
		return nil, ErrEnrollmentNotFound
	}
	earliest := list[0]
	for _, e := range list[1:] {
		if e.StartsAt.Before(earliest.StartsAt) {
			earliest = e
		}
	}
	return &earliest, nil
}

func (s *MemoryEnrollmentStore) Create(ctx context.Context, enrollment *Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[enrollment.UserID] = append(s.enrollments[enrollment.UserID], *enrollment)
	return nil
}
