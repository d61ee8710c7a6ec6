package membership

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUserStore is an in-memory UserStore for tests and development.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]*User)}
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func (s *MemoryUserStore) GetByCustomerID(_ context.Context, customerID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *User) bool {
		return customerID != "" && u.CustomerID == customerID
	})
}

func (s *MemoryUserStore) GetBySubscriptionID(_ context.Context, subscriptionID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(func(u *User) bool {
		return subscriptionID != "" && u.SubscriptionID == subscriptionID
	})
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	cp := *user
	cp.UpdatedAt = time.Now()
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryUserStore) findLocked(match func(*User) bool) (*User, error) {
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

// MemoryEventStore is an in-memory EventStore for tests and development.
type MemoryEventStore struct {
	mu     sync.Mutex
	events map[string]*ProcessedEvent
}

// NewMemoryEventStore creates an empty in-memory event store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{events: make(map[string]*ProcessedEvent)}
}

func (s *MemoryEventStore) Exists(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok, nil
}

func (s *MemoryEventStore) Create(_ context.Context, event *ProcessedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.EventID]; ok {
		return ErrEventAlreadyProcessed
	}
	cp := *event
	s.events[event.EventID] = &cp
	return nil
}

// Get returns a recorded event, for test assertions.
func (s *MemoryEventStore) Get(eventID string) (*ProcessedEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, false
	}
	cp := *event
	return &cp, true
}
