package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory task store implementing both the enqueuer
// and worker repositories. Intended for tests and local development.
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// NewMemoryStorage creates an empty in-memory task store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{tasks: make(map[uuid.UUID]*Task)}
}

func (s *MemoryStorage) CreateTask(_ context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

func (s *MemoryStorage) ClaimTask(_ context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	queueSet := make(map[string]struct{}, len(queues))
	for _, q := range queues {
		queueSet[q] = struct{}{}
	}

	var candidates []*Task
	for _, t := range s.tasks {
		if _, ok := queueSet[t.Queue]; !ok {
			continue
		}
		if t.ScheduledAt.After(now) {
			continue
		}
		switch t.Status {
		case TaskStatusPending:
			candidates = append(candidates, t)
		case TaskStatusProcessing:
			// Reclaim tasks whose lock expired.
			if t.LockedUntil != nil && t.LockedUntil.Before(now) {
				candidates = append(candidates, t)
			}
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoTaskToClaim
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ScheduledAt.Before(candidates[j].ScheduledAt)
	})

	task := candidates[0]
	task.Status = TaskStatusProcessing
	lockedUntil := now.Add(lockDuration)
	task.LockedUntil = &lockedUntil
	task.LockedBy = &workerID

	cp := *task
	return &cp, nil
}

func (s *MemoryStorage) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return ErrNoTaskToClaim
	}
	now := time.Now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	task.LockedBy = nil
	return nil
}

func (s *MemoryStorage) FailTask(_ context.Context, taskID uuid.UUID, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return ErrNoTaskToClaim
	}
	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil
	task.LockedBy = nil
	if task.RetryCount < task.MaxRetries {
		task.Status = TaskStatusPending
	} else {
		now := time.Now()
		task.Status = TaskStatusFailed
		task.ProcessedAt = &now
	}
	return nil
}

// TaskByID returns a copy of the stored task, for test assertions.
func (s *MemoryStorage) TaskByID(taskID uuid.UUID) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, false
	}
	cp := *task
	return &cp, true
}
