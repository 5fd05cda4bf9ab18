// Package memory implementa tasks.Store em memória, para testes e execução
// local sem dependências externas.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/raywall/fast-task-service/pkg/tasks"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]map[string]tasks.Task
}

func New() *Store {
	return &Store{items: make(map[string]map[string]tasks.Task)}
}

func (s *Store) Put(ctx context.Context, task tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[task.UserID]
	if !ok {
		partition = make(map[string]tasks.Task)
		s.items[task.UserID] = partition
	}
	partition[task.TaskID] = task
	return nil
}

func (s *Store) Get(ctx context.Context, userID, taskID string) (*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.items[userID][taskID]
	if !ok {
		return nil, tasks.ErrNotFound
	}
	return &task, nil
}

func (s *Store) Update(ctx context.Context, userID, taskID string, changes tasks.Changes, updatedAt time.Time) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.items[userID][taskID]
	if !ok {
		return nil, tasks.ErrNotFound
	}
	changes.Apply(&task, updatedAt)
	s.items[userID][taskID] = task
	return &task, nil
}

func (s *Store) Delete(ctx context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items[userID], taskID)
	return nil
}

func (s *Store) Query(ctx context.Context, userID string, q tasks.Query) ([]tasks.Task, error) {
	s.mu.RLock()
	items := make([]tasks.Task, 0, len(s.items[userID]))
	for _, t := range s.items[userID] {
		items = append(items, t)
	}
	s.mu.RUnlock()

	return tasks.Newest(items, q), nil
}
