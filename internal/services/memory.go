package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ytakahashi/todo-web/internal/models"
)

// MemoryStore keeps todos in process memory, in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	todos []models.Todo
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (ms *MemoryStore) Close() error {
	return nil
}

func (ms *MemoryStore) CreateTodo(ctx context.Context, text string) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	todo := models.Todo{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: ms.now(),
	}

	ms.mu.Lock()
	ms.todos = append(ms.todos, todo)
	ms.mu.Unlock()

	return &todo, nil
}

func (ms *MemoryStore) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	todos := make([]*models.Todo, 0, len(ms.todos))
	for i := range ms.todos {
		todo := ms.todos[i]
		todos = append(todos, &todo)
	}
	return todos, nil
}

func (ms *MemoryStore) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	i := indexOfTodo(ms.todos, id)
	if i < 0 {
		return nil, notFound(id)
	}
	todo := ms.todos[i]
	return &todo, nil
}

func (ms *MemoryStore) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := indexOfTodo(ms.todos, id)
	if i < 0 {
		return nil, notFound(id)
	}
	patch.Apply(&ms.todos[i])
	todo := ms.todos[i]
	return &todo, nil
}

func (ms *MemoryStore) DeleteTodo(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	i := indexOfTodo(ms.todos, id)
	if i < 0 {
		return notFound(id)
	}
	ms.todos = append(ms.todos[:i], ms.todos[i+1:]...)
	return nil
}
