package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/ytakahashi/todo-web/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	lockTimeout       = 3 * time.Second
	lockRetryInterval = 50 * time.Millisecond
)

// fileData is the on-disk document.
type fileData struct {
	Version   int           `yaml:"version"`
	UpdatedAt time.Time     `yaml:"updatedAt"`
	Todos     []models.Todo `yaml:"todos"`
}

// FileStore persists todos to a YAML file. A sibling .lock file serialises
// access across processes sharing the same path.
type FileStore struct {
	path     string
	fileLock *flock.Flock
	mu       sync.Mutex
	now      func() time.Time
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return &FileStore{
		path:     path,
		fileLock: flock.New(path + ".lock"),
		now:      time.Now,
	}, nil
}

func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) CreateTodo(ctx context.Context, text string) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	var created models.Todo
	err = fs.withLock(ctx, true, func(data *fileData) error {
		created = models.Todo{
			ID:        uuid.New().String(),
			Text:      text,
			Completed: false,
			CreatedAt: fs.now(),
		}
		data.Todos = append(data.Todos, created)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	return &created, nil
}

func (fs *FileStore) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	var todos []*models.Todo
	err := fs.withLock(ctx, false, func(data *fileData) error {
		todos = make([]*models.Todo, 0, len(data.Todos))
		for i := range data.Todos {
			todo := data.Todos[i]
			todos = append(todos, &todo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (fs *FileStore) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	var found *models.Todo
	err := fs.withLock(ctx, false, func(data *fileData) error {
		i := indexOfTodo(data.Todos, id)
		if i < 0 {
			return notFound(id)
		}
		todo := data.Todos[i]
		found = &todo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (fs *FileStore) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	var updated models.Todo
	err = fs.withLock(ctx, true, func(data *fileData) error {
		i := indexOfTodo(data.Todos, id)
		if i < 0 {
			return notFound(id)
		}
		patch.Apply(&data.Todos[i])
		updated = data.Todos[i]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (fs *FileStore) DeleteTodo(ctx context.Context, id string) error {
	return fs.withLock(ctx, true, func(data *fileData) error {
		i := indexOfTodo(data.Todos, id)
		if i < 0 {
			return notFound(id)
		}
		data.Todos = append(data.Todos[:i], data.Todos[i+1:]...)
		return nil
	})
}

// withLock loads the document under both locks, runs fn and, when write is
// set and fn succeeded, writes the document back.
func (fs *FileStore) withLock(ctx context.Context, write bool, fn func(*fileData) error) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fs.fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return errors.New("could not acquire file lock")
	}
	defer func() { _ = fs.fileLock.Unlock() }()

	data, err := fs.load()
	if err != nil {
		return err
	}
	if err := fn(data); err != nil {
		return err
	}
	if !write {
		return nil
	}
	data.UpdatedAt = fs.now()
	return fs.save(data)
}

func (fs *FileStore) load() (*fileData, error) {
	raw, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return &fileData{Version: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	data := &fileData{Version: 1}
	if len(raw) == 0 {
		return data, nil
	}
	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return data, nil
}

func (fs *FileStore) save(data *fileData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func indexOfTodo(todos []models.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
