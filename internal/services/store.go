package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ytakahashi/todo-web/internal/models"
)

var (
	// ErrValidation is returned when a todo would be stored with blank text.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an operation targets an unknown id.
	ErrNotFound = errors.New("todo not found")
)

// TodoStore is the durable collection of todos.
type TodoStore interface {
	CreateTodo(ctx context.Context, text string) (*models.Todo, error)
	ListTodos(ctx context.Context) ([]*models.Todo, error)
	GetTodo(ctx context.Context, id string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	Close() error
}

// Open builds a store from a connection string. Supported forms:
//
//	memory://
//	file:///var/lib/todo/todos.yaml
//	firestore://my-project?collection=todos
func Open(ctx context.Context, dsn string) (TodoStore, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, fmt.Errorf("file store url %q has no path", dsn)
		}
		return NewFileStore(path)
	case "firestore":
		if u.Host == "" {
			return nil, fmt.Errorf("firestore store url %q has no project id", dsn)
		}
		collection := u.Query().Get("collection")
		return NewFirestoreService(ctx, u.Host, collection)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// SupportedScheme reports whether Open understands the scheme of dsn.
func SupportedScheme(dsn string) bool {
	u, err := url.Parse(dsn)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "memory", "mem", "file", "firestore":
		return true
	}
	return false
}

func normalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("%w: text must not be empty", ErrValidation)
	}
	return trimmed, nil
}

func normalizePatch(patch models.TodoPatch) (models.TodoPatch, error) {
	if patch.Text == nil {
		return patch, nil
	}
	text, err := normalizeText(*patch.Text)
	if err != nil {
		return patch, err
	}
	return patch.WithText(text), nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
