package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ytakahashi/todo-web/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "todos"

type FirestoreService struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreService(ctx context.Context, projectID, collection string) (*FirestoreService, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	if collection == "" {
		collection = defaultCollection
	}

	return &FirestoreService{
		client:     client,
		collection: collection,
	}, nil
}

func (fs *FirestoreService) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreService) todos() *firestore.CollectionRef {
	return fs.client.Collection(fs.collection)
}

// doc returns nil for ids that are not valid document names.
func (fs *FirestoreService) doc(id string) *firestore.DocumentRef {
	if id == "" || strings.Contains(id, "/") {
		return nil
	}
	return fs.todos().Doc(id)
}

func (fs *FirestoreService) CreateTodo(ctx context.Context, text string) (*models.Todo, error) {
	text, err := normalizeText(text)
	if err != nil {
		return nil, err
	}

	todo := &models.Todo{
		ID:        uuid.New().String(),
		Text:      text,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}

	// Create fails if the document already exists, so an id is never reused.
	_, err = fs.todos().Doc(todo.ID).Create(ctx, todo)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return todo, nil
}

func (fs *FirestoreService) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	iter := fs.todos().
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	todos := []*models.Todo{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate todos: %w", err)
		}

		var todo models.Todo
		if err := doc.DataTo(&todo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
		}

		todos = append(todos, &todo)
	}

	return todos, nil
}

func (fs *FirestoreService) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	ref := fs.doc(id)
	if ref == nil {
		return nil, notFound(id)
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	var todo models.Todo
	if err := doc.DataTo(&todo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
	}
	return &todo, nil
}

func (fs *FirestoreService) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	ref := fs.doc(id)
	if ref == nil {
		return nil, notFound(id)
	}
	var todo models.Todo
	err = fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if err := doc.DataTo(&todo); err != nil {
			return fmt.Errorf("failed to unmarshal todo: %w", err)
		}
		if patch.IsEmpty() {
			return nil
		}

		var updates []firestore.Update
		if patch.Text != nil {
			updates = append(updates, firestore.Update{Path: "text", Value: *patch.Text})
		}
		if patch.Completed != nil {
			updates = append(updates, firestore.Update{Path: "completed", Value: *patch.Completed})
		}
		patch.Apply(&todo)
		return tx.Update(ref, updates)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	return &todo, nil
}

func (fs *FirestoreService) DeleteTodo(ctx context.Context, id string) error {
	ref := fs.doc(id)
	if ref == nil {
		return notFound(id)
	}
	_, err := ref.Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return notFound(id)
		}
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	return nil
}
