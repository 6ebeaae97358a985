package viewmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-web/internal/models"
)

// API is the subset of the todo client the controller needs.
type API interface {
	ListTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, text string) (models.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (models.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Controller turns user actions into exactly one API call each and reports
// the outcome as an Event. Failed calls are logged and never retried.
type Controller struct {
	api API
	log logrus.FieldLogger
}

func NewController(api API, log logrus.FieldLogger) *Controller {
	return &Controller{api: api, log: log}
}

func (c *Controller) Load(ctx context.Context) Event {
	todos, err := c.api.ListTodos(ctx)
	if err != nil {
		return c.failed("fetch todos", "", err)
	}
	return Loaded{Items: todos}
}

// Add returns nil without calling the API when draft is blank.
func (c *Controller) Add(ctx context.Context, draft string) Event {
	if strings.TrimSpace(draft) == "" {
		return nil
	}
	todo, err := c.api.CreateTodo(ctx, draft)
	if err != nil {
		return c.failed("add todo", "", err)
	}
	return Added{Todo: todo}
}

func (c *Controller) SaveEdit(ctx context.Context, id, text string) Event {
	todo, err := c.api.UpdateTodo(ctx, id, models.TodoPatch{}.WithText(text))
	if err != nil {
		return c.failed("update todo", id, err)
	}
	return Saved{Todo: todo}
}

// Toggle sends the inverse of the completion flag held in s. Two toggles
// issued before either response arrives both send the same value.
func (c *Controller) Toggle(ctx context.Context, s State, id string) Event {
	local, ok := s.Find(id)
	if !ok {
		return c.failed("toggle todo", id, fmt.Errorf("todo %s is not in the list", id))
	}
	todo, err := c.api.UpdateTodo(ctx, id, models.TodoPatch{}.WithCompleted(!local.Completed))
	if err != nil {
		return c.failed("toggle todo", id, err)
	}
	return Toggled{Todo: todo}
}

func (c *Controller) Delete(ctx context.Context, id string) Event {
	if err := c.api.DeleteTodo(ctx, id); err != nil {
		return c.failed("delete todo", id, err)
	}
	return Deleted{ID: id}
}

func (c *Controller) failed(op, id string, err error) Event {
	entry := c.log.WithField("op", op).WithError(err)
	if id != "" {
		entry = entry.WithField("id", id)
	}
	entry.Error("todo request failed")
	return Failed{Op: op, Err: err}
}
