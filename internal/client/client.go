// Package client is a typed HTTP client for the todo API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ytakahashi/todo-web/internal/models"
	"github.com/ytakahashi/todo-web/internal/services"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("todo api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("todo api: %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets callers match responses with errors.Is against the store
// sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return services.ErrValidation
	case http.StatusNotFound:
		return services.ErrNotFound
	}
	return nil
}

type clientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) clientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to a todo server rooted at endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for a server such as "http://localhost:8080".
func New(endpoint string, opts ...clientOption) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must be http or https", endpoint)
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

func (c *Client) GetTodo(ctx context.Context, id string) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodGet, todoPath(id), nil, &todo)
	return todo, err
}

func (c *Client) CreateTodo(ctx context.Context, text string) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", map[string]string{"text": text}, &todo)
	return todo, err
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch models.TodoPatch) (models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodPatch, todoPath(id), patch, &todo)
	return todo, err
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil)
}

func todoPath(id string) string {
	return "/api/todos/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Error
			if apiErr.Message == "" {
				apiErr.Message = payload.Message
			}
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
