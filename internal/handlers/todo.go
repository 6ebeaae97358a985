package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-web/internal/models"
	"github.com/ytakahashi/todo-web/internal/services"
)

type TodoHandler struct {
	store services.TodoStore
	log   logrus.FieldLogger
}

func NewTodoHandler(store services.TodoStore, log logrus.FieldLogger) *TodoHandler {
	return &TodoHandler{
		store: store,
		log:   log,
	}
}

type createTodoRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register mounts the todo routes on g, typically the /api/todos group.
func (h *TodoHandler) Register(g *echo.Group) {
	g.POST("", h.CreateTodo)
	g.GET("", h.ListTodos)
	g.GET("/:id", h.GetTodo)
	g.PATCH("/:id", h.UpdateTodo)
	g.DELETE("/:id", h.DeleteTodo)
}

func (h *TodoHandler) CreateTodo(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.fail(c, "create", err)
	}

	var req createTodoRequest
	if err := decodeValidated(createSchema, body, &req); err != nil {
		return h.fail(c, "create", err)
	}

	todo, err := h.store.CreateTodo(c.Request().Context(), req.Text)
	if err != nil {
		return h.fail(c, "create", err)
	}

	h.log.WithField("id", todo.ID).Info("todo created")
	return c.JSON(http.StatusCreated, todo)
}

func (h *TodoHandler) ListTodos(c echo.Context) error {
	todos, err := h.store.ListTodos(c.Request().Context())
	if err != nil {
		return h.fail(c, "list", err)
	}
	return c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) GetTodo(c echo.Context) error {
	todo, err := h.store.GetTodo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "get", err)
	}
	return c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) UpdateTodo(c echo.Context) error {
	id := c.Param("id")
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.fail(c, "update", err)
	}

	var patch models.TodoPatch
	if err := decodeValidated(updateSchema, body, &patch); err != nil {
		return h.fail(c, "update", err)
	}

	todo, err := h.store.UpdateTodo(c.Request().Context(), id, patch)
	if err != nil {
		return h.fail(c, "update", err)
	}

	h.log.WithField("id", id).Info("todo updated")
	return c.JSON(http.StatusOK, todo)
}

func (h *TodoHandler) DeleteTodo(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteTodo(c.Request().Context(), id); err != nil {
		return h.fail(c, "delete", err)
	}

	h.log.WithField("id", id).Info("todo deleted")
	return c.NoContent(http.StatusNoContent)
}

// fail maps an error onto a response. Store faults are logged and hidden
// behind a generic message.
func (h *TodoHandler) fail(c echo.Context, op string, err error) error {
	status := statusFor(err)
	entry := h.log.WithFields(logrus.Fields{
		"op":     op,
		"status": status,
	}).WithError(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		entry.Error("todo request failed")
		msg = "internal server error"
	} else {
		entry.Warn("todo request rejected")
	}
	return c.JSON(status, errorResponse{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
