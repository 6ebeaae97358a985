package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-web/internal/services"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// StaticDir, when set, is served at / with an index.html fallback.
	StaticDir string
	// BodyLimit caps request bodies, e.g. "64K".
	BodyLimit string
}

// NewRouter builds the echo instance serving the todo API.
func NewRouter(store services.TodoStore, log logrus.FieldLogger, opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Debug("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())

	bodyLimit := opts.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "64K"
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/todos", middleware.BodyLimit(bodyLimit))
	NewTodoHandler(store, log).Register(api)

	if opts.StaticDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  opts.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || p == "/api" || p == "/health"
			},
		}))
	}

	return e
}
