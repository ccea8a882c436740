// internal/api/api.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/datastore"
	"github.com/tphakala/signbridge-go/internal/errors"
	"github.com/tphakala/signbridge-go/internal/logging"
	"github.com/tphakala/signbridge-go/internal/observability"
	"github.com/tphakala/signbridge-go/internal/translation"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	DS       datastore.Interface
	Manager  *translation.Manager
	Metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a new API controller and registers all routes.
func New(settings *conf.Settings, ds datastore.Interface, manager *translation.Manager, metrics *observability.Metrics) *Controller {
	e := echo.New()
	e.HideBanner = true

	c := &Controller{
		Echo:     e,
		Settings: settings,
		DS:       ds,
		Manager:  manager,
		Metrics:  metrics,
		logger:   logging.ForService("api"),
	}

	e.Use(middleware.Recover())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}
	e.Use(c.principalMiddleware())

	c.Group = e.Group("/api/v1")
	c.initSessionRoutes()
	c.initFrameRoutes()
	c.initFeedbackRoutes()
	c.initRegistryRoutes()

	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return c
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError maps internal error categories to HTTP status codes. NotFound
// and validation errors are surfaced with distinguishable statuses; anything
// else is an internal error.
func (c *Controller) handleError(ctx echo.Context, err error) error {
	switch {
	case errors.IsNotFound(err):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.IsValidation(err):
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.logger.Error("request failed",
			"path", ctx.Path(),
			"error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// Health reports service liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
