package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskflow/taskflow/docs"
	"github.com/taskflow/taskflow/internal/api/handler"
	"github.com/taskflow/taskflow/internal/api/middleware"
	"github.com/taskflow/taskflow/internal/core/domain"
	"github.com/taskflow/taskflow/internal/core/ports"
	"github.com/taskflow/taskflow/internal/infrastructure/http/handlers"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Log       zerolog.Logger
	Auth      ports.AuthService
	Users     ports.UserService
	Audit     ports.AuditService
	Tasks     ports.TaskService
	Workspace ports.WorkspaceService
	// Readiness checks reported by /health/ready, keyed by dependency name.
	Readiness map[string]handlers.Check
	// AuthRateLimit is the per-IP request rate allowed on the public auth
	// routes. Zero disables throttling.
	AuthRateLimit float64
	// Metrics overrides the Prometheus registry; nil uses the default one.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Metrics != nil {
		registerer, gatherer = deps.Metrics, deps.Metrics
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "taskflow",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/api/tasks/events"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	passwordHandler := handler.NewPasswordHandler(deps.Auth)
	adminHandler := handler.NewAdminHandler(deps.Users, deps.Audit, deps.Tasks)
	taskHandler := handler.NewTaskHandler(deps.Tasks, deps.Log)
	workspaceHandler := handler.NewWorkspaceHandler(deps.Workspace)
	authMiddleware := middleware.Auth(deps.Auth)

	// --- Public auth routes ---
	var throttle []echo.MiddlewareFunc
	if deps.AuthRateLimit > 0 {
		throttle = append(throttle, middleware.RateLimit(deps.AuthRateLimit))
	}
	e.POST("/api/auth/register", authHandler.Register, throttle...)
	e.POST("/api/auth/login", authHandler.Login, throttle...)
	e.POST("/api/forgot-password", passwordHandler.ForgotPassword, throttle...)
	e.POST("/api/reset-password", passwordHandler.ResetPassword, throttle...)

	// --- Authenticated user routes ---
	user := e.Group("/api", authMiddleware)
	user.GET("/tasks", taskHandler.List)
	user.POST("/tasks", taskHandler.Create)
	user.GET("/tasks/board", taskHandler.Board)
	user.GET("/tasks/stats", taskHandler.Stats)
	user.GET("/tasks/due", taskHandler.Due)
	user.GET("/tasks/events", taskHandler.Events)
	user.GET("/tasks/:id", taskHandler.Get)
	user.PUT("/tasks/:id", taskHandler.Update)
	user.DELETE("/tasks/:id", taskHandler.Delete)
	user.PATCH("/tasks/:id/progress", taskHandler.SetProgress)
	user.PATCH("/tasks/:id/toggle", taskHandler.Toggle)
	user.PATCH("/tasks/:id/move", taskHandler.Move)
	user.GET("/notes", workspaceHandler.GetNotes)
	user.PUT("/notes", workspaceHandler.SaveNotes)
	user.GET("/profile", workspaceHandler.GetProfile)
	user.PUT("/profile", workspaceHandler.SaveProfile)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:email", adminHandler.UpdateUser)
	admin.DELETE("/users/:email", adminHandler.DeleteUser)
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/logs", adminHandler.Logs)
	admin.GET("/tasks/:owner", adminHandler.OwnerTasks)
	admin.GET("/tasks/:owner/stats", adminHandler.OwnerStats)
	admin.PATCH("/tasks/:owner/:id/complete", adminHandler.CompleteTask)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
