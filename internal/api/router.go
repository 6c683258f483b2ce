package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/leadflow/role-service/internal/api/handler"
	"github.com/leadflow/role-service/internal/api/middleware"
	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// Role assignment paths. /assignRole is kept for existing clients.
const (
	assignRolePath       = "/v1/roles/assign"
	legacyAssignRolePath = "/assignRole"
)

// Dependencies are the wired services the router exposes.
type Dependencies struct {
	Log        zerolog.Logger
	CORSOrigin string

	Verifier    ports.TokenVerifier
	Revocations ports.RevocationStore
	Resolver    *access.Resolver

	AuthService ports.AuthService
	RoleService ports.RoleService
	UserService ports.UserService

	ReadinessChecks map[string]handler.PingFunc

	// Metrics defaults to the global Prometheus registry.
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
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		Skipper:      isAssignRoute,
		AllowOrigins: []string{deps.CORSOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	// --- Dependencies ---
	auth := middleware.Auth(deps.Verifier, deps.Revocations, deps.Log)
	adminOnly := middleware.RequireRole(deps.Resolver, domain.RoleAdmin)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	roleHandler := handler.NewRoleHandler(deps.RoleService)
	userHandler := handler.NewUserHandler(deps.UserService)
	pageHandler := handler.NewPageHandler(deps.Resolver)

	// --- Role assignment: own CORS policy, POST only ---
	assignCORS := echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{deps.CORSOrigin},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
	for _, path := range []string{assignRolePath, legacyAssignRolePath} {
		e.POST(path, roleHandler.Assign, assignCORS, auth)
		e.OPTIONS(path, preflight, assignCORS)
	}

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)
	e.POST("/v1/auth/refresh", authHandler.Refresh, auth)
	e.POST("/v1/auth/logout", authHandler.Logout, auth)

	// --- Role-scoped pages ---
	pages := e.Group("/v1/pages", auth)
	pages.GET("/dashboard", pageHandler.Page(domain.SurfaceDashboard), middleware.PageGuard(deps.Resolver, domain.SurfaceDashboard))
	pages.GET("/teamadmin", pageHandler.Page(domain.SurfaceTeamAdmin), middleware.PageGuard(deps.Resolver, domain.SurfaceTeamAdmin))
	pages.GET("/tasks", pageHandler.Page(domain.SurfaceTasks), middleware.PageGuard(deps.Resolver, domain.SurfaceTasks))
	e.GET("/v1/session", pageHandler.Session, auth)

	// --- Admin user directory ---
	users := e.Group("/v1/users", auth, adminOnly)
	users.GET("", userHandler.List)
	users.PATCH("/:uid/active", userHandler.SetActive)

	// --- Health probes and tooling (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.ReadinessChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func isAssignRoute(c echo.Context) bool {
	p := c.Path()
	return p == assignRolePath || p == legacyAssignRolePath
}

func preflight(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
