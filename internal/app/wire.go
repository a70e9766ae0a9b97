package app

import (
	"log/slog"
	"time"

	"github.com/gameportal/portal/internal/auth"
	"github.com/gameportal/portal/internal/guard"
	"github.com/gameportal/portal/internal/handler"
	managerhandler "github.com/gameportal/portal/internal/handler/manager"
	"github.com/gameportal/portal/internal/infra"
	"github.com/gameportal/portal/internal/notify"
	"github.com/gameportal/portal/internal/repository"
	"github.com/gameportal/portal/internal/service"
	"github.com/gameportal/portal/internal/store"
	"github.com/go-chi/chi/v5"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Store   store.Store
	DB      infra.Pinger // nil for the memory backend
	Backend string
	JWTMgr  *auth.JWTManager
	Logger  *slog.Logger

	NotificationPageSize int
	AnalyticsDate        string
	LoginRateLimit       int // per minute per realm and email
	CORSOrigin           string
}

// Services are the application services NewServices builds over a store.
type Services struct {
	Auth    *service.AuthService
	Manager *service.ManagerService
	Agent   *service.AgentService
}

// NewServices wires repositories, the notification center and services.
func NewServices(deps RouterDeps) Services {
	repos := repository.NewSet(deps.Store)
	center := notify.NewCenter(repos.Notifications, repos.Receipts, repos.Outbox, deps.NotificationPageSize, deps.Logger)
	limiter := guard.NewRateLimiter(deps.LoginRateLimit, time.Minute)

	return Services{
		Auth:    service.NewAuthService(repos.Users, deps.JWTMgr, limiter, guard.NewLockout(), deps.Logger),
		Manager: service.NewManagerService(repos, center, deps.AnalyticsDate, deps.Logger),
		Agent:   service.NewAgentService(repos, center, deps.AnalyticsDate, deps.Logger),
	}
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps, svcs Services) chi.Router {
	logger := deps.Logger
	jwtMgr := deps.JWTMgr
	origin := deps.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	// Handlers
	authHandler := handler.NewAuthHandler(svcs.Auth, logger)
	agentHandler := handler.NewAgentHandler(svcs.Agent)
	managerHandler := managerhandler.NewHandler(svcs.Manager, guard.NewIdempotencyGuard(24*time.Hour), logger)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.RequestID)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(origin))
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(deps.DB, deps.Backend))

	// Auth routes (no auth)
	r.Post("/auth/login", authHandler.Login)

	// Manager-authenticated routes
	r.Route("/manager", func(r chi.Router) {
		r.Use(auth.AuthenticateManager(jwtMgr, svcs.Auth))

		r.Get("/dashboard", managerHandler.Dashboard)
		r.Post("/games", managerHandler.CreateGame)
		r.Post("/agents", managerHandler.CreateAgent)
		r.Post("/credentials", managerHandler.CreateCredential)
		r.Post("/assignments", managerHandler.AssignGame)
		r.Post("/commissions", managerHandler.CreateCommission)
		r.Post("/game-settings", managerHandler.CreateGameSetting)
		r.Post("/notifications", managerHandler.SendNotification)
		r.Get("/notifications/stats", managerHandler.NotificationStats)
		r.Get("/notification-types", managerHandler.ListNotificationTypes)
	})

	// Agent-authenticated routes
	r.Route("/agent", func(r chi.Router) {
		r.Use(auth.AuthenticateAgent(jwtMgr, svcs.Auth))

		r.Get("/dashboard", agentHandler.Dashboard)
		r.Get("/notifications", agentHandler.ListNotifications)
		r.Post("/notifications/read-all", agentHandler.MarkAllAsRead)
		r.Post("/notifications/{id}/read", agentHandler.MarkAsRead)
	})

	return r
}
