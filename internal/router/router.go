package router

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lostfound/internal/config"
	handlers "lostfound/internal/handler"
	"lostfound/internal/middleware"
)

type Options struct {
	// Limiter backs the per-client rate limit; nil disables it.
	Limiter middleware.Counter
	Logger  *slog.Logger
}

// New builds the route table. Only item browsing, the auth endpoints, health
// and metrics are reachable without a bearer token.
func New(h *handlers.Handlers, cfg *config.Config, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.Auth(cfg.JWTSecretKey)(fn)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// auth
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", h.VerifyEmail).Methods(http.MethodPost, http.MethodGet)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// users
	r.Handle("/users/me", protected(h.GetCurrentUser)).Methods(http.MethodGet)
	r.Handle("/users/follow/{itemId}", protected(h.FollowItem)).Methods(http.MethodPost)
	r.Handle("/users/follow/{itemId}", protected(h.UnfollowItem)).Methods(http.MethodDelete)
	r.Handle("/users/follows/{itemId}", protected(h.IsFollowing)).Methods(http.MethodGet)
	r.Handle("/users/followed-items", protected(h.ListFollowedItems)).Methods(http.MethodGet)
	r.Handle("/users/created-items", protected(h.ListCreatedItems)).Methods(http.MethodGet)

	// items
	r.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	r.Handle("/items", protected(h.CreateItem)).Methods(http.MethodPost)
	r.Handle("/items/follow/{id}", protected(h.FollowItem)).Methods(http.MethodPatch)
	r.Handle("/items/{id}", protected(h.GetItem)).Methods(http.MethodGet)
	r.Handle("/items/{id}", protected(h.UpdateItem)).Methods(http.MethodPatch)
	r.Handle("/items/{id}", protected(h.DeleteItem)).Methods(http.MethodDelete)

	// messages; the fixed paths must precede /messages/{partnerId}
	r.Handle("/messages", protected(h.SendMessage)).Methods(http.MethodPost)
	r.Handle("/messages/conversations", protected(h.GetConversations)).Methods(http.MethodGet)
	r.Handle("/messages/unread/count", protected(h.GetUnreadCount)).Methods(http.MethodGet)
	r.Handle("/messages/{partnerId}", protected(h.GetThread)).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return middleware.Chain(
		r,
		middleware.RateLimit(opts.Limiter, cfg.RateLimitPerMinute, logger),
		middleware.CORS,
		middleware.Logging(logger),
	)
}
