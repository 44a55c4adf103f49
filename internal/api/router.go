package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/notifyhub/internal/identity"
	"github.com/ashureev/notifyhub/internal/middleware"
)

// NewRouter assembles the backend routes. Everything under /api except
// login, registration and the provider redirect requires a bearer token.
func NewRouter(base *Handler, allowedOrigins []string) http.Handler {
	auth := NewAuthHandler(base)
	gmail := NewGmailHandler(base)
	health := NewHealthHandler(base.repo)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins))

	health.RegisterHealth(r)
	auth.RegisterPublicRoutes(r)
	gmail.RegisterPublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(base.repo, base.now))
		auth.RegisterRoutes(r)
		gmail.RegisterRoutes(r)
	})

	return r
}
