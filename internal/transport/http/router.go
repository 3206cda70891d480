package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkpress/internal/handler"
	"inkpress/internal/httputil"
	authmw "inkpress/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	PostHandler     *handler.PostHandler
	CategoryHandler *handler.CategoryHandler
	CommentHandler  *handler.CommentHandler
	JWTSecret       string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(authmw.Metrics)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/verify", cfg.AuthHandler.Verify)
		r.Post("/resend-code", cfg.AuthHandler.ResendCode)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
		r.Post("/logout", cfg.AuthHandler.Logout)
		r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
		r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
		r.Get("/google", cfg.AuthHandler.GoogleLogin)
		r.Get("/google/callback", cfg.AuthHandler.GoogleCallback)
	})

	// Public read endpoints with optional authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.JWTSecret))

		r.Get("/posts", cfg.PostHandler.ListPublic)
		r.Get("/posts/search", cfg.PostHandler.Search)
		r.Get("/posts/{slug}", cfg.PostHandler.GetBySlug)
		r.Get("/posts/{id}/comments", cfg.CommentHandler.GetThread)
		r.Get("/categories", cfg.CategoryHandler.ListAll)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Get("/me/posts", cfg.PostHandler.ListMine)
		r.Get("/me/categories", cfg.CategoryHandler.ListMine)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Patch("/posts/{id}", cfg.PostHandler.Update)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Put("/posts/{id}/visibility", cfg.PostHandler.ToggleVisibility)
		r.Post("/posts/{id}/reaction", cfg.PostHandler.React)

		// Comment endpoints
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Post("/posts/{id}/comments/{commentID}/replies", cfg.CommentHandler.Reply)
		r.Put("/comments/{id}", cfg.CommentHandler.Update)

		// Category endpoints
		r.Post("/categories", cfg.CategoryHandler.Create)
		r.Put("/categories/{id}", cfg.CategoryHandler.Update)
		r.Delete("/categories/{id}", cfg.CategoryHandler.Delete)
	})

	return r
}
