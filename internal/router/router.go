package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"llmchat-backend/internal/handlers"
	"llmchat-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	frontendURL string,
	authRateLimit int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (per IP, per minute)
	authLimiter := middleware.NewRateLimiter(authRateLimit, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Chat Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/chat", chatHandler.Chat)
			r.Get("/conversations", chatHandler.ListConversations)
			r.Get("/conversations/{id}", chatHandler.GetConversationHistory)
		})
	})

	return r
}
