// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/community-portal/internal/metrics"
	"github.com/olegiv/community-portal/internal/middleware"
)

// RouterConfig carries the HTTP-level settings for NewRouter.
type RouterConfig struct {
	CORSOrigins    []string
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	IsDevelopment  bool
	// RequestLogging enables chi's request logger.
	RequestLogging bool
}

// NewRouter builds the full HTTP surface: /api, /health, /metrics and /ws.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLogging {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Metrics)
	secCfg := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment)
	secCfg.ExcludePaths = []string{"/metrics", "/ws"}
	r.Use(middleware.SecurityHeaders(secCfg))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	auth := h.svc.Auth
	requireAuth := middleware.RequireAuth(auth)
	requireModerator := middleware.RequireModerator(h.svc.Audit)
	requireAdmin := middleware.RequireAdmin(h.svc.Audit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(auth))
		r.Get("/health", h.Health)
	})
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
	r.Handle("/metrics", metrics.Handler())
	if h.gateway != nil {
		r.Handle("/ws", h.gateway)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(chimw.Compress(5))
		r.Use(middleware.OptionalAuth(auth))
		r.Use(limiter.Middleware())

		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.With(h.login.Middleware()).Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
			r.With(requireAuth).Get("/me", h.Me)
			r.With(requireAuth).Post("/change-password", h.ChangePassword)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.ListPosts)
			r.With(requireAuth).Post("/", h.CreatePost)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPost)
				r.Get("/comments", h.ListPostComments)
				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Patch("/", h.UpdatePost)
					r.Delete("/", h.DeletePost)
					r.Post("/comments", h.CreatePostComment)
					r.Post("/like", h.LikePost)
					r.Delete("/like", h.UnlikePost)
				})
			})
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Use(requireAuth)
			r.Patch("/", h.UpdateComment)
			r.Delete("/", h.DeleteComment)
			r.With(requireModerator).Patch("/status", h.SetCommentStatus)
			r.Post("/like", h.LikeComment)
			r.Delete("/like", h.UnlikeComment)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.With(requireAuth).Post("/", h.CreateEvent)
			r.With(requireAuth).Get("/user/registrations", h.ListMyRegistrations)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Patch("/", h.UpdateEvent)
					r.Delete("/", h.DeleteEvent)
					r.Post("/register", h.RegisterForEvent)
					r.Delete("/register", h.UnregisterFromEvent)
					r.Get("/registrations", h.ListEventRegistrations)
					r.Get("/registration-status", h.RegistrationStatus)
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Get("/{id}", h.GetCategory)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireModerator)
				r.Post("/", h.CreateCategory)
				r.Patch("/{id}", h.UpdateCategory)
				r.Delete("/{id}", h.DeleteCategory)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.ListTags)
			r.Get("/{id}", h.GetTag)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireModerator)
				r.Post("/", h.CreateTag)
				r.Patch("/{id}", h.UpdateTag)
				r.Delete("/{id}", h.DeleteTag)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.ListNotifications)
			r.Get("/unread-count", h.UnreadCount)
			r.Patch("/read-all", h.MarkAllNotificationsRead)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/{id}", h.GetFile)
			r.Get("/{id}/download", h.DownloadFile)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", h.UploadFile)
				r.Get("/", h.ListFiles)
				r.Delete("/{id}", h.DeleteFile)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", h.GetUser)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(requireAdmin).Get("/", h.ListUsers)
				r.Patch("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
				r.With(requireAdmin).Patch("/{id}/role", h.SetUserRole)
			})
		})
	})

	return r
}
