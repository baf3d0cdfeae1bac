// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/community-portal/internal/auth"
	"github.com/olegiv/community-portal/internal/cache"
	"github.com/olegiv/community-portal/internal/config"
	"github.com/olegiv/community-portal/internal/handler/api"
	"github.com/olegiv/community-portal/internal/middleware"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/scheduler"
	"github.com/olegiv/community-portal/internal/service"
	"github.com/olegiv/community-portal/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, db, logger, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting portal", "version", version.Get().Version, "env", cfg.Env)

	c := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = c.Close() }()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.ResetTokenTTL)
	audit := service.NewAuditService(db, logger)
	authSvc := auth.NewService(db, tokens, auth.NewLogMailer(logger), audit, logger)

	gateway := realtime.NewGateway(realtime.Options{
		MaxClients: cfg.WSMaxClients,
		Authenticate: func(ctx context.Context, token string) (int64, error) {
			u, err := authSvc.Authenticate(ctx, token)
			if err != nil {
				return 0, err
			}
			return u.ID, nil
		},
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         logger,
	})
	defer gateway.Close()

	svc := buildServices(db, cfg, c, audit, authSvc, gateway, logger)
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	sched, err := scheduler.New(audit, svc.Notifications, scheduler.Config{
		EventLogMaxAge:  cfg.EventLogMaxAge,
		ReadNotifMaxAge: cfg.ReadNotifMaxAge,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	h := api.NewHandler(api.Deps{
		DB:              db,
		Services:        svc,
		Gateway:         gateway,
		Cache:           c,
		LoginProtection: middleware.DefaultLoginProtectionConfig(),
		UploadsDir:      cfg.UploadsDir,
		Logger:          logger,
	})
	defer h.Close()

	router := api.NewRouter(h, api.RouterConfig{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.APIRateLimit,
		RateBurst:      cfg.APIRateBurst,
		RequestTimeout: cfg.RequestTimeout,
		IsDevelopment:  cfg.IsDevelopment(),
		RequestLogging: cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads and downloads may outlive the API request timeout.
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// buildServices wires the domain services. The gateway receives
// notification and registration pushes.
func buildServices(db *sql.DB, cfg *config.Config, c cache.Cache, audit *service.AuditService,
	authSvc *auth.Service, gateway *realtime.Gateway, logger *slog.Logger) api.Services {
	notifications := service.NewNotificationService(db, gateway, logger)
	taxonomy := service.NewTaxonomyService(db, c, cfg.CacheTTLDuration(), audit, logger)
	return api.Services{
		Auth:          authSvc,
		Users:         service.NewUserService(db, audit, logger),
		Events:        service.NewEventService(db, notifications, audit, logger),
		Registrations: service.NewRegistrationService(db, notifications, gateway, logger),
		Posts:         service.NewPostService(db, taxonomy, audit, logger),
		Comments:      service.NewCommentService(db, notifications, logger),
		Likes:         service.NewLikeService(db, notifications, logger),
		Taxonomy:      taxonomy,
		Notifications: notifications,
		Files:         service.NewFileService(db, cfg.UploadsDir, cfg.MaxUploadBytes(), logger),
		Audit:         audit,
	}
}
