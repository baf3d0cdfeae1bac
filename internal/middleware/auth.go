// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the authenticated model.User.
const ContextKeyUser ContextKey = "user"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// AccessAuditor records denied requests.
type AccessAuditor interface {
	LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth rejects requests without a valid bearer token with 401 before
// the handler runs. A user already loaded by OptionalAuth is reused.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUser(r) != nil {
				next.ServeHTTP(w, r)
				return
			}
			token := BearerToken(r)
			if token == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing or malformed Authorization header", nil)
				return
			}
			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.KindOf(err) != apperr.KindUnauthorized {
					slog.Error("authenticating request", "error", err)
					WriteAPIError(w, http.StatusInternalServerError, "internal", "Internal server error", nil)
					return
				}
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", apperr.ErrInvalidToken.Message, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth loads the user when a valid token is present and otherwise
// continues anonymously.
func OptionalAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if user, err := a.Authenticate(r.Context(), token); err == nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID, or 0.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// roleLevel returns a numeric level for role hierarchy.
func roleLevel(role string) int {
	switch role {
	case model.RoleAdmin:
		return 2
	case model.RoleModerator:
		return 1
	default:
		return 0
	}
}

// RequireRole requires at least minRole. Roles are hierarchical:
// admin > moderator > user. Denials are answered with 403 and, when auditor
// is set, written to the event log. Must run after RequireAuth.
func RequireRole(minRole string, auditor AccessAuditor) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			if roleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
				)
				if auditor != nil {
					userID := user.ID
					_ = auditor.LogAuthEvent(r.Context(), model.LogLevelWarning, "Access denied: insufficient permissions", &userID, GetClientIP(r), map[string]any{
						"method":        r.Method,
						"path":          r.URL.Path,
						"user_role":     user.Role,
						"required_role": minRole,
					})
				}
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole(model.RoleAdmin, auditor).
func RequireAdmin(auditor AccessAuditor) func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, auditor)
}

// RequireModerator allows moderators and admins.
func RequireModerator(auditor AccessAuditor) func(http.Handler) http.Handler {
	return RequireRole(model.RoleModerator, auditor)
}
