// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/store"
)

// User errors.
var (
	ErrAdminRequired = apperr.Forbidden("Admin role required")
	ErrInvalidRole   = apperr.BadRequest("Role must be one of user, moderator, admin")
	ErrOwnRoleChange = apperr.BadRequest("You cannot change your own role")
)

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
type ProfilePatch struct {
	Name      *string `json:"name"`
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl"`
}

// UserService manages accounts other than authentication.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
	audit   *AuditService
	logger  *slog.Logger
}

// NewUserService creates a UserService. audit may be nil.
func NewUserService(db *sql.DB, audit *AuditService, logger *slog.Logger) *UserService {
	return &UserService{
		db:      db,
		queries: store.New(db),
		audit:   audit,
		logger:  logger,
	}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (model.User, error) {
	row, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, notFound(err, apperr.ErrUserNotFound)
	}
	return model.NewUser(row), nil
}

// List returns a page of users matching search on name, email or username.
// Admin only.
func (s *UserService) List(ctx context.Context, actor model.User, search string, p query.Pagination) (model.Page[model.User], error) {
	if !actor.IsAdmin() {
		return model.Page[model.User]{}, ErrAdminRequired
	}
	search = strings.TrimSpace(search)
	rows, err := s.queries.ListUsers(ctx, store.ListUsersParams{Search: search, Limit: int64(p.Limit), Offset: p.Offset()})
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("listing users: %w", err)
	}
	total, err := s.queries.CountUsers(ctx, search)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("counting users: %w", err)
	}
	items := make([]model.User, len(rows))
	for i, r := range rows {
		items[i] = model.NewUser(r)
	}
	return model.NewPage(items, total, p.Page, p.Limit), nil
}

// UpdateProfile edits a profile. Users edit their own; admins edit anyone's.
func (s *UserService) UpdateProfile(ctx context.Context, actor model.User, id int64, patch ProfilePatch) (model.User, error) {
	if !canModify(actor, id) {
		return model.User{}, apperr.ErrNotOwner
	}
	cur, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, notFound(err, apperr.ErrUserNotFound)
	}

	params := store.UpdateUserProfileParams{
		Name:      cur.Name,
		Username:  cur.Username,
		Bio:       cur.Bio,
		AvatarUrl: cur.AvatarUrl,
		UpdatedAt: now(),
		ID:        id,
	}
	bad := map[string]string{}
	if patch.Name != nil {
		params.Name = strings.TrimSpace(*patch.Name)
		if params.Name == "" {
			bad["name"] = "is required"
		} else if len(params.Name) > 100 {
			bad["name"] = "must be at most 100 characters"
		}
	}
	if patch.Username != nil {
		u := strings.TrimSpace(*patch.Username)
		params.Username = sql.NullString{String: u, Valid: u != ""}
		if len(u) > 50 {
			bad["username"] = "must be at most 50 characters"
		}
	}
	if patch.Bio != nil {
		params.Bio = *patch.Bio
		if len(params.Bio) > 1000 {
			bad["bio"] = "must be at most 1000 characters"
		}
	}
	if patch.AvatarURL != nil {
		params.AvatarUrl = strings.TrimSpace(*patch.AvatarURL)
	}
	if len(bad) > 0 {
		return model.User{}, apperr.Validation(bad)
	}

	row, err := s.queries.UpdateUserProfile(ctx, params)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return model.User{}, apperr.ErrUsernameExists
		}
		return model.User{}, fmt.Errorf("updating profile: %w", err)
	}
	return model.NewUser(row), nil
}

// SetRole changes a user's role. Admin only, and never the admin's own.
func (s *UserService) SetRole(ctx context.Context, actor model.User, id int64, role string) (model.User, error) {
	if !actor.IsAdmin() {
		return model.User{}, ErrAdminRequired
	}
	if !model.ValidRole(role) {
		return model.User{}, ErrInvalidRole
	}
	if actor.ID == id {
		return model.User{}, ErrOwnRoleChange
	}
	row, err := s.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{Role: role, UpdatedAt: now(), ID: id})
	if err != nil {
		return model.User{}, notFound(err, apperr.ErrUserNotFound)
	}
	s.logAudit(ctx, model.LogLevelWarning, "User role changed", actor.ID, map[string]any{"target_user_id": id, "role": role})
	return model.NewUser(row), nil
}

// Delete removes an account and everything it owns. Counters on other
// users' posts, comments and events are corrected in the same transaction.
func (s *UserService) Delete(ctx context.Context, actor model.User, id int64) error {
	if !canModify(actor, id) {
		return apperr.ErrNotOwner
	}
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		if err := q.ReleaseUserCounters(ctx, id); err != nil {
			return fmt.Errorf("releasing counters: %w", err)
		}
		n, err := q.DeleteUser(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		if n == 0 {
			return apperr.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	// A self-deleted actor no longer exists to reference.
	by := actor.ID
	if by == id {
		by = 0
	}
	s.logAudit(ctx, model.LogLevelWarning, "User deleted", by, map[string]any{"target_user_id": id})
	return nil
}

func (s *UserService) logAudit(ctx context.Context, level, msg string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogUserEvent(ctx, level, msg, auditUser(userID), meta)
}
