// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// ForgotPasswordMessage is returned for every forgot-password request,
// whether or not the email is known.
const ForgotPasswordMessage = "If that email address is registered, a password reset link has been sent"

// Auditor records security-relevant events.
type Auditor interface {
	LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error
}

// Service implements the account flows.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	tokens  *TokenIssuer
	mailer  Mailer
	auditor Auditor
	logger  *slog.Logger
}

// NewService creates an auth Service. auditor may be nil.
func NewService(db *sql.DB, tokens *TokenIssuer, mailer Mailer, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		queries: store.New(db),
		tokens:  tokens,
		mailer:  mailer,
		auditor: auditor,
		logger:  logger,
	}
}

// Result is returned by Register and Login.
type Result struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// RegisterInput holds the fields accepted on sign-up.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Username string `json:"username"`
	IP       string `json:"-"`
}

func (in *RegisterInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
}

func (in RegisterInput) validate() error {
	details := map[string]string{}
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		details["email"] = "must be a valid email address"
	}
	if len(in.Password) < MinPasswordLength {
		details["password"] = fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}
	if in.Name == "" {
		details["name"] = "is required"
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// Register creates a user account and returns an access token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	exists, err := s.queries.UserEmailExists(ctx, in.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("checking email: %w", err))
	}
	if exists > 0 {
		return nil, apperr.ErrEmailExists
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Username:     sql.NullString{String: in.Username, Valid: in.Username != ""},
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Lost a race with a concurrent sign-up for the same email or username.
		if store.IsUniqueViolation(err) {
			if strings.Contains(err.Error(), "username") {
				return nil, apperr.ErrUsernameExists
			}
			return nil, apperr.ErrEmailExists
		}
		return nil, apperr.Internal(fmt.Errorf("creating user: %w", err))
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.audit(ctx, model.LogLevelInfo, "User registered", &user.ID, in.IP, map[string]any{"email": user.Email})
	return &Result{Token: token, User: model.NewUser(user)}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Spend comparable time so response latency does not reveal the miss.
			_, _ = CheckPassword(password, dummyHash)
			s.audit(ctx, model.LogLevelWarning, "Failed login attempt", nil, ip, map[string]any{"email": email})
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Internal(fmt.Errorf("loading user: %w", err))
	}

	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is malformed", "user_id", user.ID, "error", err)
	}
	if !ok || !user.IsActive {
		s.audit(ctx, model.LogLevelWarning, "Failed login attempt", &user.ID, ip, map[string]any{"email": email})
		return nil, apperr.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.queries.UpdateUserLastLogin(ctx, now, user.ID); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: hash, UpdatedAt: now, ID: user.ID,
			})
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.audit(ctx, model.LogLevelInfo, "User logged in", &user.ID, ip, nil)
	return &Result{Token: token, User: model.NewUser(user)}, nil
}

// dummyHash is compared against when the email is unknown.
var dummyHash = func() string {
	h, _ := HashPassword("portal-dummy-password")
	return h
}()

// ForgotPassword issues a reset token when the email exists. The returned
// message never depends on that.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("forgot password lookup failed", "error", err)
		}
		return ForgotPasswordMessage, nil
	}

	token, err := s.tokens.IssueReset(user.ID, user.Email, user.PasswordHash)
	if err != nil {
		s.logger.Error("issuing reset token failed", "user_id", user.ID, "error", err)
		return ForgotPasswordMessage, nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.logger.Error("sending reset email failed", "user_id", user.ID, "error", err)
	}

	s.audit(ctx, model.LogLevelInfo, "Password reset requested", &user.ID, "", nil)
	return ForgotPasswordMessage, nil
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return apperr.ErrInvalidToken.Wrap(err)
	}
	if len(newPassword) < MinPasswordLength {
		return apperr.Validation(map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}

	userID, _ := claims.UserID()
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrInvalidToken
		}
		return apperr.Internal(err)
	}
	// A token issued before an email change must not reset the new account.
	if !strings.EqualFold(user.Email, claims.Email) {
		return apperr.ErrInvalidToken
	}
	// Any password change since issue, including a reset with this token.
	if !s.tokens.StampMatches(claims, user.PasswordHash) {
		return apperr.ErrInvalidToken
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	s.audit(ctx, model.LogLevelInfo, "Password reset completed", &user.ID, "", nil)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrUserNotFound
		}
		return apperr.Internal(err)
	}

	ok, _ := CheckPassword(current, user.PasswordHash)
	if !ok {
		return apperr.BadRequest("Current password is incorrect")
	}
	if len(next) < MinPasswordLength {
		return apperr.Validation(map[string]string{
			"newPassword": fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		})
	}

	if err := s.setPassword(ctx, user.ID, next); err != nil {
		return err
	}
	s.audit(ctx, model.LogLevelInfo, "Password changed", &user.ID, "", nil)
	return nil
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return apperr.Internal(err)
	}
	err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now().UTC(),
		ID:           userID,
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("updating password: %w", err))
	}
	return nil
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.ErrUserNotFound
		}
		return model.User{}, apperr.Internal(err)
	}
	return model.NewUser(user), nil
}

// Authenticate verifies an access token and loads its user. Tokens for
// deleted or deactivated accounts are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return model.User{}, apperr.ErrInvalidToken.Wrap(err)
	}
	userID, _ := claims.UserID()
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, apperr.ErrInvalidToken
		}
		return model.User{}, apperr.Internal(err)
	}
	if !user.IsActive {
		return model.User{}, apperr.ErrInvalidToken
	}
	return model.NewUser(user), nil
}

func (s *Service) audit(ctx context.Context, level, message string, userID *int64, ip string, metadata map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogAuthEvent(ctx, level, message, userID, ip, metadata); err != nil {
		s.logger.Warn("audit write failed", "message", message, "error", err)
	}
}
