// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/store"
	"github.com/olegiv/community-portal/internal/testutil"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]string{}
	}
	m.tokens[email] = token
	return nil
}

func newTestService(t *testing.T) (*Service, *captureMailer, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	mailer := &captureMailer{}
	tokens := NewTokenIssuer(testutil.TestJWTSecret, time.Hour, time.Hour)
	return NewService(db, tokens, mailer, nil, testutil.TestLoggerSilent()), mailer, cleanup
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "Ann@Example.com", Password: "password123", Name: "Ann"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, "user", res.User.Role)

	claims, err := svc.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Email)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id)

	login, err := svc.Login(ctx, "ann@example.com", "password123", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.NotNil(t, login.User.LastLoginAt)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password123", Name: "One"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "password456", Name: "Two"})
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	count, err := svc.queries.CountUsers(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Password: "short"})
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
	assert.Contains(t, ae.Details, "email")
	assert.Contains(t, ae.Details, "password")
	assert.Contains(t, ae.Details, "name")
}

func TestLogin_IdenticalErrors(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "password123", Name: "Bob"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "bob@example.com", "bad-password", "")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "password123", "")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.ErrorIs(t, wrongPassword, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, apperr.ErrInvalidCredentials)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, mailer, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "cara@example.com", Password: "password123", Name: "Cara"})
	require.NoError(t, err)

	known, err := svc.ForgotPassword(ctx, "cara@example.com")
	require.NoError(t, err)
	unknown, err := svc.ForgotPassword(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, known, unknown, "response must not reveal whether the email exists")

	token := mailer.tokens["cara@example.com"]
	require.NotEmpty(t, token)
	_, sentToGhost := mailer.tokens["ghost@example.com"]
	assert.False(t, sentToGhost)

	claims, err := svc.tokens.VerifyReset(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypePasswordReset, claims.Type)

	// A reset token is not an access token.
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	require.NoError(t, svc.ResetPassword(ctx, token, "brand-new-pass"))

	_, err = svc.Login(ctx, "cara@example.com", "password123", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "cara@example.com", "brand-new-pass", "")
	assert.NoError(t, err)
}

func TestResetPassword_TokenWorksOnce(t *testing.T) {
	svc, mailer, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "password123", Name: "Eve"})
	require.NoError(t, err)
	_, err = svc.ForgotPassword(ctx, "eve@example.com")
	require.NoError(t, err)
	token := mailer.tokens["eve@example.com"]
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, token, "first-new-pass"))

	err = svc.ResetPassword(ctx, token, "second-new-pass")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = svc.Login(ctx, "eve@example.com", "first-new-pass", "")
	assert.NoError(t, err)
}

func TestResetPassword_InvalidatedByPasswordChange(t *testing.T) {
	svc, mailer, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "finn@example.com", Password: "password123", Name: "Finn"})
	require.NoError(t, err)
	_, err = svc.ForgotPassword(ctx, "finn@example.com")
	require.NoError(t, err)
	token := mailer.tokens["finn@example.com"]

	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, "password123", "changed-pass"))

	err = svc.ResetPassword(ctx, token, "hijacked-pass")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestResetPassword_RejectsAccessToken(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "dan@example.com", Password: "password123", Name: "Dan"})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, res.Token, "another-pass")
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "eve@example.com", Password: "password123", Name: "Eve"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, res.User.ID, "wrong-current", "new-password")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, "password123", "new-password"))
	_, err = svc.Login(ctx, "eve@example.com", "new-password", "")
	assert.NoError(t, err)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "fay@example.com", Password: "password123", Name: "Fay"})
	require.NoError(t, err)

	me, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, me.ID)

	_, err = store.New(svc.db).DeleteUser(ctx, res.User.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}
