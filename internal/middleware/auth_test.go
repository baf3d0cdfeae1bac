// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
)

// stubAuth maps tokens to users.
type stubAuth map[string]model.User

func (s stubAuth) Authenticate(_ context.Context, token string) (model.User, error) {
	if token == "boom" {
		return model.User{}, apperr.Internal(errors.New("db down"))
	}
	u, ok := s[token]
	if !ok {
		return model.User{}, apperr.ErrInvalidToken
	}
	return u, nil
}

type recordingAuditor struct{ messages []string }

func (a *recordingAuditor) LogAuthEvent(_ context.Context, _, message string, _ *int64, _ string, _ map[string]any) error {
	a.messages = append(a.messages, message)
	return nil
}

var testUsers = stubAuth{
	"user-token":  {ID: 1, Email: "u@example.com", Role: model.RoleUser},
	"mod-token":   {ID: 2, Email: "m@example.com", Role: model.RoleModerator},
	"admin-token": {ID: 3, Email: "a@example.com", Role: model.RoleAdmin},
}

// whoami echoes the authenticated user id.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]int64{"id": GetUserID(r)})
})

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":    "abc",
		"bearer  abc ":  "abc",
		"Basic abc":     "",
		"Bearer":        "",
		"":              "",
		"Token abc def": "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(req), header)
	}
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(testUsers)(whoami)

	rec := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Error.Code)

	rec = serve(h, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperr.ErrInvalidToken.Message, decodeError(t, rec).Error.Message)

	rec = serve(h, "boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(h, "mod-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2}`, rec.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(testUsers)(whoami)

	assert.JSONEq(t, `{"id":0}`, serve(h, "").Body.String())
	assert.JSONEq(t, `{"id":0}`, serve(h, "forged").Body.String())
	assert.JSONEq(t, `{"id":1}`, serve(h, "user-token").Body.String())
}

func TestRequireRole(t *testing.T) {
	auditor := &recordingAuditor{}
	mod := RequireAuth(testUsers)(RequireModerator(auditor)(whoami))
	admin := RequireAuth(testUsers)(RequireAdmin(auditor)(whoami))

	tests := []struct {
		name    string
		handler http.Handler
		token   string
		want    int
	}{
		{"user denied moderator route", mod, "user-token", http.StatusForbidden},
		{"moderator allowed", mod, "mod-token", http.StatusOK},
		{"admin inherits moderator", mod, "admin-token", http.StatusOK},
		{"moderator denied admin route", admin, "mod-token", http.StatusForbidden},
		{"admin allowed", admin, "admin-token", http.StatusOK},
		{"anonymous", admin, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(tt.handler, tt.token).Code)
		})
	}
	assert.Len(t, auditor.messages, 2)
}

func TestRequireRole_WithoutUser(t *testing.T) {
	rec := serve(RequireAdmin(nil)(whoami), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))
	assert.Zero(t, GetUserID(req))

	req = req.WithContext(WithUser(req.Context(), model.User{ID: 456, Role: model.RoleUser}))
	require.NotNil(t, GetUser(req))
	assert.Equal(t, int64(456), GetUserID(req))
}
