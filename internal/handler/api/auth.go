// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/auth"
	"github.com/olegiv/community-portal/internal/middleware"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of POST /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.IP = middleware.GetClientIP(r)

	res, err := h.svc.Auth.Register(r.Context(), in)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteCreated(w, res)
}

// Login handles POST /api/auth/login. Repeated failures lock the account
// for a growing period.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	if locked, remaining := h.login.IsAccountLocked(in.Email); locked {
		minutes := int(math.Ceil(remaining.Minutes()))
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Too many failed attempts. Try again in %d minute(s).", minutes), nil)
		return
	}

	res, err := h.svc.Auth.Login(r.Context(), in.Email, in.Password, middleware.GetClientIP(r))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			h.login.RecordFailedAttempt(in.Email)
		}
		h.writeErr(w, r, err)
		return
	}
	h.login.RecordSuccessfulLogin(in.Email)
	WriteSuccess(w, res, nil)
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is the
// same whether or not the email is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in ForgotPasswordRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	msg, err := h.svc.Auth.ForgotPassword(r.Context(), in.Email)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, MessageResponse{Message: msg}, nil)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ResetPasswordRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.svc.Auth.ResetPassword(r.Context(), in.Token, in.Password); err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, MessageResponse{Message: "Password has been reset"}, nil)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	user, err := h.svc.Auth.Me(r.Context(), u.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, user, nil)
}

// ChangePassword handles POST /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var in ChangePasswordRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := h.svc.Auth.ChangePassword(r.Context(), u.ID, in.CurrentPassword, in.NewPassword); err != nil {
		h.writeErr(w, r, err)
		return
	}
	WriteSuccess(w, MessageResponse{Message: "Password changed"}, nil)
}
