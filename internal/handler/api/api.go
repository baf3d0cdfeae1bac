// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the portal's REST API handlers.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/auth"
	"github.com/olegiv/community-portal/internal/cache"
	"github.com/olegiv/community-portal/internal/middleware"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/service"
)

// maxJSONBody caps request bodies other than uploads.
const maxJSONBody = 1 << 20

// Services bundles the domain services the handlers call.
type Services struct {
	Auth          *auth.Service
	Users         *service.UserService
	Events        *service.EventService
	Registrations *service.RegistrationService
	Posts         *service.PostService
	Comments      *service.CommentService
	Likes         *service.LikeService
	Taxonomy      *service.TaxonomyService
	Notifications *service.NotificationService
	Files         *service.FileService
	Audit         *service.AuditService
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	svc       Services
	gateway   *realtime.Gateway
	cache     cache.Cache
	login      *middleware.LoginProtection
	uploadsDir string
	logger     *slog.Logger
	startTime  time.Time
}

// Deps configures a Handler. Gateway and Cache may be nil.
type Deps struct {
	DB              *sql.DB
	Services        Services
	Gateway         *realtime.Gateway
	Cache           cache.Cache
	LoginProtection middleware.LoginProtectionConfig
	UploadsDir      string
	Logger          *slog.Logger
}

// NewHandler creates a Handler. Call Close when done to stop background work.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:         d.DB,
		svc:        d.Services,
		gateway:    d.Gateway,
		cache:      d.Cache,
		login:      middleware.NewLoginProtection(d.LoginProtection),
		uploadsDir: d.UploadsDir,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// Close stops the login protection cleanup loop.
func (h *Handler) Close() {
	h.login.Close()
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response wrapping data.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WritePage writes a page of items with its pagination metadata.
func WritePage[T any](w http.ResponseWriter, p model.Page[T]) {
	WriteSuccess(w, p.Items, &Meta{
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, apperr.KindBadRequest.String(), message, details)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeErr translates a service error into the error envelope. Only the
// client-safe message of an *apperr.Error is exposed.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}
	status := statusFor(ae.Kind)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", middleware.GetUserID(r),
			"error", err,
		)
	}
	WriteError(w, status, ae.Kind.String(), ae.Message, ae.Details)
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large", nil)
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is required", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body", nil)
		}
		return false
	}
	return true
}

// parseID reads a positive integer URL parameter.
func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+param, map[string]string{param: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// actor returns the authenticated user. Routes using it sit behind
// RequireAuth, so a missing user is a wiring bug answered with 401.
func actor(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	u := middleware.GetUser(r)
	if u == nil {
		WriteError(w, http.StatusUnauthorized, apperr.KindUnauthorized.String(), "Authentication required", nil)
		return model.User{}, false
	}
	return *u, true
}
