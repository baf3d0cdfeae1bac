// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the event_log table.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// EventLogHandler wraps another handler and also persists records at or
// above its level to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler mirrors WARN and above.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel mirrors records at or above level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	clone.group = h.qualifyKey(name)
	return &clone
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
	}
	return out
}

// persist writes the record with a background context so a cancelled
// request still gets its failure recorded. Write errors are dropped; logging
// them here would recurse.
func (h *EventLogHandler) persist(r slog.Record) {
	attrs := append([]slog.Attr{}, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
		return true
	})

	category := ""
	meta := make(map[string]string, len(attrs))
	var userID sql.NullInt64
	for _, a := range attrs {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "user_id":
			if a.Value.Kind() == slog.KindInt64 {
				userID = sql.NullInt64{Int64: a.Value.Int64(), Valid: a.Value.Int64() > 0}
			}
			meta[a.Key] = a.Value.String()
		default:
			meta[a.Key] = a.Value.Resolve().String()
		}
	}
	if category == "" {
		category = inferCategory(r.Message)
	}

	metadata := "{}"
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			metadata = string(b)
		}
	}

	_ = h.queries.CreateEventLog(context.Background(), store.CreateEventLogParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  metadata,
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// inferCategory guesses a category from the message when the record carries
// no "category" attribute.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "token"):
		return model.LogCategoryAuth
	case strings.Contains(msg, "comment"):
		return model.LogCategoryComment
	case strings.Contains(msg, "post"):
		return model.LogCategoryPost
	case strings.Contains(msg, "event") || strings.Contains(msg, "registration"):
		return model.LogCategoryEvent
	case strings.Contains(msg, "upload") || strings.Contains(msg, "file"):
		return model.LogCategoryFile
	case strings.Contains(msg, "notification"):
		return model.LogCategoryNotification
	case strings.Contains(msg, "user"):
		return model.LogCategoryUser
	case strings.Contains(msg, "cache"):
		return model.LogCategoryCache
	default:
		return model.LogCategorySystem
	}
}
