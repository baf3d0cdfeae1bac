// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
)

// Publisher pushes realtime messages. realtime.Gateway implements it.
type Publisher interface {
	PublishToUser(userID int64, msgType string, payload any)
	Broadcast(msgType string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) PublishToUser(int64, string, any) {}
func (nopPublisher) Broadcast(string, any)            {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// now is the clock used for stored timestamps.
var now = func() time.Time { return time.Now().UTC() }

// notFound maps sql.ErrNoRows to the given NotFound sentinel.
func notFound(err error, sentinel *apperr.Error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// canModify reports whether actor owns the resource or is an admin.
func canModify(actor model.User, ownerID int64) bool {
	return actor.ID == ownerID || actor.IsAdmin()
}

// canModerate reports whether actor owns the resource or is a moderator/admin.
func canModerate(actor model.User, ownerID int64) bool {
	return actor.ID == ownerID || actor.IsModerator()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
