// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const registrationColumns = `id, event_id, user_id, created_at`

func scanRegistration(row rowScanner) (EventRegistration, error) {
	var i EventRegistration
	err := row.Scan(&i.ID, &i.EventID, &i.UserID, &i.CreatedAt)
	return i, err
}

const createRegistration = `-- name: CreateRegistration :one
INSERT INTO event_registrations (event_id, user_id, created_at) VALUES (?, ?, ?)
RETURNING ` + registrationColumns

func (q *Queries) CreateRegistration(ctx context.Context, eventID, userID int64, createdAt time.Time) (EventRegistration, error) {
	return scanRegistration(q.db.QueryRowContext(ctx, createRegistration, eventID, userID, createdAt))
}

const getRegistration = `-- name: GetRegistration :one
SELECT ` + registrationColumns + ` FROM event_registrations WHERE event_id = ? AND user_id = ?`

func (q *Queries) GetRegistration(ctx context.Context, eventID, userID int64) (EventRegistration, error) {
	return scanRegistration(q.db.QueryRowContext(ctx, getRegistration, eventID, userID))
}

const deleteRegistration = `-- name: DeleteRegistration :execrows
DELETE FROM event_registrations WHERE event_id = ? AND user_id = ?`

func (q *Queries) DeleteRegistration(ctx context.Context, eventID, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRegistration, eventID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countRegistrationsForEvent = `-- name: CountRegistrationsForEvent :one
SELECT COUNT(*) FROM event_registrations WHERE event_id = ?`

func (q *Queries) CountRegistrationsForEvent(ctx context.Context, eventID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countRegistrationsForEvent, eventID).Scan(&count)
	return count, err
}

// RegistrationWithUser is a registration joined with the registered user.
type RegistrationWithUser struct {
	Registration EventRegistration
	User         User
}

var listRegistrationsForEvent = `-- name: ListRegistrationsForEvent :many
SELECT r.id, r.event_id, r.user_id, r.created_at, ` + prefixColumns("u", userColumns) + `
FROM event_registrations r JOIN users u ON u.id = r.user_id
WHERE r.event_id = ?
ORDER BY r.created_at, r.id`

func (q *Queries) ListRegistrationsForEvent(ctx context.Context, eventID int64) ([]RegistrationWithUser, error) {
	rows, err := q.db.QueryContext(ctx, listRegistrationsForEvent, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RegistrationWithUser
	for rows.Next() {
		var i RegistrationWithUser
		r, u := &i.Registration, &i.User
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.UserID, &r.CreatedAt,
			&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Username, &u.Role, &u.Bio,
			&u.AvatarUrl, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// RegistrationWithEvent is a registration joined with its event.
type RegistrationWithEvent struct {
	Registration EventRegistration
	Event        Event
}

var listRegistrationsForUser = `-- name: ListRegistrationsForUser :many
SELECT r.id, r.event_id, r.user_id, r.created_at, ` + prefixColumns("e", eventColumns) + `
FROM event_registrations r JOIN events e ON e.id = r.event_id
WHERE r.user_id = ?
ORDER BY r.created_at, r.id`

func (q *Queries) ListRegistrationsForUser(ctx context.Context, userID int64) ([]RegistrationWithEvent, error) {
	rows, err := q.db.QueryContext(ctx, listRegistrationsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RegistrationWithEvent
	for rows.Next() {
		var i RegistrationWithEvent
		r, e := &i.Registration, &i.Event
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.UserID, &r.CreatedAt,
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &e.StartDate,
			&e.EndDate, &e.MaxAttendees, &e.RegisteredCount, &e.ImageUrl, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
