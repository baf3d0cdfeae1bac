// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const eventColumns = `id, organizer_id, title, description, location, start_date, end_date, max_attendees, registered_count, image_url, created_at, updated_at`

func scanEvent(row rowScanner) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.OrganizerID,
		&i.Title,
		&i.Description,
		&i.Location,
		&i.StartDate,
		&i.EndDate,
		&i.MaxAttendees,
		&i.RegisteredCount,
		&i.ImageUrl,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (organizer_id, title, description, location, start_date, end_date, max_attendees, image_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns

type CreateEventParams struct {
	OrganizerID  int64
	Title        string
	Description  string
	Location     string
	StartDate    time.Time
	EndDate      time.Time
	MaxAttendees int64
	ImageUrl     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.OrganizerID,
		arg.Title,
		arg.Description,
		arg.Location,
		arg.StartDate,
		arg.EndDate,
		arg.MaxAttendees,
		arg.ImageUrl,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEvent(row)
}

const getEventByID = `-- name: GetEventByID :one
SELECT ` + eventColumns + ` FROM events WHERE id = ?`

func (q *Queries) GetEventByID(ctx context.Context, id int64) (Event, error) {
	return scanEvent(q.db.QueryRowContext(ctx, getEventByID, id))
}

const eventExists = `-- name: EventExists :one
SELECT COUNT(*) FROM events WHERE id = ?`

func (q *Queries) EventExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, eventExists, id).Scan(&count)
	return count > 0, err
}

const updateEvent = `-- name: UpdateEvent :one
UPDATE events
SET title = ?, description = ?, location = ?, start_date = ?, end_date = ?, max_attendees = ?, image_url = ?, updated_at = ?
WHERE id = ?
RETURNING ` + eventColumns

type UpdateEventParams struct {
	Title        string
	Description  string
	Location     string
	StartDate    time.Time
	EndDate      time.Time
	MaxAttendees int64
	ImageUrl     string
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateEvent(ctx context.Context, arg UpdateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, updateEvent,
		arg.Title,
		arg.Description,
		arg.Location,
		arg.StartDate,
		arg.EndDate,
		arg.MaxAttendees,
		arg.ImageUrl,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEvent(row)
}

const deleteEvent = `-- name: DeleteEvent :execrows
DELETE FROM events WHERE id = ?`

func (q *Queries) DeleteEvent(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEvent, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const reserveEventSlot = `-- name: ReserveEventSlot :execrows
UPDATE events SET registered_count = registered_count + 1
WHERE id = ? AND registered_count < max_attendees`

// ReserveEventSlot takes one seat if any is left. Zero rows affected means the
// event is missing or full.
func (q *Queries) ReserveEventSlot(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, reserveEventSlot, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const releaseEventSlot = `-- name: ReleaseEventSlot :execrows
UPDATE events SET registered_count = registered_count - 1
WHERE id = ? AND registered_count > 0`

func (q *Queries) ReleaseEventSlot(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseEventSlot, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// EventFilter narrows ListEvents/CountEvents.
type EventFilter struct {
	Search      string
	OrganizerID int64
	// StartsAfter, when set, keeps events starting at or after it.
	StartsAfter time.Time
}

// EventOrder is a whitelisted column plus direction.
type EventOrder struct {
	Column string
	Desc   bool
}

var eventSortColumns = map[string]bool{
	"created_at": true,
	"start_date": true,
	"title":      true,
}

func (f EventFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Search != "" {
		conds = append(conds, "title LIKE '%' || ? || '%' ESCAPE '\\'")
		args = append(args, EscapeLike(f.Search))
	}
	if f.OrganizerID > 0 {
		conds = append(conds, "organizer_id = ?")
		args = append(args, f.OrganizerID)
	}
	if !f.StartsAfter.IsZero() {
		conds = append(conds, "start_date >= ?")
		args = append(args, f.StartsAfter)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q *Queries) ListEvents(ctx context.Context, filter EventFilter, order EventOrder, limit, offset int64) ([]Event, error) {
	if !eventSortColumns[order.Column] {
		return nil, fmt.Errorf("unsupported sort column %q", order.Column)
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}

	where, args := filter.where()
	query := `SELECT ` + eventColumns + ` FROM events` + where +
		` ORDER BY ` + order.Column + ` ` + dir + `, id ` + dir + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		i, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountEvents(ctx context.Context, filter EventFilter) (int64, error) {
	where, args := filter.where()
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&count)
	return count, err
}
