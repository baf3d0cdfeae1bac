// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const notificationColumns = `id, user_id, type, status, title, message, metadata, created_at, read_at`

func scanNotification(row rowScanner) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Type,
		&i.Status,
		&i.Title,
		&i.Message,
		&i.Metadata,
		&i.CreatedAt,
		&i.ReadAt,
	)
	return i, err
}

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (user_id, type, status, title, message, metadata, created_at)
VALUES (?, ?, 'unread', ?, ?, ?, ?)
RETURNING ` + notificationColumns

type CreateNotificationParams struct {
	UserID    int64
	Type      string
	Title     string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRowContext(ctx, createNotification,
		arg.UserID,
		arg.Type,
		arg.Title,
		arg.Message,
		arg.Metadata,
		arg.CreatedAt,
	)
	return scanNotification(row)
}

const getNotificationByID = `-- name: GetNotificationByID :one
SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

func (q *Queries) GetNotificationByID(ctx context.Context, id int64) (Notification, error) {
	return scanNotification(q.db.QueryRowContext(ctx, getNotificationByID, id))
}

const listNotifications = `-- name: ListNotifications :many
SELECT ` + notificationColumns + ` FROM notifications
WHERE user_id = ? AND (? = '' OR status = ?)
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

type ListNotificationsParams struct {
	UserID int64
	Status string
	Limit  int64
	Offset int64
}

func (q *Queries) ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications,
		arg.UserID, arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countNotifications = `-- name: CountNotifications :one
SELECT COUNT(*) FROM notifications WHERE user_id = ? AND (? = '' OR status = ?)`

func (q *Queries) CountNotifications(ctx context.Context, userID int64, status string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNotifications, userID, status, status).Scan(&count)
	return count, err
}

const markNotificationRead = `-- name: MarkNotificationRead :one
UPDATE notifications SET status = 'read', read_at = COALESCE(read_at, ?)
WHERE id = ?
RETURNING ` + notificationColumns

func (q *Queries) MarkNotificationRead(ctx context.Context, at time.Time, id int64) (Notification, error) {
	return scanNotification(q.db.QueryRowContext(ctx, markNotificationRead, at, id))
}

const markAllNotificationsRead = `-- name: MarkAllNotificationsRead :execrows
UPDATE notifications SET status = 'read', read_at = ?
WHERE user_id = ? AND status = 'unread'`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, at time.Time, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, markAllNotificationsRead, at, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteNotification = `-- name: DeleteNotification :execrows
DELETE FROM notifications WHERE id = ?`

func (q *Queries) DeleteNotification(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteNotification, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteReadNotificationsBefore = `-- name: DeleteReadNotificationsBefore :execrows
DELETE FROM notifications WHERE status = 'read' AND read_at < ?`

// DeleteReadNotificationsBefore prunes notifications read before cutoff.
func (q *Queries) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteReadNotificationsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
