// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const eventLogColumns = `id, level, category, message, user_id, ip_address, metadata, created_at`

const createEventLog = `-- name: CreateEventLog :exec
INSERT INTO event_log (level, category, message, user_id, ip_address, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateEventLogParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IpAddress string
	Metadata  string
	CreatedAt time.Time
}

func (q *Queries) CreateEventLog(ctx context.Context, arg CreateEventLogParams) error {
	_, err := q.db.ExecContext(ctx, createEventLog,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.IpAddress,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const listEventLogs = `-- name: ListEventLogs :many
SELECT ` + eventLogColumns + ` FROM event_log
WHERE (? = '' OR category = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListEventLogs(ctx context.Context, category string, limit int64) ([]EventLog, error) {
	rows, err := q.db.QueryContext(ctx, listEventLogs, category, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EventLog
	for rows.Next() {
		var i EventLog
		if err := rows.Scan(
			&i.ID,
			&i.Level,
			&i.Category,
			&i.Message,
			&i.UserID,
			&i.IpAddress,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteEventLogsBefore = `-- name: DeleteEventLogsBefore :execrows
DELETE FROM event_log WHERE created_at < ?`

func (q *Queries) DeleteEventLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEventLogsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
