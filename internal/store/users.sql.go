// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, email, password_hash, name, username, role, bio, avatar_url, is_active, last_login_at, created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Name,
		&i.Username,
		&i.Role,
		&i.Bio,
		&i.AvatarUrl,
		&i.IsActive,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// inClause renders "(?, ?, ...)" for ids and the matching argument list.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for n, id := range ids {
		args[n] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")", args
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, password_hash, name, username, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Username     sql.NullString
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.Username,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const userEmailExists = `-- name: UserEmailExists :one
SELECT COUNT(*) FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) UserEmailExists(ctx context.Context, email string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, userEmailExists, email).Scan(&count)
	return count, err
}

// GetUsersByIDs loads users for a batch of ids; missing ids are skipped.
func (q *Queries) GetUsersByIDs(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id IN `+in, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users
WHERE (? = '' OR email LIKE '%' || ? || '%' ESCAPE '\' OR name LIKE '%' || ? || '%' ESCAPE '\')
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`

type ListUsersParams struct {
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers,
		arg.Search, EscapeLike(arg.Search), EscapeLike(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users
WHERE (? = '' OR email LIKE '%' || ? || '%' ESCAPE '\' OR name LIKE '%' || ? || '%' ESCAPE '\')`

func (q *Queries) CountUsers(ctx context.Context, search string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers, search, EscapeLike(search), EscapeLike(search)).Scan(&count)
	return count, err
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users
SET name = ?, username = ?, bio = ?, avatar_url = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	Name      string
	Username  sql.NullString
	Bio       string
	AvatarUrl string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.Name,
		arg.Username,
		arg.Bio,
		arg.AvatarUrl,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanUser(row)
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserRole = `-- name: UpdateUserRole :one
UPDATE users SET role = ?, updated_at = ? WHERE id = ?
RETURNING ` + userColumns

type UpdateUserRoleParams struct {
	Role      string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt, arg.ID))
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateUserLastLogin(ctx context.Context, at time.Time, id int64) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, at, id)
	return err
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// The statements below correct counters on rows owned by other users before a
// user row is removed and its children cascade away.

const releaseLikesOfUser = `-- name: ReleaseLikesOfUser :exec
UPDATE posts SET like_count = like_count - 1
WHERE id IN (SELECT post_id FROM likes WHERE user_id = ? AND post_id IS NOT NULL)`

const releaseCommentLikesOfUser = `-- name: ReleaseCommentLikesOfUser :exec
UPDATE comments SET like_count = like_count - 1
WHERE id IN (SELECT comment_id FROM likes WHERE user_id = ? AND comment_id IS NOT NULL)`

const releaseCommentsOfUser = `-- name: ReleaseCommentsOfUser :exec
UPDATE posts SET comment_count = comment_count - (
    SELECT COUNT(*) FROM comments c
    WHERE c.post_id = posts.id AND c.user_id = ? AND c.status <> 'deleted'
)
WHERE id IN (SELECT post_id FROM comments WHERE user_id = ? AND status <> 'deleted')`

const releaseRegistrationsOfUser = `-- name: ReleaseRegistrationsOfUser :exec
UPDATE events SET registered_count = registered_count - 1
WHERE id IN (SELECT event_id FROM event_registrations WHERE user_id = ?)`

const releaseCategoriesOfAuthor = `-- name: ReleaseCategoriesOfAuthor :exec
UPDATE categories SET post_count = post_count - (
    SELECT COUNT(*) FROM post_categories pc JOIN posts p ON p.id = pc.post_id
    WHERE pc.category_id = categories.id AND p.author_id = ?
)
WHERE id IN (
    SELECT pc.category_id FROM post_categories pc JOIN posts p ON p.id = pc.post_id
    WHERE p.author_id = ?
)`

const releaseTagsOfAuthor = `-- name: ReleaseTagsOfAuthor :exec
UPDATE tags SET post_count = post_count - (
    SELECT COUNT(*) FROM post_tags pt JOIN posts p ON p.id = pt.post_id
    WHERE pt.tag_id = tags.id AND p.author_id = ?
)
WHERE id IN (
    SELECT pt.tag_id FROM post_tags pt JOIN posts p ON p.id = pt.post_id
    WHERE p.author_id = ?
)`

// ReleaseUserCounters decrements every denormalized counter that references
// rows owned by userID. Must run in the same transaction as DeleteUser.
func (q *Queries) ReleaseUserCounters(ctx context.Context, userID int64) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{releaseLikesOfUser, []any{userID}},
		{releaseCommentLikesOfUser, []any{userID}},
		{releaseCommentsOfUser, []any{userID, userID}},
		{releaseRegistrationsOfUser, []any{userID}},
		{releaseCategoriesOfAuthor, []any{userID, userID}},
		{releaseTagsOfAuthor, []any{userID, userID}},
	}
	for _, s := range stmts {
		if _, err := q.db.ExecContext(ctx, s.query, s.args...); err != nil {
			return err
		}
	}
	return nil
}
