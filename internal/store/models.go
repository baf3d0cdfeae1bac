// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Name         string         `json:"name"`
	Username     sql.NullString `json:"username"`
	Role         string         `json:"role"`
	Bio          string         `json:"bio"`
	AvatarUrl    string         `json:"avatar_url"`
	IsActive     bool           `json:"is_active"`
	LastLoginAt  sql.NullTime   `json:"last_login_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Category struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description"`
	ParentID    sql.NullInt64 `json:"parent_id"`
	PostCount   int64         `json:"post_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Post struct {
	ID           int64        `json:"id"`
	AuthorID     int64        `json:"author_id"`
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	Content      string       `json:"content"`
	ContentHtml  string       `json:"content_html"`
	Excerpt      string       `json:"excerpt"`
	Status       string       `json:"status"`
	Visibility   string       `json:"visibility"`
	ViewCount    int64        `json:"view_count"`
	LikeCount    int64        `json:"like_count"`
	CommentCount int64        `json:"comment_count"`
	PublishedAt  sql.NullTime `json:"published_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Comment struct {
	ID        int64         `json:"id"`
	PostID    int64         `json:"post_id"`
	UserID    int64         `json:"user_id"`
	ParentID  sql.NullInt64 `json:"parent_id"`
	Content   string        `json:"content"`
	Status    string        `json:"status"`
	LikeCount int64         `json:"like_count"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Like struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	PostID    sql.NullInt64 `json:"post_id"`
	CommentID sql.NullInt64 `json:"comment_id"`
	CreatedAt time.Time     `json:"created_at"`
}

type Event struct {
	ID              int64     `json:"id"`
	OrganizerID     int64     `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MaxAttendees    int64     `json:"max_attendees"`
	RegisteredCount int64     `json:"registered_count"`
	ImageUrl        string    `json:"image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type EventRegistration struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Type      string       `json:"type"`
	Status    string       `json:"status"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Metadata  string       `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
	ReadAt    sql.NullTime `json:"read_at"`
}

type File struct {
	ID            int64         `json:"id"`
	OriginalName  string        `json:"original_name"`
	StoredName    string        `json:"stored_name"`
	MimeType      string        `json:"mime_type"`
	Size          int64         `json:"size"`
	Path          string        `json:"path"`
	ThumbnailPath string        `json:"thumbnail_path"`
	Width         sql.NullInt64 `json:"width"`
	Height        sql.NullInt64 `json:"height"`
	OwnerID       sql.NullInt64 `json:"owner_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

type EventLog struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	IpAddress string        `json:"ip_address"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}
