// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain enums, tagged variants and the client-facing
// views built from storage rows.
package model

import (
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// User roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is the public representation of an account. It never carries the
// password hash.
type User struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Username    string     `json:"username,omitempty"`
	Role        string     `json:"role"`
	Bio         string     `json:"bio,omitempty"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator returns true for moderators and admins.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// NewUser converts a storage row, dropping the password hash.
func NewUser(u store.User) User {
	out := User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Username:  u.Username.String,
		Role:      u.Role,
		Bio:       u.Bio,
		AvatarURL: u.AvatarUrl,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		out.LastLoginAt = &t
	}
	return out
}

// NewUserPtr is NewUser returning a pointer, for optional relations.
func NewUserPtr(u store.User) *User {
	v := NewUser(u)
	return &v
}
