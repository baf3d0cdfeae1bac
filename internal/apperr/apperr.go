// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindBadRequest
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is a domain error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	// Details carries per-field validation messages.
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by identity, and otherwise by kind and message so
// that wrapped copies of a sentinel still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Message == t.Message)
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) *Error     { return newErr(KindNotFound, msg) }
func Conflict(msg string) *Error     { return newErr(KindConflict, msg) }
func BadRequest(msg string) *Error   { return newErr(KindBadRequest, msg) }
func Unauthorized(msg string) *Error { return newErr(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return newErr(KindForbidden, msg) }

// Internal wraps an unexpected failure; the cause is never shown to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// Validation builds a BadRequest error with field details.
func Validation(details map[string]string) *Error {
	return &Error{Kind: KindBadRequest, Message: "Validation failed", Details: details}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Sentinels raised by services.
var (
	ErrEventNotFound        = NotFound("Event not found")
	ErrRegistrationNotFound = NotFound("Registration not found")
	ErrCapacityExceeded     = BadRequest("Event is at full capacity")
	ErrAlreadyRegistered    = Conflict("User is already registered for this event")

	ErrPostNotFound         = NotFound("Post not found")
	ErrCommentNotFound      = NotFound("Comment not found")
	ErrUserNotFound         = NotFound("User not found")
	ErrCategoryNotFound     = NotFound("Category not found")
	ErrTagNotFound          = NotFound("Tag not found")
	ErrNotificationNotFound = NotFound("Notification not found")
	ErrFileNotFound         = NotFound("File not found")
	ErrLikeNotFound         = NotFound("Like not found")

	ErrEmailExists        = Conflict("Email already exists")
	ErrUsernameExists     = Conflict("Username already exists")
	ErrSlugExists         = Conflict("Slug already exists")
	ErrAlreadyLiked       = Conflict("Already liked")
	ErrInvalidCredentials = Unauthorized("Invalid credentials")
	ErrInvalidToken       = Unauthorized("Invalid or expired token")
	ErrNotOwner           = BadRequest("You are not allowed to modify this resource")
	ErrFetchPosts         = BadRequest("Failed to fetch posts")
	ErrFetchEvents        = BadRequest("Failed to fetch events")
)
