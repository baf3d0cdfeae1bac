// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build cgo

package store

import (
	"errors"

	mattn "github.com/mattn/go-sqlite3"
)

// mattnUniqueViolation classifies err if it is a mattn/go-sqlite3 error.
// matched is false when err is not from that driver.
func mattnUniqueViolation(err error) (ok, matched bool) {
	var ce mattn.Error
	if errors.As(err, &ce) {
		return ce.ExtendedCode == mattn.ErrConstraintUnique ||
			ce.ExtendedCode == mattn.ErrConstraintPrimaryKey, true
	}
	return false, false
}

// mattnCheckViolation classifies err if it is a mattn/go-sqlite3 error.
// matched is false when err is not from that driver.
func mattnCheckViolation(err error) (ok, matched bool) {
	var ce mattn.Error
	if errors.As(err, &ce) {
		return ce.ExtendedCode == mattn.ErrConstraintCheck, true
	}
	return false, false
}
