// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err was raised by a UNIQUE or PRIMARY KEY
// constraint, for either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var me *sqlite.Error
	if errors.As(err, &me) {
		return me.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			me.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	if ok, matched := mattnUniqueViolation(err); matched {
		return ok
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err was raised by a CHECK constraint.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}

	var me *sqlite.Error
	if errors.As(err, &me) {
		return me.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK
	}

	if ok, matched := mattnCheckViolation(err); matched {
		return ok
	}

	return strings.Contains(err.Error(), "CHECK constraint failed")
}
