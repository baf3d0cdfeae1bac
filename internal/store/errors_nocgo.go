// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !cgo

package store

// mattn/go-sqlite3 exports its error types only when built with cgo; without
// cgo that driver cannot produce errors, so nothing ever matches.

func mattnUniqueViolation(error) (ok, matched bool) { return false, false }

func mattnCheckViolation(error) (ok, matched bool) { return false, false }
