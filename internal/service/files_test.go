// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/imaging"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/testutil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFileService_UploadImage(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	dir := t.TempDir()
	svc := NewFileService(db, dir, 1<<20, testutil.TestLoggerSilent())
	owner := model.NewUser(testutil.CreateUser(t, db, "owner@example.com", model.RoleUser))

	f, err := svc.Upload(ctx, owner, `C:\photos\..\cat.png`, pngBytes(t, 400, 200))
	require.NoError(t, err)
	assert.Equal(t, "cat.png", f.OriginalName)
	assert.Equal(t, model.MimeTypePNG, f.MimeType)
	assert.Equal(t, int64(400), f.Width)
	assert.Equal(t, int64(200), f.Height)
	assert.NotEmpty(t, f.ThumbnailURL)
	assert.Equal(t, ".png", filepath.Ext(f.StoredName))

	_, err = os.Stat(filepath.Join(dir, imaging.OriginalsDir, f.StoredName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, imaging.ThumbnailsDir, f.StoredName))
	require.NoError(t, err)

	rc, meta, err := svc.Open(ctx, f.ID, true)
	require.NoError(t, err)
	thumb, _, err := image.DecodeConfig(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Width)
	assert.Equal(t, f.ID, meta.ID)

	page, err := svc.List(ctx, owner.ID, query.Pagination{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestFileService_UploadRejections(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := NewFileService(db, t.TempDir(), 64, testutil.TestLoggerSilent())
	owner := model.NewUser(testutil.CreateUser(t, db, "owner@example.com", model.RoleUser))

	_, err := svc.Upload(ctx, owner, "empty.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(ctx, owner, "big.txt", bytes.Repeat([]byte("a"), 65))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// Executable content is rejected regardless of the claimed name.
	_, err = svc.Upload(ctx, owner, "notes.txt", []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	text, err := svc.Upload(ctx, owner, "notes.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, model.MimeTypeText, text.MimeType)
	assert.Empty(t, text.ThumbnailURL)

	rc, _, err := svc.Open(ctx, text.ID, false)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestFileService_Delete(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	dir := t.TempDir()
	svc := NewFileService(db, dir, 1<<20, testutil.TestLoggerSilent())
	owner := model.NewUser(testutil.CreateUser(t, db, "owner@example.com", model.RoleUser))
	stranger := model.NewUser(testutil.CreateUser(t, db, "stranger@example.com", model.RoleUser))
	admin := model.NewUser(testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin))

	f, err := svc.Upload(ctx, owner, "a.txt", []byte("data"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, f.ID), apperr.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, admin, f.ID))

	_, err = os.Stat(filepath.Join(dir, imaging.OriginalsDir, f.StoredName))
	assert.True(t, os.IsNotExist(err))
	_, err = svc.Get(ctx, f.ID)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
	_, _, err = svc.Open(ctx, f.ID, false)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
}
