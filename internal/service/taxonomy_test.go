// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/cache"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestTaxonomyService_CategoryCRUD(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := NewTaxonomyService(db, nil, time.Minute, nil, testutil.TestLoggerSilent())
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))
	user := model.NewUser(testutil.CreateUser(t, db, "user@example.com", model.RoleUser))

	_, err := svc.CreateCategory(ctx, user, CategoryInput{Name: "News"})
	assert.ErrorIs(t, err, ErrModeratorRequired)

	news, err := svc.CreateCategory(ctx, mod, CategoryInput{Name: "Local News"})
	require.NoError(t, err)
	assert.Equal(t, "local-news", news.Slug)

	// A derived slug that is taken gets a suffix; an explicit one conflicts.
	again, err := svc.CreateCategory(ctx, mod, CategoryInput{Name: "Local news"})
	require.NoError(t, err)
	assert.Equal(t, "local-news-2", again.Slug)
	_, err = svc.CreateCategory(ctx, mod, CategoryInput{Name: "Other", Slug: "local-news"})
	assert.ErrorIs(t, err, apperr.ErrSlugExists)

	_, err = svc.CreateCategory(ctx, mod, CategoryInput{Name: "Bad", Slug: "Not A Slug"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Details, "slug")

	child, err := svc.CreateCategory(ctx, mod, CategoryInput{Name: "Sports", ParentID: &news.ID})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)

	tree, err := svc.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	var root model.Category
	for _, c := range tree {
		if c.ID == news.ID {
			root = c
		}
	}
	require.Len(t, root.Children, 1)
	assert.Equal(t, child.ID, root.Children[0].ID)

	renamed, err := svc.UpdateCategory(ctx, mod, child.ID, CategoryPatch{Name: ptr("Sport"), Slug: ptr("sport")})
	require.NoError(t, err)
	assert.Equal(t, "sport", renamed.Slug)

	got, err := svc.Category(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sport", got.Name)

	require.NoError(t, svc.DeleteCategory(ctx, mod, news.ID))
	_, err = svc.Category(ctx, news.ID)
	assert.ErrorIs(t, err, apperr.ErrCategoryNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, mod, news.ID), apperr.ErrCategoryNotFound)

	// The child moved to the root when its parent went away.
	got, err = svc.Category(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestTaxonomyService_CategoryCycle(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := NewTaxonomyService(db, nil, time.Minute, nil, testutil.TestLoggerSilent())
	admin := model.NewUser(testutil.CreateUser(t, db, "admin@example.com", model.RoleAdmin))

	a, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, admin, a.ID, CategoryPatch{ParentID: &c.ID})
	assert.ErrorIs(t, err, ErrCategoryCycle)
	_, err = svc.UpdateCategory(ctx, admin, a.ID, CategoryPatch{ParentID: &a.ID})
	assert.ErrorIs(t, err, ErrCategoryCycle)

	// Moving C to the root is fine.
	moved, err := svc.UpdateCategory(ctx, admin, c.ID, CategoryPatch{ParentID: ptr(int64(0))})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestTaxonomyService_TagsAndCache(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	mc := cache.NewSimpleMemoryCache(time.Minute)
	defer func() { _ = mc.Close() }()
	svc := NewTaxonomyService(db, mc, time.Minute, nil, testutil.TestLoggerSilent())
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))

	tags, err := svc.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.Equal(t, int64(1), mc.Stats().Sets)

	// Cached read.
	_, err = svc.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mc.Stats().Hits)

	golang, err := svc.CreateTag(ctx, mod, TagInput{Name: "Go Lang"})
	require.NoError(t, err)
	assert.Equal(t, "go-lang", golang.Slug)

	// The write invalidated the list.
	tags, err = svc.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	_, err = svc.CreateTag(ctx, mod, TagInput{Name: "Other", Slug: "go-lang"})
	assert.ErrorIs(t, err, apperr.ErrSlugExists)

	updated, err := svc.UpdateTag(ctx, mod, golang.ID, TagPatch{Name: ptr("Golang")})
	require.NoError(t, err)
	assert.Equal(t, "Golang", updated.Name)
	assert.Equal(t, "go-lang", updated.Slug)

	got, err := svc.Tag(ctx, golang.ID)
	require.NoError(t, err)
	assert.Equal(t, "Golang", got.Name)

	require.NoError(t, svc.DeleteTag(ctx, mod, golang.ID))
	_, err = svc.Tag(ctx, golang.ID)
	assert.ErrorIs(t, err, apperr.ErrTagNotFound)
}
