// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/store"
	"github.com/olegiv/community-portal/internal/testutil"
)

func mustCategory(t *testing.T, db *sql.DB, name, slug string) store.Category {
	t.Helper()
	ts := time.Now().UTC()
	c, err := store.New(db).CreateCategory(context.Background(), store.CreateCategoryParams{
		Name: name, Slug: slug, CreatedAt: ts, UpdatedAt: ts,
	})
	require.NoError(t, err)
	return c
}

func mustTag(t *testing.T, db *sql.DB, name, slug string) store.Tag {
	t.Helper()
	ts := time.Now().UTC()
	tag, err := store.New(db).CreateTag(context.Background(), store.CreateTagParams{
		Name: name, Slug: slug, CreatedAt: ts, UpdatedAt: ts,
	})
	require.NoError(t, err)
	return tag
}

func categoryCount(t *testing.T, db *sql.DB, id int64) int64 {
	t.Helper()
	c, err := store.New(db).GetCategoryByID(context.Background(), id)
	require.NoError(t, err)
	return c.PostCount
}

func tagCount(t *testing.T, db *sql.DB, id int64) int64 {
	t.Helper()
	tag, err := store.New(db).GetTagByID(context.Background(), id)
	require.NoError(t, err)
	return tag.PostCount
}

func newPostFixture(t *testing.T) (*sql.DB, *PostService) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	logger := testutil.TestLoggerSilent()
	taxonomy := NewTaxonomyService(db, nil, time.Minute, nil, logger)
	return db, NewPostService(db, taxonomy, NewAuditService(db, logger), logger)
}

func mustParsePosts(t *testing.T, v url.Values) query.PostQuery {
	t.Helper()
	q, err := query.ParsePosts(v)
	require.NoError(t, err)
	return q
}

func TestPostService_CreateRendersAndCounts(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	cat := mustCategory(t, db, "Go", "go")
	tag := mustTag(t, db, "News", "news")

	post, err := svc.Create(ctx, author, PostInput{
		Title:       "Hello, World!",
		Content:     "Some **bold** text <script>alert(1)</script>",
		Status:      model.PostStatusPublished,
		CategoryIDs: []int64{cat.ID, cat.ID},
		TagIDs:      []int64{tag.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", post.Slug)
	assert.Contains(t, post.ContentHTML, "<strong>bold</strong>")
	assert.NotContains(t, post.ContentHTML, "<script")
	assert.NotEmpty(t, post.Excerpt)
	assert.Equal(t, model.VisibilityPublic, post.Visibility)
	require.NotNil(t, post.PublishedAt)
	require.NotNil(t, post.Author)
	assert.Equal(t, author.ID, post.Author.ID)
	require.Len(t, post.Categories, 1)
	require.Len(t, post.Tags, 1)

	assert.Equal(t, int64(1), categoryCount(t, db, cat.ID))
	assert.Equal(t, int64(1), tagCount(t, db, tag.ID))
}

func TestPostService_CreateValidation(t *testing.T) {
	db, svc := newPostFixture(t)
	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))

	_, err := svc.Create(context.Background(), author, PostInput{Title: " ", Status: "bogus", Visibility: "secret"})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
	assert.Contains(t, ae.Details, "title")
	assert.Contains(t, ae.Details, "content")
	assert.Contains(t, ae.Details, "status")
	assert.Contains(t, ae.Details, "visibility")

	_, err = svc.Create(context.Background(), author, PostInput{Title: "x", Content: "y", CategoryIDs: []int64{999}})
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Details, "categoryIds")
}

func TestPostService_GetRespectsVisibility(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	other := model.NewUser(testutil.CreateUser(t, db, "other@example.com", model.RoleUser))
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))

	private := testutil.CreatePost(t, db, author.ID, "Secret", model.PostStatusPublished, model.VisibilityPrivate)

	_, err := svc.Get(ctx, nil, private.ID)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	_, err = svc.Get(ctx, &other, private.ID)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)

	got, err := svc.Get(ctx, &author, private.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ViewCount)

	got, err = svc.Get(ctx, &mod, private.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewCount)

	_, err = svc.Get(ctx, nil, 9999)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}

func TestPostService_UpdateReplacesAssociations(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	stranger := model.NewUser(testutil.CreateUser(t, db, "stranger@example.com", model.RoleUser))
	a := mustCategory(t, db, "A", "a")
	b := mustCategory(t, db, "B", "b")
	tag := mustTag(t, db, "T", "t")

	post, err := svc.Create(ctx, author, PostInput{
		Title: "Draft", Content: "first", CategoryIDs: []int64{a.ID}, TagIDs: []int64{tag.ID},
	})
	require.NoError(t, err)
	assert.Nil(t, post.PublishedAt)

	title := "Draft"
	_, err = svc.Update(ctx, stranger, post.ID, PostPatch{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrNotOwner)

	body := "second *version*"
	status := model.PostStatusPublished
	cats := []int64{b.ID}
	updated, err := svc.Update(ctx, author, post.ID, PostPatch{Content: &body, Status: &status, CategoryIDs: &cats})
	require.NoError(t, err)

	assert.Contains(t, updated.ContentHTML, "<em>version</em>")
	require.NotNil(t, updated.PublishedAt)
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, b.ID, updated.Categories[0].ID)
	// Tags were not part of the patch.
	require.Len(t, updated.Tags, 1)

	assert.Equal(t, int64(0), categoryCount(t, db, a.ID))
	assert.Equal(t, int64(1), categoryCount(t, db, b.ID))
	assert.Equal(t, int64(1), tagCount(t, db, tag.ID))
}

func TestPostService_DeleteMarksDeleted(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	stranger := model.NewUser(testutil.CreateUser(t, db, "stranger@example.com", model.RoleUser))
	cat := mustCategory(t, db, "A", "a")

	post, err := svc.Create(ctx, author, PostInput{
		Title: "Bye", Content: "x", Status: model.PostStatusPublished, CategoryIDs: []int64{cat.ID},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, post.ID), apperr.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, author, post.ID))
	assert.ErrorIs(t, svc.Delete(ctx, author, post.ID), apperr.ErrPostNotFound)

	row, err := store.New(db).GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusDeleted, row.Status)
	assert.Equal(t, int64(0), categoryCount(t, db, cat.ID))

	page, err := svc.List(ctx, nil, mustParsePosts(t, url.Values{}))
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	deleted, err := svc.List(ctx, &author, mustParsePosts(t, url.Values{"status": {"deleted"}}))
	require.NoError(t, err)
	assert.Len(t, deleted.Items, 1)
}

func TestPostService_ListHidesDeletedFromOthers(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	stranger := model.NewUser(testutil.CreateUser(t, db, "stranger@example.com", model.RoleUser))
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))
	testutil.CreatePost(t, db, author.ID, "Removed", model.PostStatusDeleted, model.VisibilityPublic)

	onlyDeleted := url.Values{"status": {"deleted"}}
	anon, err := svc.List(ctx, nil, mustParsePosts(t, onlyDeleted))
	require.NoError(t, err)
	assert.Empty(t, anon.Items)
	assert.Equal(t, int64(0), anon.Total)

	other, err := svc.List(ctx, &stranger, mustParsePosts(t, onlyDeleted))
	require.NoError(t, err)
	assert.Empty(t, other.Items)

	own, err := svc.List(ctx, &author, mustParsePosts(t, onlyDeleted))
	require.NoError(t, err)
	assert.Len(t, own.Items, 1)

	modded, err := svc.List(ctx, &mod, mustParsePosts(t, onlyDeleted))
	require.NoError(t, err)
	assert.Len(t, modded.Items, 1)
}

func TestPostService_ListFiltersAndIncludes(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	reader := model.NewUser(testutil.CreateUser(t, db, "reader@example.com", model.RoleUser))
	tag := mustTag(t, db, "Go", "go")

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := svc.Create(ctx, author, PostInput{
			Title: title, Content: "body", Status: model.PostStatusPublished, TagIDs: []int64{tag.ID},
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, author, PostInput{Title: "Hidden", Content: "body", Visibility: model.VisibilityPrivate})
	require.NoError(t, err)

	page, err := svc.List(ctx, &reader, mustParsePosts(t, url.Values{
		"limit":     {"2"},
		"sortBy":    {"title"},
		"sortOrder": {"asc"},
		"include":   {"author,tags"},
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha", page.Items[0].Title)
	require.NotNil(t, page.Items[0].Author)
	require.Len(t, page.Items[0].Tags, 1)
	assert.Nil(t, page.Items[0].Categories)

	own, err := svc.List(ctx, &author, mustParsePosts(t, url.Values{"search": {"Hid"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), own.Total)

	byTag, err := svc.List(ctx, nil, mustParsePosts(t, url.Values{"tagId": {strconv.FormatInt(tag.ID, 10)}}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), byTag.Total)
}

func TestPostService_ListStorageFailure(t *testing.T) {
	db, svc := newPostFixture(t)
	require.NoError(t, db.Close())

	_, err := svc.List(context.Background(), nil, mustParsePosts(t, url.Values{}))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindBadRequest, ae.Kind)
	assert.Equal(t, "Failed to fetch posts", ae.Message)
}

func TestDiffIDs(t *testing.T) {
	add, remove := diffIDs([]int64{1, 2, 3}, []int64{3, 4, 4, 5})
	assert.Equal(t, []int64{4, 5}, add)
	assert.Equal(t, []int64{1, 2}, remove)
}
