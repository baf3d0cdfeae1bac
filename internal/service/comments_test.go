// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/store"
	"github.com/olegiv/community-portal/internal/testutil"
)

func newCommentFixture(t *testing.T) (*sql.DB, *CommentService, *recordingPublisher) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	pub := newRecordingPublisher()
	notes := NewNotificationService(db, pub, testutil.TestLoggerSilent())
	return db, NewCommentService(db, notes, testutil.TestLoggerSilent()), pub
}

// assertCommentCount checks the counter against the live rows.
func assertCommentCount(t *testing.T, db *sql.DB, postID, want int64) {
	t.Helper()
	q := store.New(db)
	p, err := q.GetPostByID(context.Background(), postID)
	require.NoError(t, err)
	live, err := q.CountLiveCommentsForPost(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, want, p.CommentCount)
	assert.Equal(t, live, p.CommentCount)
}

func TestCommentService_CreateThreadAndNotify(t *testing.T) {
	db, svc, pub := newCommentFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	alice := model.NewUser(testutil.CreateUser(t, db, "alice@example.com", model.RoleUser))
	bob := model.NewUser(testutil.CreateUser(t, db, "bob@example.com", model.RoleUser))
	post := testutil.CreatePost(t, db, author.ID, "Topic", model.PostStatusPublished, model.VisibilityPublic)

	root, err := svc.Create(ctx, alice, post.ID, CommentInput{Content: "  first <b>!</b>  "})
	require.NoError(t, err)
	assert.Equal(t, "first !", root.Content)
	assert.Contains(t, pub.toUser[author.ID], realtime.TypeNotification)

	reply, err := svc.Create(ctx, bob, post.ID, CommentInput{Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Len(t, pub.toUser[alice.ID], 1)
	assert.Len(t, pub.toUser[author.ID], 2)

	// Commenting on your own post notifies nobody.
	_, err = svc.Create(ctx, author, post.ID, CommentInput{Content: "thanks"})
	require.NoError(t, err)
	assert.Len(t, pub.toUser[author.ID], 2)

	tree, err := svc.ListForPost(ctx, nil, post.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)
	require.NotNil(t, tree[0].Author)
	assert.Equal(t, alice.ID, tree[0].Author.ID)

	assertCommentCount(t, db, post.ID, 3)
}

func TestCommentService_CreateRejections(t *testing.T) {
	db, svc, _ := newCommentFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	post := testutil.CreatePost(t, db, author.ID, "One", model.PostStatusPublished, model.VisibilityPublic)
	other := testutil.CreatePost(t, db, author.ID, "Two", model.PostStatusPublished, model.VisibilityPublic)
	gone := testutil.CreatePost(t, db, author.ID, "Gone", model.PostStatusDeleted, model.VisibilityPublic)

	_, err := svc.Create(ctx, author, 9999, CommentInput{Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
	_, err = svc.Create(ctx, author, gone.ID, CommentInput{Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)

	_, err = svc.Create(ctx, author, post.ID, CommentInput{Content: "   "})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Details, "content")

	parent, err := svc.Create(ctx, author, other.ID, CommentInput{Content: "elsewhere"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, author, post.ID, CommentInput{Content: "x", ParentID: &parent.ID})
	assert.ErrorIs(t, err, ErrParentMismatch)

	assertCommentCount(t, db, post.ID, 0)
}

func TestCommentService_UpdateDeleteModerate(t *testing.T) {
	db, svc, _ := newCommentFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	stranger := model.NewUser(testutil.CreateUser(t, db, "stranger@example.com", model.RoleUser))
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))
	post := testutil.CreatePost(t, db, author.ID, "Topic", model.PostStatusPublished, model.VisibilityPublic)

	c, err := svc.Create(ctx, author, post.ID, CommentInput{Content: "original"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, c.ID, "hijack")
	assert.ErrorIs(t, err, apperr.ErrNotOwner)
	edited, err := svc.Update(ctx, author, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Content)

	_, err = svc.SetStatus(ctx, stranger, c.ID, model.CommentStatusFlagged)
	assert.ErrorIs(t, err, ErrModeratorRequired)
	_, err = svc.SetStatus(ctx, mod, c.ID, model.CommentStatusDeleted)
	assert.ErrorIs(t, err, ErrInvalidModState)
	flagged, err := svc.SetStatus(ctx, mod, c.ID, model.CommentStatusFlagged)
	require.NoError(t, err)
	assert.Equal(t, model.CommentStatusFlagged, flagged.Status)
	assertCommentCount(t, db, post.ID, 1)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, c.ID), apperr.ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, mod, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, author, c.ID), apperr.ErrCommentNotFound)
	assertCommentCount(t, db, post.ID, 0)

	_, err = svc.Update(ctx, author, c.ID, "too late")
	assert.ErrorIs(t, err, apperr.ErrCommentNotFound)

	// Restoring counts the comment again.
	_, err = svc.SetStatus(ctx, mod, c.ID, model.CommentStatusActive)
	require.NoError(t, err)
	assertCommentCount(t, db, post.ID, 1)
}

func TestCommentService_FlaggedHiddenFromReaders(t *testing.T) {
	db, svc, _ := newCommentFixture(t)
	ctx := context.Background()

	author := model.NewUser(testutil.CreateUser(t, db, "author@example.com", model.RoleUser))
	writer := model.NewUser(testutil.CreateUser(t, db, "writer@example.com", model.RoleUser))
	reader := model.NewUser(testutil.CreateUser(t, db, "reader@example.com", model.RoleUser))
	mod := model.NewUser(testutil.CreateUser(t, db, "mod@example.com", model.RoleModerator))
	post := testutil.CreatePost(t, db, author.ID, "Topic", model.PostStatusPublished, model.VisibilityPublic)

	kept, err := svc.Create(ctx, author, post.ID, CommentInput{Content: "fine"})
	require.NoError(t, err)
	bad, err := svc.Create(ctx, writer, post.ID, CommentInput{Content: "spam"})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, mod, bad.ID, model.CommentStatusFlagged)
	require.NoError(t, err)

	ids := func(list []model.Comment) []int64 {
		var out []int64
		for _, c := range list {
			out = append(out, c.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		viewer *model.User
		want   []int64
	}{
		{"anonymous", nil, []int64{kept.ID}},
		{"other user", &reader, []int64{kept.ID}},
		{"comment author", &writer, []int64{kept.ID, bad.ID}},
		{"moderator", &mod, []int64{kept.ID, bad.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := svc.ListForPost(ctx, tt.viewer, post.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(tree))
		})
	}

	logger := testutil.TestLoggerSilent()
	posts := NewPostService(db, nil, NewAuditService(db, logger), logger)
	page, err := posts.List(ctx, nil, mustParsePosts(t, map[string][]string{"include": {"comments"}}))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []int64{kept.ID}, ids(page.Items[0].Comments))

	page, err = posts.List(ctx, &mod, mustParsePosts(t, map[string][]string{"include": {"comments"}}))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []int64{kept.ID, bad.ID}, ids(page.Items[0].Comments))
}
