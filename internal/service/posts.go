// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/content"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/store"
)

// PostInput is the body of a post create request.
type PostInput struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Status      string  `json:"status"`
	Visibility  string  `json:"visibility"`
	CategoryIDs []int64 `json:"categoryIds"`
	TagIDs      []int64 `json:"tagIds"`
}

// PostPatch is a partial post update. Nil fields are left unchanged; a
// non-nil empty slice clears the association.
type PostPatch struct {
	Title       *string  `json:"title"`
	Content     *string  `json:"content"`
	Status      *string  `json:"status"`
	Visibility  *string  `json:"visibility"`
	CategoryIDs *[]int64 `json:"categoryIds"`
	TagIDs      *[]int64 `json:"tagIds"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = model.PostStatusDraft
	}
	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
}

func (in PostInput) validate() error {
	bad := map[string]string{}
	if in.Title == "" {
		bad["title"] = "is required"
	} else if len(in.Title) > 200 {
		bad["title"] = "must be at most 200 characters"
	}
	if strings.TrimSpace(in.Content) == "" {
		bad["content"] = "is required"
	}
	if !model.ValidPostStatus(in.Status) || in.Status == model.PostStatusDeleted {
		bad["status"] = "must be one of draft, published, archived"
	}
	if !model.ValidVisibility(in.Visibility) {
		bad["visibility"] = "must be one of public, private, unlisted"
	}
	if len(bad) > 0 {
		return apperr.Validation(bad)
	}
	return nil
}

// cacheInvalidator is implemented by TaxonomyService; post writes change
// category and tag post counts.
type cacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// PostService manages blog posts and their category/tag associations.
type PostService struct {
	db       *sql.DB
	queries  *store.Queries
	taxonomy cacheInvalidator
	audit    *AuditService
	logger   *slog.Logger
}

// NewPostService creates a PostService. taxonomy and audit may be nil.
func NewPostService(db *sql.DB, taxonomy *TaxonomyService, audit *AuditService, logger *slog.Logger) *PostService {
	s := &PostService{
		db:      db,
		queries: store.New(db),
		audit:   audit,
		logger:  logger,
	}
	if taxonomy != nil {
		s.taxonomy = taxonomy
	}
	return s
}

// canView reports whether viewer may see p. Public and unlisted posts are
// open to everyone; private and deleted posts only to the author and
// moderators. viewer may be nil for anonymous requests.
func canView(viewer *model.User, p store.Post) bool {
	if viewer != nil && canModerate(*viewer, p.AuthorID) {
		return true
	}
	return p.Status != model.PostStatusDeleted && p.Visibility != model.VisibilityPrivate
}

// List returns a page of posts visible to viewer. Storage failures are
// logged and reported with a generic message.
func (s *PostService) List(ctx context.Context, viewer *model.User, q query.PostQuery) (model.Page[model.Post], error) {
	filter := store.PostFilter{
		Search:     q.Search,
		Statuses:   q.Statuses,
		Visibility: q.Visibility,
		AuthorID:   q.AuthorID,
		CategoryID: q.CategoryID,
		TagID:      q.TagID,
	}
	if viewer != nil {
		filter.ViewerID = viewer.ID
		filter.ViewerSeesAll = viewer.IsModerator()
	}
	order := store.PostOrder{Column: q.Sort.Column, Desc: q.Sort.Desc}

	rows, err := s.queries.ListPosts(ctx, filter, order, int64(q.Limit), q.Offset())
	if err != nil {
		s.logger.Error("listing posts failed", "error", err)
		return model.Page[model.Post]{}, apperr.ErrFetchPosts.Wrap(err)
	}
	total, err := s.queries.CountPosts(ctx, filter)
	if err != nil {
		s.logger.Error("counting posts failed", "error", err)
		return model.Page[model.Post]{}, apperr.ErrFetchPosts.Wrap(err)
	}

	items := make([]model.Post, len(rows))
	for i, r := range rows {
		items[i] = model.NewPost(r)
	}
	if err := s.loadRelations(ctx, viewer, items, q.Include); err != nil {
		s.logger.Error("loading post relations failed", "error", err)
		return model.Page[model.Post]{}, apperr.ErrFetchPosts.Wrap(err)
	}
	return model.NewPage(items, total, q.Page, q.Limit), nil
}

// loadRelations fills the requested relations with one query per relation.
// Comments are filtered for viewer the same way ListForPost filters them.
func (s *PostService) loadRelations(ctx context.Context, viewer *model.User, posts []model.Post, inc query.Include) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}

	if inc.Author {
		authorIDs := make([]int64, 0, len(posts))
		for _, p := range posts {
			authorIDs = append(authorIDs, p.AuthorID)
		}
		users, err := s.queries.GetUsersByIDs(ctx, authorIDs)
		if err != nil {
			return fmt.Errorf("loading authors: %w", err)
		}
		byID := make(map[int64]store.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for i := range posts {
			if u, ok := byID[posts[i].AuthorID]; ok {
				posts[i].Author = model.NewUserPtr(u)
			}
		}
	}

	if inc.Categories {
		rows, err := s.queries.ListCategoriesForPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("loading categories: %w", err)
		}
		for _, r := range rows {
			i := index[r.PostID]
			posts[i].Categories = append(posts[i].Categories, model.NewCategory(r.Category))
		}
	}

	if inc.Tags {
		rows, err := s.queries.ListTagsForPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("loading tags: %w", err)
		}
		for _, r := range rows {
			i := index[r.PostID]
			posts[i].Tags = append(posts[i].Tags, model.NewTag(r.Tag))
		}
	}

	if inc.Comments {
		rows, err := s.queries.ListCommentsForPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("loading comments: %w", err)
		}
		flat := make(map[int64][]model.Comment)
		for _, r := range rows {
			if !canSeeComment(viewer, r) {
				continue
			}
			flat[r.PostID] = append(flat[r.PostID], model.NewComment(r))
		}
		for postID, list := range flat {
			posts[index[postID]].Comments = model.BuildCommentTree(list)
		}
	}

	if inc.Likes {
		rows, err := s.queries.ListLikesForPosts(ctx, ids)
		if err != nil {
			return fmt.Errorf("loading likes: %w", err)
		}
		for _, r := range rows {
			like, err := model.NewLike(r)
			if err != nil {
				s.logger.Warn("skipping malformed like", "like_id", r.ID, "error", err)
				continue
			}
			i := index[like.Target.ID]
			posts[i].Likes = append(posts[i].Likes, like)
		}
	}
	return nil
}

// Get returns one post with author, categories and tags, counting the view.
// Posts the viewer may not see are reported as missing.
func (s *PostService) Get(ctx context.Context, viewer *model.User, id int64) (model.Post, error) {
	row, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		return model.Post{}, notFound(err, apperr.ErrPostNotFound)
	}
	if !canView(viewer, row) {
		return model.Post{}, apperr.ErrPostNotFound
	}
	if err := s.queries.IncrementPostViewCount(ctx, id); err != nil {
		return model.Post{}, fmt.Errorf("counting post view: %w", err)
	}
	row.ViewCount++
	return s.withRelations(ctx, row)
}

func (s *PostService) withRelations(ctx context.Context, row store.Post) (model.Post, error) {
	posts := []model.Post{model.NewPost(row)}
	if err := s.loadRelations(ctx, nil, posts, query.Include{Author: true, Categories: true, Tags: true}); err != nil {
		return model.Post{}, err
	}
	return posts[0], nil
}

// Create stores a post authored by actor. The markdown body is rendered and
// sanitized, and every attached category and tag has its post count raised.
func (s *PostService) Create(ctx context.Context, actor model.User, in PostInput) (model.Post, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return model.Post{}, err
	}
	html, err := content.Render(in.Content)
	if err != nil {
		return model.Post{}, fmt.Errorf("rendering post: %w", err)
	}

	var created store.Post
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		ts := now()
		params := store.CreatePostParams{
			AuthorID:    actor.ID,
			Title:       in.Title,
			Slug:        postSlug(in.Title),
			Content:     in.Content,
			ContentHtml: html,
			Excerpt:     content.Excerpt(html),
			Status:      in.Status,
			Visibility:  in.Visibility,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if in.Status == model.PostStatusPublished {
			params.PublishedAt = sql.NullTime{Time: ts, Valid: true}
		}
		created, err = q.CreatePost(ctx, params)
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		return syncAssociations(ctx, q, created.ID, in.CategoryIDs, in.TagIDs, true, true)
	})
	if err != nil {
		return model.Post{}, err
	}

	s.invalidateTaxonomy(ctx, len(in.CategoryIDs)+len(in.TagIDs) > 0)
	s.logger.Info("post created", "post_id", created.ID, "user_id", actor.ID)
	return s.withRelations(ctx, created)
}

// Update applies a partial update. Only the author or an admin may edit.
// The first transition to published stamps published_at.
func (s *PostService) Update(ctx context.Context, actor model.User, id int64, patch PostPatch) (model.Post, error) {
	var updated store.Post
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetPostByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}
		if cur.Status == model.PostStatusDeleted {
			return apperr.ErrPostNotFound
		}
		if !canModify(actor, cur.AuthorID) {
			return apperr.ErrNotOwner
		}

		in := PostInput{
			Title:      cur.Title,
			Content:    cur.Content,
			Status:     cur.Status,
			Visibility: cur.Visibility,
		}
		applyPostPatch(&in, patch)
		in.normalize()
		if err := in.validate(); err != nil {
			return err
		}

		html, excerpt := cur.ContentHtml, cur.Excerpt
		if in.Content != cur.Content {
			html, err = content.Render(in.Content)
			if err != nil {
				return fmt.Errorf("rendering post: %w", err)
			}
			excerpt = content.Excerpt(html)
		}
		slug := cur.Slug
		if in.Title != cur.Title {
			slug = postSlug(in.Title)
		}
		publishedAt := cur.PublishedAt
		ts := now()
		if in.Status == model.PostStatusPublished && !publishedAt.Valid {
			publishedAt = sql.NullTime{Time: ts, Valid: true}
		}

		updated, err = q.UpdatePost(ctx, store.UpdatePostParams{
			Title:       in.Title,
			Slug:        slug,
			Content:     in.Content,
			ContentHtml: html,
			Excerpt:     excerpt,
			Status:      in.Status,
			Visibility:  in.Visibility,
			PublishedAt: publishedAt,
			UpdatedAt:   ts,
			ID:          id,
		})
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}

		var categoryIDs, tagIDs []int64
		if patch.CategoryIDs != nil {
			categoryIDs = *patch.CategoryIDs
		}
		if patch.TagIDs != nil {
			tagIDs = *patch.TagIDs
		}
		return syncAssociations(ctx, q, id, categoryIDs, tagIDs, patch.CategoryIDs != nil, patch.TagIDs != nil)
	})
	if err != nil {
		return model.Post{}, err
	}

	s.invalidateTaxonomy(ctx, patch.CategoryIDs != nil || patch.TagIDs != nil)
	return s.withRelations(ctx, updated)
}

func applyPostPatch(in *PostInput, p PostPatch) {
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Content != nil {
		in.Content = *p.Content
	}
	if p.Status != nil {
		in.Status = *p.Status
	}
	if p.Visibility != nil {
		in.Visibility = *p.Visibility
	}
}

// Delete marks a post deleted and detaches its categories and tags. Only the
// author or an admin may delete.
func (s *PostService) Delete(ctx context.Context, actor model.User, id int64) error {
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetPostByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrPostNotFound)
		}
		if cur.Status == model.PostStatusDeleted {
			return apperr.ErrPostNotFound
		}
		if !canModify(actor, cur.AuthorID) {
			return apperr.ErrNotOwner
		}
		if _, err := q.SetPostStatus(ctx, model.PostStatusDeleted, now(), id); err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		return syncAssociations(ctx, q, id, nil, nil, true, true)
	})
	if err != nil {
		return err
	}

	s.invalidateTaxonomy(ctx, true)
	if s.audit != nil {
		_ = s.audit.LogPostEvent(ctx, model.LogLevelInfo, "Post deleted", auditUser(actor.ID), map[string]any{"post_id": id})
	}
	return nil
}

func (s *PostService) invalidateTaxonomy(ctx context.Context, changed bool) {
	if changed && s.taxonomy != nil {
		s.taxonomy.InvalidateCache(ctx)
	}
}

func postSlug(title string) string {
	if slug := content.Slugify(title); slug != "" {
		return slug
	}
	return "post"
}

// syncAssociations makes the post's categories (when setCategories) and tags
// (when setTags) equal to the given ids, adjusting post counts by the
// difference.
func syncAssociations(ctx context.Context, q *store.Queries, postID int64, categoryIDs, tagIDs []int64, setCategories, setTags bool) error {
	bad := map[string]string{}
	if setCategories {
		current, err := q.ListCategoryIDsForPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("loading post categories: %w", err)
		}
		add, remove := diffIDs(current, categoryIDs)
		for _, id := range add {
			if _, err := q.GetCategoryByID(ctx, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					bad["categoryIds"] = "unknown category " + strconv.FormatInt(id, 10)
					continue
				}
				return fmt.Errorf("loading category: %w", err)
			}
			if err := q.AddPostCategory(ctx, postID, id); err != nil {
				return fmt.Errorf("attaching category: %w", err)
			}
			if err := q.AdjustCategoryPostCount(ctx, 1, id); err != nil {
				return fmt.Errorf("adjusting category count: %w", err)
			}
		}
		for _, id := range remove {
			if err := q.RemovePostCategory(ctx, postID, id); err != nil {
				return fmt.Errorf("detaching category: %w", err)
			}
			if err := q.AdjustCategoryPostCount(ctx, -1, id); err != nil {
				return fmt.Errorf("adjusting category count: %w", err)
			}
		}
	}

	if setTags {
		current, err := q.ListTagIDsForPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("loading post tags: %w", err)
		}
		add, remove := diffIDs(current, tagIDs)
		for _, id := range add {
			if _, err := q.GetTagByID(ctx, id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					bad["tagIds"] = "unknown tag " + strconv.FormatInt(id, 10)
					continue
				}
				return fmt.Errorf("loading tag: %w", err)
			}
			if err := q.AddPostTag(ctx, postID, id); err != nil {
				return fmt.Errorf("attaching tag: %w", err)
			}
			if err := q.AdjustTagPostCount(ctx, 1, id); err != nil {
				return fmt.Errorf("adjusting tag count: %w", err)
			}
		}
		for _, id := range remove {
			if err := q.RemovePostTag(ctx, postID, id); err != nil {
				return fmt.Errorf("detaching tag: %w", err)
			}
			if err := q.AdjustTagPostCount(ctx, -1, id); err != nil {
				return fmt.Errorf("adjusting tag count: %w", err)
			}
		}
	}

	if len(bad) > 0 {
		return apperr.Validation(bad)
	}
	return nil
}

// diffIDs returns the ids in want but not in have, and those in have but not
// in want. Duplicates in want are ignored.
func diffIDs(have, want []int64) (add, remove []int64) {
	for _, id := range want {
		if !slices.Contains(have, id) && !slices.Contains(add, id) {
			add = append(add, id)
		}
	}
	for _, id := range have {
		if !slices.Contains(want, id) {
			remove = append(remove, id)
		}
	}
	return add, remove
}
