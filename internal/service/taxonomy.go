// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/cache"
	"github.com/olegiv/community-portal/internal/content"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/store"
)

// Taxonomy errors.
var (
	ErrModeratorRequired = apperr.Forbidden("Moderator role required")
	ErrCategoryCycle     = apperr.BadRequest("Category cannot be nested under itself or its descendants")
)

const (
	taxonomyPrefix   = "taxonomy:"
	categoryTreeKey  = taxonomyPrefix + "categories:tree"
	categoryListKey  = taxonomyPrefix + "categories:flat"
	tagListKey       = taxonomyPrefix + "tags"
	categoryKeyStart = taxonomyPrefix + "category:"
	tagKeyStart      = taxonomyPrefix + "tag:"
)

// CategoryInput is the body of a category create request. An empty slug is
// derived from the name.
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parentId"`
}

// CategoryPatch is a partial category update. A ParentID of 0 moves the
// category to the root.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parentId"`
}

// TagInput is the body of a tag create request.
type TagInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TagPatch is a partial tag update.
type TagPatch struct {
	Name *string `json:"name"`
	Slug *string `json:"slug"`
}

func validateTaxonomyName(name, slug string) error {
	bad := map[string]string{}
	if name == "" {
		bad["name"] = "is required"
	} else if len(name) > 100 {
		bad["name"] = "must be at most 100 characters"
	}
	if slug != "" && !content.IsValidSlug(slug) {
		bad["slug"] = "must contain only lowercase letters, digits and hyphens"
	}
	if len(bad) > 0 {
		return apperr.Validation(bad)
	}
	return nil
}

// TaxonomyService manages categories and tags. Reads go through a cache
// that every write invalidates.
type TaxonomyService struct {
	db         *sql.DB
	queries    *store.Queries
	trees      *cache.TypedCache[[]model.Category]
	categories *cache.TypedCache[model.Category]
	tags       *cache.TypedCache[[]model.Tag]
	tag        *cache.TypedCache[model.Tag]
	raw        cache.Cache
	audit      *AuditService
	logger     *slog.Logger
}

// NewTaxonomyService creates a TaxonomyService. A nil cache gets a private
// in-memory one.
func NewTaxonomyService(db *sql.DB, c cache.Cache, ttl time.Duration, audit *AuditService, logger *slog.Logger) *TaxonomyService {
	if c == nil {
		c = cache.NewSimpleMemoryCache(ttl)
	}
	return &TaxonomyService{
		db:         db,
		queries:    store.New(db),
		trees:      cache.NewTypedCache[[]model.Category](c, ttl),
		categories: cache.NewTypedCache[model.Category](c, ttl),
		tags:       cache.NewTypedCache[[]model.Tag](c, ttl),
		tag:        cache.NewTypedCache[model.Tag](c, ttl),
		raw:        c,
		audit:      audit,
		logger:     logger,
	}
}

// InvalidateCache drops every cached taxonomy read.
func (s *TaxonomyService) InvalidateCache(ctx context.Context) {
	if err := s.raw.DeleteByPrefix(ctx, taxonomyPrefix); err != nil {
		s.logger.Warn("invalidating taxonomy cache", "error", err)
	}
}

// CategoryTree returns all categories nested under their parents.
func (s *TaxonomyService) CategoryTree(ctx context.Context) ([]model.Category, error) {
	tree, err := s.trees.GetOrSet(ctx, categoryTreeKey, func() (*[]model.Category, error) {
		flat, err := s.listCategories(ctx)
		if err != nil {
			return nil, err
		}
		tree := model.BuildCategoryTree(flat)
		return &tree, nil
	})
	if err != nil {
		return nil, err
	}
	return *tree, nil
}

// Categories returns all categories as a flat list ordered by name.
func (s *TaxonomyService) Categories(ctx context.Context) ([]model.Category, error) {
	list, err := s.trees.GetOrSet(ctx, categoryListKey, func() (*[]model.Category, error) {
		flat, err := s.listCategories(ctx)
		if err != nil {
			return nil, err
		}
		return &flat, nil
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

func (s *TaxonomyService) listCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	out := make([]model.Category, len(rows))
	for i, r := range rows {
		out[i] = model.NewCategory(r)
	}
	return out, nil
}

// Category returns one category.
func (s *TaxonomyService) Category(ctx context.Context, id int64) (model.Category, error) {
	c, err := s.categories.GetOrSet(ctx, categoryKeyStart+strconv.FormatInt(id, 10), func() (*model.Category, error) {
		row, err := s.queries.GetCategoryByID(ctx, id)
		if err != nil {
			return nil, notFound(err, apperr.ErrCategoryNotFound)
		}
		c := model.NewCategory(row)
		return &c, nil
	})
	if err != nil {
		return model.Category{}, err
	}
	return *c, nil
}

// CreateCategory stores a new category. Explicit slugs must be free; derived
// slugs get a numeric suffix when taken.
func (s *TaxonomyService) CreateCategory(ctx context.Context, actor model.User, in CategoryInput) (model.Category, error) {
	if !actor.IsModerator() {
		return model.Category{}, ErrModeratorRequired
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateTaxonomyName(in.Name, in.Slug); err != nil {
		return model.Category{}, err
	}

	var created store.Category
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		slug, err := s.categorySlug(ctx, q, in.Name, in.Slug, 0)
		if err != nil {
			return err
		}
		var parent sql.NullInt64
		if in.ParentID != nil && *in.ParentID != 0 {
			if _, err := q.GetCategoryByID(ctx, *in.ParentID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.Validation(map[string]string{"parentId": "unknown category"})
				}
				return fmt.Errorf("loading parent category: %w", err)
			}
			parent = nullInt64(*in.ParentID)
		}
		ts := now()
		created, err = q.CreateCategory(ctx, store.CreateCategoryParams{
			Name:        in.Name,
			Slug:        slug,
			Description: in.Description,
			ParentID:    parent,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrSlugExists
			}
			return fmt.Errorf("creating category: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}

	s.InvalidateCache(ctx)
	s.logAudit(ctx, "Category created", actor.ID, map[string]any{"category_id": created.ID, "slug": created.Slug})
	return model.NewCategory(created), nil
}

func (s *TaxonomyService) categorySlug(ctx context.Context, q *store.Queries, name, explicit string, selfID int64) (string, error) {
	taken := func(ctx context.Context, slug string) (bool, error) {
		n, err := q.CategorySlugExists(ctx, slug, selfID)
		return n > 0, err
	}
	if explicit != "" {
		used, err := taken(ctx, explicit)
		if err != nil {
			return "", fmt.Errorf("checking category slug: %w", err)
		}
		if used {
			return "", apperr.ErrSlugExists
		}
		return explicit, nil
	}
	return content.UniqueSlug(ctx, name, "category", taken)
}

// UpdateCategory applies a partial update. Moving a category under one of
// its own descendants is rejected.
func (s *TaxonomyService) UpdateCategory(ctx context.Context, actor model.User, id int64, patch CategoryPatch) (model.Category, error) {
	if !actor.IsModerator() {
		return model.Category{}, ErrModeratorRequired
	}

	var updated store.Category
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetCategoryByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrCategoryNotFound)
		}

		name, slug, description, parent := cur.Name, cur.Slug, cur.Description, cur.ParentID
		if patch.Name != nil {
			name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			description = *patch.Description
		}
		explicitSlug := ""
		if patch.Slug != nil {
			explicitSlug = strings.TrimSpace(*patch.Slug)
		}
		if err := validateTaxonomyName(name, explicitSlug); err != nil {
			return err
		}
		if explicitSlug != "" && explicitSlug != cur.Slug {
			if slug, err = s.categorySlug(ctx, q, name, explicitSlug, id); err != nil {
				return err
			}
		}

		if patch.ParentID != nil {
			parent = nullInt64(*patch.ParentID)
			if parent.Valid {
				if err := checkCategoryParent(ctx, q, id, parent.Int64); err != nil {
					return err
				}
			}
		}

		updated, err = q.UpdateCategory(ctx, store.UpdateCategoryParams{
			Name:        name,
			Slug:        slug,
			Description: description,
			ParentID:    parent,
			UpdatedAt:   now(),
			ID:          id,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrSlugExists
			}
			return fmt.Errorf("updating category: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Category{}, err
	}

	s.InvalidateCache(ctx)
	return model.NewCategory(updated), nil
}

// checkCategoryParent walks up from parentID and fails if it reaches id.
func checkCategoryParent(ctx context.Context, q *store.Queries, id, parentID int64) error {
	seen := map[int64]bool{}
	for cur := parentID; ; {
		if cur == id {
			return ErrCategoryCycle
		}
		if seen[cur] {
			// Pre-existing loop not involving id.
			return nil
		}
		seen[cur] = true
		row, err := q.GetCategoryByID(ctx, cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.Validation(map[string]string{"parentId": "unknown category"})
			}
			return fmt.Errorf("loading category ancestor: %w", err)
		}
		if !row.ParentID.Valid {
			return nil
		}
		cur = row.ParentID.Int64
	}
}

// DeleteCategory removes a category. Children move to the root and post
// associations are dropped by the schema.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, actor model.User, id int64) error {
	if !actor.IsModerator() {
		return ErrModeratorRequired
	}
	n, err := s.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n == 0 {
		return apperr.ErrCategoryNotFound
	}
	s.InvalidateCache(ctx)
	s.logAudit(ctx, "Category deleted", actor.ID, map[string]any{"category_id": id})
	return nil
}

// Tags returns all tags ordered by name.
func (s *TaxonomyService) Tags(ctx context.Context) ([]model.Tag, error) {
	list, err := s.tags.GetOrSet(ctx, tagListKey, func() (*[]model.Tag, error) {
		rows, err := s.queries.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing tags: %w", err)
		}
		out := make([]model.Tag, len(rows))
		for i, r := range rows {
			out[i] = model.NewTag(r)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// Tag returns one tag.
func (s *TaxonomyService) Tag(ctx context.Context, id int64) (model.Tag, error) {
	t, err := s.tag.GetOrSet(ctx, tagKeyStart+strconv.FormatInt(id, 10), func() (*model.Tag, error) {
		row, err := s.queries.GetTagByID(ctx, id)
		if err != nil {
			return nil, notFound(err, apperr.ErrTagNotFound)
		}
		t := model.NewTag(row)
		return &t, nil
	})
	if err != nil {
		return model.Tag{}, err
	}
	return *t, nil
}

// CreateTag stores a new tag.
func (s *TaxonomyService) CreateTag(ctx context.Context, actor model.User, in TagInput) (model.Tag, error) {
	if !actor.IsModerator() {
		return model.Tag{}, ErrModeratorRequired
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	if err := validateTaxonomyName(in.Name, in.Slug); err != nil {
		return model.Tag{}, err
	}

	var created store.Tag
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		slug, err := tagSlug(ctx, q, in.Name, in.Slug, 0)
		if err != nil {
			return err
		}
		ts := now()
		created, err = q.CreateTag(ctx, store.CreateTagParams{Name: in.Name, Slug: slug, CreatedAt: ts, UpdatedAt: ts})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrSlugExists
			}
			return fmt.Errorf("creating tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Tag{}, err
	}

	s.InvalidateCache(ctx)
	s.logAudit(ctx, "Tag created", actor.ID, map[string]any{"tag_id": created.ID, "slug": created.Slug})
	return model.NewTag(created), nil
}

func tagSlug(ctx context.Context, q *store.Queries, name, explicit string, selfID int64) (string, error) {
	taken := func(ctx context.Context, slug string) (bool, error) {
		n, err := q.TagSlugExists(ctx, slug, selfID)
		return n > 0, err
	}
	if explicit != "" {
		used, err := taken(ctx, explicit)
		if err != nil {
			return "", fmt.Errorf("checking tag slug: %w", err)
		}
		if used {
			return "", apperr.ErrSlugExists
		}
		return explicit, nil
	}
	return content.UniqueSlug(ctx, name, "tag", taken)
}

// UpdateTag applies a partial update.
func (s *TaxonomyService) UpdateTag(ctx context.Context, actor model.User, id int64, patch TagPatch) (model.Tag, error) {
	if !actor.IsModerator() {
		return model.Tag{}, ErrModeratorRequired
	}

	var updated store.Tag
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetTagByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrTagNotFound)
		}
		name, slug := cur.Name, cur.Slug
		if patch.Name != nil {
			name = strings.TrimSpace(*patch.Name)
		}
		explicitSlug := ""
		if patch.Slug != nil {
			explicitSlug = strings.TrimSpace(*patch.Slug)
		}
		if err := validateTaxonomyName(name, explicitSlug); err != nil {
			return err
		}
		if explicitSlug != "" && explicitSlug != cur.Slug {
			if slug, err = tagSlug(ctx, q, name, explicitSlug, id); err != nil {
				return err
			}
		}
		updated, err = q.UpdateTag(ctx, store.UpdateTagParams{Name: name, Slug: slug, UpdatedAt: now(), ID: id})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrSlugExists
			}
			return fmt.Errorf("updating tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Tag{}, err
	}

	s.InvalidateCache(ctx)
	return model.NewTag(updated), nil
}

// DeleteTag removes a tag and its post associations.
func (s *TaxonomyService) DeleteTag(ctx context.Context, actor model.User, id int64) error {
	if !actor.IsModerator() {
		return ErrModeratorRequired
	}
	n, err := s.queries.DeleteTag(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	if n == 0 {
		return apperr.ErrTagNotFound
	}
	s.InvalidateCache(ctx)
	s.logAudit(ctx, "Tag deleted", actor.ID, map[string]any{"tag_id": id})
	return nil
}

func (s *TaxonomyService) logAudit(ctx context.Context, msg string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogTaxonomyEvent(ctx, model.LogLevelInfo, msg, auditUser(userID), meta)
}
