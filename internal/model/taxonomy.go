// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// Category is a hierarchical taxonomy node.
type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    *int64     `json:"parentId,omitempty"`
	PostCount   int64      `json:"postCount"`
	Children    []Category `json:"children,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewCategory(c store.Category) Category {
	out := Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		PostCount:   c.PostCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.ParentID.Valid {
		id := c.ParentID.Int64
		out.ParentID = &id
	}
	return out
}

// BuildCategoryTree nests categories under their parents. Orphans (parent
// missing from the list) are treated as roots.
func BuildCategoryTree(flat []Category) []Category {
	byParent := make(map[int64][]Category)
	known := make(map[int64]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	var roots []Category
	for _, c := range flat {
		if c.ParentID != nil && known[*c.ParentID] {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	visited := make(map[int64]bool, len(flat))
	var attach func(c Category) Category
	attach = func(c Category) Category {
		if visited[c.ID] {
			return c
		}
		visited[c.ID] = true
		for _, child := range byParent[c.ID] {
			c.Children = append(c.Children, attach(child))
		}
		return c
	}

	out := make([]Category, 0, len(roots))
	for _, c := range roots {
		out = append(out, attach(c))
	}
	return out
}

// Tag is a flat taxonomy label.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PostCount int64     `json:"postCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewTag(t store.Tag) Tag {
	return Tag{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		PostCount: t.PostCount,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
