// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package query turns listing request parameters into validated, typed
// filters for posts and events.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is a 1-based page and a page size.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Sort is a whitelisted storage column and direction.
type Sort struct {
	Field  string // as named by the client
	Column string // storage column
	Desc   bool
}

// Include lists the relations to load alongside each post.
type Include struct {
	Author     bool
	Categories bool
	Tags       bool
	Comments   bool
	Likes      bool
}

// PostQuery is a parsed post listing request.
type PostQuery struct {
	Search     string
	Statuses   []string
	Visibility []string
	AuthorID   int64
	CategoryID int64
	TagID      int64
	Pagination
	Sort    Sort
	Include Include
}

// EventQuery is a parsed event listing request.
type EventQuery struct {
	Search      string
	OrganizerID int64
	Upcoming    bool
	Pagination
	Sort Sort
}

var postSortFields = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"publishedAt":  "published_at",
	"title":        "title",
	"viewCount":    "view_count",
	"likeCount":    "like_count",
	"commentCount": "comment_count",
}

var eventSortFields = map[string]string{
	"createdAt": "created_at",
	"startDate": "start_date",
	"title":     "title",
}

// errs accumulates per-field validation messages.
type errs map[string]string

func (e errs) err() error {
	if len(e) == 0 {
		return nil
	}
	return apperr.Validation(e)
}

// ParsePosts parses a post listing request. Without an explicit status,
// deleted posts are excluded.
func ParsePosts(v url.Values) (PostQuery, error) {
	bad := errs{}
	q := PostQuery{
		Search:     strings.TrimSpace(v.Get("search")),
		Pagination: parsePagination(v, bad),
		Sort:       parseSort(v, postSortFields, "createdAt", bad),
		Include:    parseInclude(v, bad),
	}

	q.Statuses = list(v, "status")
	for _, s := range q.Statuses {
		if !model.ValidPostStatus(s) {
			bad["status"] = "unknown status " + strconv.Quote(s)
		}
	}
	if len(q.Statuses) == 0 {
		q.Statuses = model.LivePostStatuses
	}

	q.Visibility = list(v, "visibility")
	for _, vis := range q.Visibility {
		if !model.ValidVisibility(vis) {
			bad["visibility"] = "unknown visibility " + strconv.Quote(vis)
		}
	}

	q.AuthorID = parseID(v, "authorId", bad)
	q.CategoryID = parseID(v, "categoryId", bad)
	q.TagID = parseID(v, "tagId", bad)

	return q, bad.err()
}

// ParseEvents parses an event listing request.
func ParseEvents(v url.Values) (EventQuery, error) {
	bad := errs{}
	q := EventQuery{
		Search:      strings.TrimSpace(v.Get("search")),
		OrganizerID: parseID(v, "organizerId", bad),
		Pagination:  parsePagination(v, bad),
		Sort:        parseSort(v, eventSortFields, "createdAt", bad),
	}
	if raw := v.Get("upcoming"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			bad["upcoming"] = "must be true or false"
		}
		q.Upcoming = b
	}
	return q, bad.err()
}

// ParsePagination parses page/limit only, for simple listings.
func ParsePagination(v url.Values) (Pagination, error) {
	bad := errs{}
	p := parsePagination(v, bad)
	return p, bad.err()
}

func parsePagination(v url.Values, bad errs) Pagination {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			bad["page"] = "must be a positive integer"
		} else {
			p.Page = n
		}
	}
	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n < 1:
			bad["limit"] = "must be a positive integer"
		case n > MaxLimit:
			p.Limit = MaxLimit
		default:
			p.Limit = n
		}
	}
	return p
}

func parseSort(v url.Values, fields map[string]string, def string, bad errs) Sort {
	s := Sort{Field: def, Column: fields[def], Desc: true}
	if field := v.Get("sortBy"); field != "" {
		col, ok := fields[field]
		if !ok {
			bad["sortBy"] = "cannot sort by " + strconv.Quote(field)
		} else {
			s.Field, s.Column = field, col
		}
	}
	if order := v.Get("sortOrder"); order != "" {
		switch strings.ToUpper(order) {
		case "ASC":
			s.Desc = false
		case "DESC":
			s.Desc = true
		default:
			bad["sortOrder"] = "must be ASC or DESC"
		}
	}
	return s
}

// parseInclude accepts include=author,tags as well as includeAuthor=true style flags.
func parseInclude(v url.Values, bad errs) Include {
	var inc Include
	set := func(name string) bool {
		switch name {
		case "author":
			inc.Author = true
		case "categories":
			inc.Categories = true
		case "tags":
			inc.Tags = true
		case "comments":
			inc.Comments = true
		case "likes":
			inc.Likes = true
		default:
			return false
		}
		return true
	}

	for _, name := range list(v, "include") {
		if !set(name) {
			bad["include"] = "unknown relation " + strconv.Quote(name)
		}
	}
	for _, name := range []string{"author", "categories", "tags", "comments", "likes"} {
		key := "include" + strings.ToUpper(name[:1]) + name[1:]
		raw := v.Get(key)
		if raw == "" {
			continue
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			bad[key] = "must be true or false"
			continue
		}
		if b {
			set(name)
		}
	}
	return inc
}

func parseID(v url.Values, key string, bad errs) int64 {
	raw := v.Get(key)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		bad[key] = "must be a positive integer"
		return 0
	}
	return id
}

// list reads a parameter given either repeatedly or comma-separated.
func list(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
