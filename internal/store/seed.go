// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default admin credentials used when a fixture file declares no users.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme-portal-admin"
	DefaultAdminName     = "Administrator"
)

// Fixtures is the YAML document accepted by `portal seed --file`.
type Fixtures struct {
	Users      []UserFixture     `yaml:"users"`
	Categories []CategoryFixture `yaml:"categories"`
	Tags       []TagFixture      `yaml:"tags"`
	Events     []EventFixture    `yaml:"events"`
}

type UserFixture struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

type CategoryFixture struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Parent      string `yaml:"parent"` // parent slug
}

type TagFixture struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type EventFixture struct {
	Organizer    string    `yaml:"organizer"` // organizer email
	Title        string    `yaml:"title"`
	Description  string    `yaml:"description"`
	Location     string    `yaml:"location"`
	StartDate    time.Time `yaml:"start_date"`
	EndDate      time.Time `yaml:"end_date"`
	MaxAttendees int64     `yaml:"max_attendees"`
}

// LoadFixtures reads a fixture file from disk.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	return &fx, nil
}

// HashFunc turns a plain password into a stored hash.
type HashFunc func(password string) (string, error)

// Seed inserts fixtures that are not present yet. Existing users (by email),
// categories and tags (by slug) are skipped, so seeding is repeatable.
func Seed(ctx context.Context, db *sql.DB, fx *Fixtures, hash HashFunc) error {
	if fx == nil {
		fx = &Fixtures{}
	}
	if len(fx.Users) == 0 {
		fx.Users = []UserFixture{{
			Email:    DefaultAdminEmail,
			Password: DefaultAdminPassword,
			Name:     DefaultAdminName,
			Role:     "admin",
		}}
	}

	return RunInTx(ctx, db, func(q *Queries) error {
		now := time.Now().UTC()
		users := make(map[string]int64, len(fx.Users))

		for _, u := range fx.Users {
			existing, err := q.GetUserByEmail(ctx, u.Email)
			if err == nil {
				users[u.Email] = existing.ID
				slog.Info("user already exists, skipping", "email", u.Email)
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("checking user %s: %w", u.Email, err)
			}

			passwordHash, err := hash(u.Password)
			if err != nil {
				return fmt.Errorf("hashing password for %s: %w", u.Email, err)
			}
			role := u.Role
			if role == "" {
				role = "user"
			}
			created, err := q.CreateUser(ctx, CreateUserParams{
				Email:        u.Email,
				PasswordHash: passwordHash,
				Name:         u.Name,
				Role:         role,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return fmt.Errorf("creating user %s: %w", u.Email, err)
			}
			users[u.Email] = created.ID
			slog.Info("seeded user", "id", created.ID, "email", created.Email, "role", created.Role)
		}

		categories := make(map[string]int64, len(fx.Categories))
		for _, c := range fx.Categories {
			exists, err := q.CategorySlugExists(ctx, c.Slug, 0)
			if err != nil {
				return fmt.Errorf("checking category %s: %w", c.Slug, err)
			}
			if exists > 0 {
				continue
			}
			var parent sql.NullInt64
			if c.Parent != "" {
				id, ok := categories[c.Parent]
				if !ok {
					return fmt.Errorf("category %s: parent %s must be declared first", c.Slug, c.Parent)
				}
				parent = sql.NullInt64{Int64: id, Valid: true}
			}
			created, err := q.CreateCategory(ctx, CreateCategoryParams{
				Name:        c.Name,
				Slug:        c.Slug,
				Description: c.Description,
				ParentID:    parent,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return fmt.Errorf("creating category %s: %w", c.Slug, err)
			}
			categories[c.Slug] = created.ID
		}

		for _, tg := range fx.Tags {
			exists, err := q.TagSlugExists(ctx, tg.Slug, 0)
			if err != nil {
				return fmt.Errorf("checking tag %s: %w", tg.Slug, err)
			}
			if exists > 0 {
				continue
			}
			if _, err := q.CreateTag(ctx, CreateTagParams{
				Name: tg.Name, Slug: tg.Slug, CreatedAt: now, UpdatedAt: now,
			}); err != nil {
				return fmt.Errorf("creating tag %s: %w", tg.Slug, err)
			}
		}

		for _, e := range fx.Events {
			organizerID, ok := users[e.Organizer]
			if !ok {
				return fmt.Errorf("event %q: unknown organizer %s", e.Title, e.Organizer)
			}
			if _, err := q.CreateEvent(ctx, CreateEventParams{
				OrganizerID:  organizerID,
				Title:        e.Title,
				Description:  e.Description,
				Location:     e.Location,
				StartDate:    e.StartDate.UTC(),
				EndDate:      e.EndDate.UTC(),
				MaxAttendees: e.MaxAttendees,
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				return fmt.Errorf("creating event %q: %w", e.Title, err)
			}
		}

		slog.Info("seed complete",
			"users", len(fx.Users),
			"categories", len(fx.Categories),
			"tags", len(fx.Tags),
			"events", len(fx.Events),
		)
		return nil
	})
}
