// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"

	"github.com/olegiv/community-portal/internal/store"
)

// Event is a community event with its organizer and seat accounting.
type Event struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	MaxAttendees    int64     `json:"maxAttendees"`
	RegisteredCount int64     `json:"registeredCount"`
	AvailableSpots  int64     `json:"availableSpots"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	OrganizerID     int64     `json:"organizerId"`
	Organizer       *User     `json:"organizer,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewEvent converts a storage row. The organizer is attached by the caller.
func NewEvent(e store.Event) Event {
	return Event{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		MaxAttendees:    e.MaxAttendees,
		RegisteredCount: e.RegisteredCount,
		AvailableSpots:  max(e.MaxAttendees-e.RegisteredCount, 0),
		ImageURL:        e.ImageUrl,
		OrganizerID:     e.OrganizerID,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// Registration is one seat held by a user. Exactly one of User/Event is set
// depending on which side the listing was made from.
type Registration struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"eventId"`
	UserID    int64     `json:"userId"`
	User      *User     `json:"user,omitempty"`
	Event     *Event    `json:"event,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRegistration converts a storage row.
func NewRegistration(r store.EventRegistration) Registration {
	return Registration{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
}

// RegistrationStatus answers "am I registered and is there room left".
type RegistrationStatus struct {
	EventID        int64 `json:"eventId"`
	Registered     bool  `json:"registered"`
	AvailableSpots int64 `json:"availableSpots"`
	IsFull         bool  `json:"isFull"`
}
