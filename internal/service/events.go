// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/query"
	"github.com/olegiv/community-portal/internal/store"
)

// ErrCapacityBelowRegistered rejects shrinking an event below its seat count.
var ErrCapacityBelowRegistered = apperr.BadRequest("maxAttendees cannot be lower than the number of registered attendees")

// EventInput is the body of an event create request.
type EventInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	MaxAttendees int64     `json:"maxAttendees"`
	ImageURL     string    `json:"imageUrl"`
}

// EventPatch is a partial event update. Nil fields are left unchanged.
type EventPatch struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Location     *string    `json:"location"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	MaxAttendees *int64     `json:"maxAttendees"`
	ImageURL     *string    `json:"imageUrl"`
}

func (in EventInput) validate() error {
	bad := map[string]string{}
	if strings.TrimSpace(in.Title) == "" {
		bad["title"] = "is required"
	} else if len(in.Title) > 200 {
		bad["title"] = "must be at most 200 characters"
	}
	if in.StartDate.IsZero() {
		bad["startDate"] = "is required"
	}
	if in.EndDate.IsZero() {
		bad["endDate"] = "is required"
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && !in.StartDate.Before(in.EndDate) {
		bad["endDate"] = "must be after startDate"
	}
	if in.MaxAttendees <= 0 {
		bad["maxAttendees"] = "must be greater than 0"
	}
	if len(bad) > 0 {
		return apperr.Validation(bad)
	}
	return nil
}

// EventService manages community events.
type EventService struct {
	db            *sql.DB
	queries       *store.Queries
	notifications *NotificationService
	audit         *AuditService
	logger        *slog.Logger
}

// NewEventService creates an EventService. notifications and audit may be nil.
func NewEventService(db *sql.DB, notifications *NotificationService, audit *AuditService, logger *slog.Logger) *EventService {
	return &EventService{
		db:            db,
		queries:       store.New(db),
		notifications: notifications,
		audit:         audit,
		logger:        logger,
	}
}

// Create stores a new event organized by actor.
func (s *EventService) Create(ctx context.Context, actor model.User, in EventInput) (model.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.validate(); err != nil {
		return model.Event{}, err
	}

	ts := now()
	row, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		OrganizerID:  actor.ID,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		MaxAttendees: in.MaxAttendees,
		ImageUrl:     in.ImageURL,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		return model.Event{}, fmt.Errorf("creating event: %w", err)
	}

	s.logAudit(ctx, "Event created", actor.ID, row.ID)
	out := model.NewEvent(row)
	out.Organizer = &actor
	return out, nil
}

// Get returns one event with its organizer.
func (s *EventService) Get(ctx context.Context, id int64) (model.Event, error) {
	row, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		return model.Event{}, notFound(err, apperr.ErrEventNotFound)
	}
	out := model.NewEvent(row)
	if org, err := s.queries.GetUserByID(ctx, row.OrganizerID); err == nil {
		out.Organizer = model.NewUserPtr(org)
	}
	return out, nil
}

// List returns a page of events. Storage failures are logged and reported
// with a generic message.
func (s *EventService) List(ctx context.Context, q query.EventQuery) (model.Page[model.Event], error) {
	filter := store.EventFilter{Search: q.Search, OrganizerID: q.OrganizerID}
	if q.Upcoming {
		filter.StartsAfter = now()
	}
	order := store.EventOrder{Column: q.Sort.Column, Desc: q.Sort.Desc}

	rows, err := s.queries.ListEvents(ctx, filter, order, int64(q.Limit), q.Offset())
	if err != nil {
		s.logger.Error("listing events failed", "error", err)
		return model.Page[model.Event]{}, apperr.ErrFetchEvents.Wrap(err)
	}
	total, err := s.queries.CountEvents(ctx, filter)
	if err != nil {
		s.logger.Error("counting events failed", "error", err)
		return model.Page[model.Event]{}, apperr.ErrFetchEvents.Wrap(err)
	}

	organizerIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		organizerIDs = append(organizerIDs, r.OrganizerID)
	}
	organizers, err := s.queries.GetUsersByIDs(ctx, organizerIDs)
	if err != nil {
		s.logger.Error("loading organizers failed", "error", err)
		return model.Page[model.Event]{}, apperr.ErrFetchEvents.Wrap(err)
	}
	byID := make(map[int64]store.User, len(organizers))
	for _, u := range organizers {
		byID[u.ID] = u
	}

	items := make([]model.Event, len(rows))
	for i, r := range rows {
		items[i] = model.NewEvent(r)
		if u, ok := byID[r.OrganizerID]; ok {
			items[i].Organizer = model.NewUserPtr(u)
		}
	}
	return model.NewPage(items, total, q.Page, q.Limit), nil
}

// Update applies a partial update. Only the organizer or an admin may edit,
// and capacity may not drop below the current registered count.
func (s *EventService) Update(ctx context.Context, actor model.User, id int64, patch EventPatch) (model.Event, error) {
	var updated store.Event
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetEventByID(ctx, id)
		if err != nil {
			return notFound(err, apperr.ErrEventNotFound)
		}
		if !canModify(actor, cur.OrganizerID) {
			return apperr.ErrNotOwner
		}

		in := EventInput{
			Title:        cur.Title,
			Description:  cur.Description,
			Location:     cur.Location,
			StartDate:    cur.StartDate,
			EndDate:      cur.EndDate,
			MaxAttendees: cur.MaxAttendees,
			ImageURL:     cur.ImageUrl,
		}
		applyEventPatch(&in, patch)
		if err := in.validate(); err != nil {
			return err
		}
		if in.MaxAttendees < cur.RegisteredCount {
			return ErrCapacityBelowRegistered
		}

		updated, err = q.UpdateEvent(ctx, store.UpdateEventParams{
			Title:        in.Title,
			Description:  in.Description,
			Location:     in.Location,
			StartDate:    in.StartDate.UTC(),
			EndDate:      in.EndDate.UTC(),
			MaxAttendees: in.MaxAttendees,
			ImageUrl:     in.ImageURL,
			UpdatedAt:    now(),
			ID:           id,
		})
		if err != nil {
			if store.IsCheckViolation(err) {
				return ErrCapacityBelowRegistered
			}
			return fmt.Errorf("updating event: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Event{}, err
	}

	s.notifyRegistrants(ctx, updated)
	return s.Get(ctx, updated.ID)
}

func applyEventPatch(in *EventInput, p EventPatch) {
	if p.Title != nil {
		in.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	if p.StartDate != nil {
		in.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		in.EndDate = *p.EndDate
	}
	if p.MaxAttendees != nil {
		in.MaxAttendees = *p.MaxAttendees
	}
	if p.ImageURL != nil {
		in.ImageURL = *p.ImageURL
	}
}

// notifyRegistrants tells every registered user that the event changed.
func (s *EventService) notifyRegistrants(ctx context.Context, e store.Event) {
	if s.notifications == nil {
		return
	}
	regs, err := s.queries.ListRegistrationsForEvent(ctx, e.ID)
	if err != nil {
		s.logger.Warn("listing registrants for update notice", "event_id", e.ID, "error", err)
		return
	}
	s.sendEventNotice(ctx, regs, e.ID, "Event updated", fmt.Sprintf("%q has been updated", e.Title), false)
}

func (s *EventService) sendEventNotice(ctx context.Context, regs []store.RegistrationWithUser, eventID int64, title, msg string, cancelled bool) {
	meta := map[string]any{"eventId": eventID}
	if cancelled {
		meta["cancelled"] = true
	}
	for _, r := range regs {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:   r.User.ID,
			Type:     model.NotificationEventUpdate,
			Title:    title,
			Message:  msg,
			Metadata: meta,
		})
	}
}

// Delete removes an event. Registrations cascade; registrants are told the
// event was cancelled.
func (s *EventService) Delete(ctx context.Context, actor model.User, id int64) error {
	cur, err := s.queries.GetEventByID(ctx, id)
	if err != nil {
		return notFound(err, apperr.ErrEventNotFound)
	}
	if !canModify(actor, cur.OrganizerID) {
		return apperr.ErrNotOwner
	}

	var regs []store.RegistrationWithUser
	err = store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		if regs, err = q.ListRegistrationsForEvent(ctx, id); err != nil {
			return fmt.Errorf("listing registrants: %w", err)
		}
		n, err := q.DeleteEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("deleting event: %w", err)
		}
		if n == 0 {
			return apperr.ErrEventNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "Event deleted", actor.ID, id)

	s.sendEventNotice(ctx, regs, id, "Event cancelled", fmt.Sprintf("%q has been cancelled", cur.Title), true)
	return nil
}

func (s *EventService) logAudit(ctx context.Context, msg string, userID, eventID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogEventEvent(ctx, model.LogLevelInfo, msg, auditUser(userID), map[string]any{"event_id": eventID})
}
