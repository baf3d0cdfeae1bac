// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/community-portal/internal/apperr"
	"github.com/olegiv/community-portal/internal/metrics"
	"github.com/olegiv/community-portal/internal/model"
	"github.com/olegiv/community-portal/internal/realtime"
	"github.com/olegiv/community-portal/internal/store"
)

// SeatUpdate is broadcast whenever an event's registered count changes.
type SeatUpdate struct {
	EventID         int64 `json:"eventId"`
	RegisteredCount int64 `json:"registeredCount"`
	AvailableSpots  int64 `json:"availableSpots"`
}

// RegistrationService enforces the seat invariants of event registration:
// registered_count never exceeds max_attendees and a user holds at most one
// seat per event.
type RegistrationService struct {
	db            *sql.DB
	queries       *store.Queries
	notifications *NotificationService
	publisher     Publisher
	logger        *slog.Logger
}

// NewRegistrationService creates a RegistrationService. notifications and
// publisher may be nil.
func NewRegistrationService(db *sql.DB, notifications *NotificationService, publisher Publisher, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{
		db:            db,
		queries:       store.New(db),
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		logger:        logger,
	}
}

// Register reserves a seat for userID. The seat is taken by a conditional
// increment and the registration row is inserted in the same transaction, so
// concurrent callers can never overfill an event. Failures are checked in the
// order existence, capacity, duplicate.
func (s *RegistrationService) Register(ctx context.Context, eventID, userID int64) (model.Registration, error) {
	var (
		reg   store.EventRegistration
		event store.Event
	)
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		reserved, err := q.ReserveEventSlot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("reserving seat: %w", err)
		}
		if reserved == 0 {
			exists, err := q.EventExists(ctx, eventID)
			if err != nil {
				return fmt.Errorf("checking event: %w", err)
			}
			if !exists {
				return apperr.ErrEventNotFound
			}
			return apperr.ErrCapacityExceeded
		}

		reg, err = q.CreateRegistration(ctx, eventID, userID, now())
		if err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.ErrAlreadyRegistered
			}
			return fmt.Errorf("creating registration: %w", err)
		}

		event, err = q.GetEventByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("reloading event: %w", err)
		}
		return nil
	})
	metrics.RegistrationsTotal.WithLabelValues(registrationOutcome(err)).Inc()
	if err != nil {
		return model.Registration{}, err
	}

	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return model.Registration{}, fmt.Errorf("loading registrant: %w", err)
	}

	s.logger.Info("event registration created",
		"event_id", eventID, "user_id", userID, "registered", event.RegisteredCount, "max", event.MaxAttendees)
	s.publishSeats(event)

	if event.OrganizerID != userID {
		s.notifications.Notify(ctx, NotificationInput{
			UserID:  event.OrganizerID,
			Type:    model.NotificationEventRegistration,
			Title:   "New registration",
			Message: fmt.Sprintf("%s registered for %q", user.Name, event.Title),
			Metadata: map[string]any{
				"eventId": eventID,
				"userId":  userID,
			},
		})
	}

	out := model.NewRegistration(reg)
	out.User = model.NewUserPtr(user)
	return out, nil
}

// Unregister releases the user's seat. The row delete and the counter
// decrement commit together.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID int64) error {
	var event store.Event
	err := store.RunInTx(ctx, s.db, func(q *store.Queries) error {
		deleted, err := q.DeleteRegistration(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("deleting registration: %w", err)
		}
		if deleted == 0 {
			return apperr.ErrRegistrationNotFound
		}

		released, err := q.ReleaseEventSlot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("releasing seat: %w", err)
		}
		if released == 0 {
			return fmt.Errorf("event %d has a registration but no reserved seat", eventID)
		}

		event, err = q.GetEventByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("reloading event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeUnregistered).Inc()
	s.logger.Info("event registration removed", "event_id", eventID, "user_id", userID)
	s.publishSeats(event)
	return nil
}

// ListForEvent returns the event's registrations with their users, in
// registration order.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID int64) ([]model.Registration, error) {
	exists, err := s.queries.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("checking event: %w", err)
	}
	if !exists {
		return nil, apperr.ErrEventNotFound
	}

	rows, err := s.queries.ListRegistrationsForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	out := make([]model.Registration, len(rows))
	for i, r := range rows {
		out[i] = model.NewRegistration(r.Registration)
		out[i].User = model.NewUserPtr(r.User)
	}
	return out, nil
}

// ListForUser returns the user's registrations with their events, in
// registration order.
func (s *RegistrationService) ListForUser(ctx context.Context, userID int64) ([]model.Registration, error) {
	rows, err := s.queries.ListRegistrationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing registrations: %w", err)
	}
	out := make([]model.Registration, len(rows))
	for i, r := range rows {
		out[i] = model.NewRegistration(r.Registration)
		event := model.NewEvent(r.Event)
		out[i].Event = &event
	}
	return out, nil
}

// Status reports whether userID holds a seat and how many remain.
func (s *RegistrationService) Status(ctx context.Context, eventID, userID int64) (model.RegistrationStatus, error) {
	event, err := s.queries.GetEventByID(ctx, eventID)
	if err != nil {
		return model.RegistrationStatus{}, notFound(err, apperr.ErrEventNotFound)
	}

	registered := true
	if _, err := s.queries.GetRegistration(ctx, eventID, userID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return model.RegistrationStatus{}, fmt.Errorf("loading registration: %w", err)
		}
		registered = false
	}

	available := max(event.MaxAttendees-event.RegisteredCount, 0)
	return model.RegistrationStatus{
		EventID:        eventID,
		Registered:     registered,
		AvailableSpots: available,
		IsFull:         available == 0,
	}, nil
}

func (s *RegistrationService) publishSeats(e store.Event) {
	s.publisher.Broadcast(realtime.TypeEventSeats, SeatUpdate{
		EventID:         e.ID,
		RegisteredCount: e.RegisteredCount,
		AvailableSpots:  max(e.MaxAttendees-e.RegisteredCount, 0),
	})
}

func registrationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeRegistered
	case errors.Is(err, apperr.ErrCapacityExceeded):
		return metrics.OutcomeFull
	case errors.Is(err, apperr.ErrAlreadyRegistered):
		return metrics.OutcomeDuplicate
	case errors.Is(err, apperr.ErrEventNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
