// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs housekeeping jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/community-portal/internal/metrics"
	"github.com/olegiv/community-portal/internal/service"
)

// Job names.
const (
	JobPruneEventLog      = "prune_event_log"
	JobPruneNotifications = "prune_read_notifications"
)

// Default schedules, in standard five-field cron syntax.
const (
	DefaultEventLogSchedule     = "0 3 * * *"
	DefaultNotificationSchedule = "30 3 * * *"
)

// jobTimeout bounds a single run.
const jobTimeout = 5 * time.Minute

// Config sets retention and schedules. Zero values take the defaults.
type Config struct {
	EventLogMaxAge       time.Duration
	ReadNotifMaxAge      time.Duration
	EventLogSchedule     string
	NotificationSchedule string
}

func (c *Config) applyDefaults() {
	if c.EventLogMaxAge <= 0 {
		c.EventLogMaxAge = 90 * 24 * time.Hour
	}
	if c.ReadNotifMaxAge <= 0 {
		c.ReadNotifMaxAge = 30 * 24 * time.Hour
	}
	if c.EventLogSchedule == "" {
		c.EventLogSchedule = DefaultEventLogSchedule
	}
	if c.NotificationSchedule == "" {
		c.NotificationSchedule = DefaultNotificationSchedule
	}
}

// job is a registered housekeeping task. run returns the number of rows
// it removed.
type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) (int64, error)
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun"`
	NextRun     time.Time `json:"nextRun"`
}

// Scheduler owns the cron instance and the housekeeping jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a scheduler with the event log and notification pruning jobs
// registered. Either service may be nil to skip its job.
func New(audit *service.AuditService, notifications *service.NotificationService, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	cfg.applyDefaults()
	s := &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*job),
	}

	if audit != nil {
		maxAge := cfg.EventLogMaxAge
		if err := s.register(JobPruneEventLog, "Delete event log entries older than the retention period", cfg.EventLogSchedule,
			func(ctx context.Context) (int64, error) {
				return audit.DeleteOldEvents(ctx, maxAge)
			}); err != nil {
			return nil, err
		}
	}
	if notifications != nil {
		maxAge := cfg.ReadNotifMaxAge
		if err := s.register(JobPruneNotifications, "Delete read notifications older than the retention period", cfg.NotificationSchedule,
			func(ctx context.Context) (int64, error) {
				return notifications.PruneRead(ctx, maxAge)
			}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) register(name, description, schedule string, run func(ctx context.Context) (int64, error)) error {
	j := &job{name: name, description: description, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.execute(context.Background(), j); err != nil {
			s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, schedule, err)
	}
	j.entryID = id

	s.mu.Lock()
	s.jobs[name] = j
	s.mu.Unlock()
	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, j *job) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.run(ctx)
	if err != nil {
		return 0, err
	}
	metrics.PrunedRows.WithLabelValues(j.name).Add(float64(n))
	s.logger.Info("housekeeping job finished", "job", j.name, "removed", n, "duration", time.Since(start))
	return n, nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// TriggerNow runs a job immediately and returns the rows it removed.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("job not found: %s", name)
	}
	s.logger.Info("manually triggering job", "name", name)
	return s.execute(ctx, j)
}
