/*
   BlogDedup - trend and content deduplication service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Cleaner removes stale trends. *dedup.Checker implements it.
type Cleaner interface {
	CleanupStale(ctx context.Context, retentionDays int) (int64, error)
}

// Scheduler runs retention cleanup on a cron schedule.
type Scheduler struct {
	cron          *cron.Cron
	location      *time.Location
	cleaner       Cleaner
	retentionDays int
	jobTimeout    time.Duration
	logger        *slog.Logger

	mu        sync.Mutex
	entryID   cron.EntryID
	started   bool
	onCleanup func(removed int64)
}

func New(location *time.Location, cleaner Cleaner, retentionDays int, logger *slog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(location)),
		location:      location,
		cleaner:       cleaner,
		retentionDays: retentionDays,
		jobTimeout:    time.Minute,
		logger:        logger,
	}
}

// OnCleanup registers fn to be called after every successful run.
func (s *Scheduler) OnCleanup(fn func(removed int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCleanup = fn
}

// Schedule (re)installs the cleanup job using a standard five-field cron
// spec or a descriptor such as "@daily".
func (s *Scheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("add cleanup job %q: %w", spec, err)
	}
	s.entryID = entryID

	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled cleanup failed", "error", err)
	}
}

// RunOnce performs a single cleanup immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.cleaner.CleanupStale(ctx, s.retentionDays)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	hook := s.onCleanup
	s.mu.Unlock()
	if hook != nil {
		hook(removed)
	}
	return removed, nil
}

// Next returns the next planned run, zero when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}
