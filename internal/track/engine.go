// Package track is the time-log consistency engine: the start/stop
// timer state machine, overlap detection, manual entry validation and
// derived-hours computation. It is the only writer of time logs; the
// HTTP layer and CLI go through it.
package track

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/tickbook/tickbook/internal/logger"
	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
)

// Engine enforces the per-user timeline invariants. Check-then-write
// sequences run inside a store transaction.
type Engine struct {
	store *store.Store
	clock Clock
	log   zerolog.Logger
}

// NewEngine creates an engine over the store with an injected clock.
func NewEngine(st *store.Store, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		store: st,
		clock: clock,
		log:   logger.With("track"),
	}
}

// EntryInput is a manual time log entry. A nil EndTime creates a
// running log.
type EntryInput struct {
	ProjectID   int64
	StartTime   time.Time
	EndTime     *time.Time
	Description string
	Tag         *string
}

// UpdateInput carries a partial update; nil fields keep their prior
// values.
type UpdateInput struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Description *string
	Tag         *string
}

// Start begins a timer on the project: a new running log at "now" with
// the project's client copied in. Conflicts when the user already has a
// running log anywhere; a user runs at most one timer at a time.
func (e *Engine) Start(ctx context.Context, userID, projectID int64, description string, tag *string) (*model.TimeLog, error) {
	project, err := e.store.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, projectErr(err)
	}

	entry := &model.TimeLog{
		UserID:      userID,
		ProjectID:   projectID,
		ClientID:    project.ClientID,
		StartTime:   e.clock.Now(),
		Description: description,
		Tag:         normalizeTag(tag),
	}

	err = e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		running, err := e.store.RunningTimeLog(ctx, tx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return Internal("failed to check ongoing time log", err)
		}
		if running != nil {
			return Conflictf("You have an ongoing time log. Please end it before starting a new one.")
		}
		if err := e.store.CreateTimeLog(ctx, tx, entry); err != nil {
			return Internal("failed to start time log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("user_id", userID).Int64("project_id", projectID).
		Int64("time_log_id", entry.ID).Msg("timer started")
	return entry, nil
}

// Stop ends the running timer on the project, deriving its hours.
// Conflicts when the project has no running log, or when a later entry
// was inserted while the timer ran: a blind stop would then close over
// an interval the user already re-logged.
func (e *Engine) Stop(ctx context.Context, userID, projectID int64) (*model.TimeLog, error) {
	if _, err := e.store.GetProject(ctx, projectID, userID); err != nil {
		return nil, projectErr(err)
	}

	var stopped *model.TimeLog
	err := e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		running, err := e.store.RunningTimeLogForProject(ctx, tx, userID, projectID)
		if errors.Is(err, store.ErrNotFound) {
			return Conflictf("No ongoing time log found for this project.")
		}
		if err != nil {
			return Internal("failed to look up ongoing time log", err)
		}

		later, err := e.store.HasLaterStart(ctx, tx, userID, running.StartTime, running.ID)
		if err != nil {
			return Internal("failed to check later entries", err)
		}
		if later {
			return Conflictf("Another time log starts after this one. Please close this time log manually.")
		}

		end := e.clock.Now()
		running.EndTime = &end
		hours := Hours(running.StartTime, end)
		running.Hours = &hours

		if err := e.store.UpdateTimeLog(ctx, tx, running); err != nil {
			return Internal("failed to stop time log", err)
		}
		stopped = running
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Int64("user_id", userID).Int64("time_log_id", stopped.ID).
		Float64("hours", *stopped.Hours).Msg("timer stopped")
	return stopped, nil
}

// Create validates and stores a manual entry. Validation order: start
// not in the future; end not before start and not in the future; then
// the overlap check against every other log of the user. An invalid tag
// is silently dropped.
func (e *Engine) Create(ctx context.Context, userID int64, in EntryInput) (*model.TimeLog, error) {
	now := e.clock.Now()
	start := in.StartTime.UTC().Truncate(time.Second)
	if start.After(now) {
		return nil, Validationf("Start time cannot be in the future.")
	}

	var end *time.Time
	if in.EndTime != nil {
		v := in.EndTime.UTC().Truncate(time.Second)
		if v.Before(start) {
			return nil, Validationf("End time cannot be before start time.")
		}
		if v.After(now) {
			return nil, Validationf("End time cannot be in the future.")
		}
		end = &v
	}

	project, err := e.store.GetProject(ctx, in.ProjectID, userID)
	if err != nil {
		return nil, projectErr(err)
	}

	entry := &model.TimeLog{
		UserID:      userID,
		ProjectID:   project.ID,
		ClientID:    project.ClientID,
		StartTime:   start,
		EndTime:     end,
		Description: in.Description,
		Tag:         normalizeTag(in.Tag),
	}
	if end != nil {
		hours := Hours(start, *end)
		entry.Hours = &hours
	}

	err = e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := e.checkOverlap(ctx, tx, userID, 0, start, end); err != nil {
			return err
		}
		if err := e.store.CreateTimeLog(ctx, tx, entry); err != nil {
			return Internal("failed to create time log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Update applies a partial update to a time log. Only supplied fields
// change; the overlap re-check uses the post-update interval, excluding
// the record itself. Hours are recomputed whenever both ends are known.
func (e *Engine) Update(ctx context.Context, userID, id int64, in UpdateInput) (*model.TimeLog, error) {
	entry, err := e.store.GetTimeLog(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NotFoundf("Time log not found.")
		}
		return nil, Internal("failed to load time log", err)
	}

	now := e.clock.Now()
	timesChanged := false

	if in.StartTime != nil {
		v := in.StartTime.UTC().Truncate(time.Second)
		if v.After(now) {
			return nil, Validationf("Start time cannot be in the future.")
		}
		entry.StartTime = v
		timesChanged = true
	}
	if in.EndTime != nil {
		v := in.EndTime.UTC().Truncate(time.Second)
		if v.Before(entry.StartTime) {
			return nil, Validationf("End time cannot be before start time.")
		}
		if v.After(now) {
			return nil, Validationf("End time cannot be in the future.")
		}
		entry.EndTime = &v
		timesChanged = true
	}
	// A new start must also respect a retained end.
	if entry.EndTime != nil && entry.EndTime.Before(entry.StartTime) {
		return nil, Validationf("End time cannot be before start time.")
	}

	if in.Description != nil && *in.Description != "" {
		entry.Description = *in.Description
	}
	// Unknown tags are ignored rather than rejected.
	if tag := normalizeTag(in.Tag); tag != nil {
		entry.Tag = tag
	}

	if entry.EndTime != nil {
		hours := Hours(entry.StartTime, *entry.EndTime)
		entry.Hours = &hours
	} else {
		entry.Hours = nil
	}

	err = e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		if timesChanged {
			if err := e.checkOverlap(ctx, tx, userID, entry.ID, entry.StartTime, entry.EndTime); err != nil {
				return err
			}
		}
		if err := e.store.UpdateTimeLog(ctx, tx, entry); err != nil {
			return Internal("failed to update time log", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes a single time log owned by the user.
func (e *Engine) Delete(ctx context.Context, userID, id int64) error {
	err := e.store.DeleteTimeLog(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundf("Time log not found.")
	}
	if err != nil {
		return Internal("failed to delete time log", err)
	}
	return nil
}

func (e *Engine) checkOverlap(ctx context.Context, tx *sqlx.Tx, userID, excludeID int64, start time.Time, end *time.Time) error {
	overlap, err := e.store.FindOverlap(ctx, tx, userID, excludeID, start, end)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Internal("failed to check for overlap", err)
	}
	if overlap != nil {
		return Conflictf("Time log overlaps with an existing entry.")
	}
	return nil
}

// normalizeTag keeps only known tags; anything else is treated as
// absent.
func normalizeTag(tag *string) *string {
	if tag == nil || !model.ValidTag(*tag) {
		return nil
	}
	v := *tag
	return &v
}

func projectErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundf("Project not found.")
	}
	return Internal("failed to load project", err)
}
