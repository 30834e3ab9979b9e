package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rfaulk/flicklist/internal/models"
)

// PreferencesRepository handles schedule preference storage. A single row holds
// the user's daily rhythm; reads before any write return the defaults.
type PreferencesRepository struct {
	db *DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the stored schedule preferences, or the defaults if none are set.
func (r *PreferencesRepository) Get(ctx context.Context) (*models.SchedulePreferences, error) {
	prefs := &models.SchedulePreferences{}
	err := r.db.QueryRowContext(ctx,
		`SELECT wake_time, bed_time, work_start, work_end FROM schedule_preferences WHERE id = 1`,
	).Scan(&prefs.WakeTime, &prefs.BedTime, &prefs.WorkStart, &prefs.WorkEnd)

	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSchedulePreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Set stores the schedule preferences, replacing any previous values.
func (r *PreferencesRepository) Set(ctx context.Context, prefs *models.SchedulePreferences) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedule_preferences (id, wake_time, bed_time, work_start, work_end)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			wake_time = excluded.wake_time,
			bed_time = excluded.bed_time,
			work_start = excluded.work_start,
			work_end = excluded.work_end`,
		prefs.WakeTime, prefs.BedTime, prefs.WorkStart, prefs.WorkEnd,
	)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}
