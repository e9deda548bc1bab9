package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shelf/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	homeSettingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO home_settings (id, power_on, mode, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			power_on=excluded.power_on,
			mode=excluded.mode,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `SELECT id, power_on, mode, updated_at FROM home_settings WHERE id=?`
)

// Save upserts the single settings row. A zero UpdatedAt is stamped with now.
func (r *SettingsSQLite) Save(ctx context.Context, s models.HomeSettings) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, upsertSettingsSQL, homeSettingsRowID, s.PowerOn, s.Mode, ts.UTC()); err != nil {
		return fmt.Errorf("save home settings: %w", err)
	}
	return nil
}

// Load returns the settings row, or the zero value (ID 0) when nothing was saved yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.HomeSettings, error) {
	var s models.HomeSettings
	err := r.db.QueryRowContext(ctx, selectSettingsSQL, homeSettingsRowID).
		Scan(&s.ID, &s.PowerOn, &s.Mode, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.HomeSettings{}, nil
		}
		return models.HomeSettings{}, fmt.Errorf("load home settings: %w", err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
