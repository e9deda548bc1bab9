package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shelf/internal/thermostat"
)

type RoomSQLite struct {
	db *sql.DB
}

func NewRoomSQLite(db *sql.DB) *RoomSQLite {
	return &RoomSQLite{db: db}
}

var _ RoomRepo = (*RoomSQLite)(nil)

const (
	deleteRoomsSQL = `DELETE FROM rooms`

	insertRoomSQL = `
		INSERT INTO rooms (sensor_id, position, name, type, target_c, priority, reported, temp_c, humidity, battery, last_update_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateReadingSQL = `
		UPDATE rooms SET reported = 1, temp_c = ?, humidity = ?, battery = ?, last_update_at = ?
		WHERE sensor_id = ?
	`

	selectRoomsSQL = `
		SELECT sensor_id, name, type, target_c, priority, reported, temp_c, humidity, battery, last_update_at
		FROM rooms ORDER BY position ASC
	`
)

// Replace rewrites the whole room list in one transaction; slice order becomes position.
func (r *RoomSQLite) Replace(ctx context.Context, rooms []thermostat.RoomRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rooms transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteRoomsSQL); err != nil {
		return fmt.Errorf("clear rooms: %w", err)
	}
	for i, rec := range rooms {
		args := []any{rec.SensorID, i, rec.Name, rec.Type, rec.TargetC, rec.Priority, rec.Reported}
		args = append(args, readingArgs(rec)...)
		if _, err := tx.ExecContext(ctx, insertRoomSQL, args...); err != nil {
			return fmt.Errorf("insert room %q: %w", rec.SensorID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rooms transaction: %w", err)
	}
	return nil
}

// readingArgs returns NULLs for a room that never reported.
func readingArgs(rec thermostat.RoomRecord) []any {
	if !rec.Reported {
		return []any{nil, nil, nil, nil}
	}
	return []any{rec.TemperatureC, rec.HumidityPct, rec.BatteryPct, rec.LastUpdateAt.UTC()}
}

// SaveReading stores the latest telemetry of one room.
func (r *RoomSQLite) SaveReading(ctx context.Context, sensorID string, rd thermostat.Reading, at time.Time) error {
	res, err := r.db.ExecContext(ctx, updateReadingSQL, rd.TemperatureC, rd.HumidityPct, rd.BatteryPct, at.UTC(), sensorID)
	if err != nil {
		return fmt.Errorf("update reading of %q: %w", sensorID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", sensorID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", thermostat.ErrUnknownSensor, sensorID)
	}
	return nil
}

// List returns rooms in display order.
func (r *RoomSQLite) List(ctx context.Context) ([]thermostat.RoomRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectRoomsSQL)
	if err != nil {
		return nil, fmt.Errorf("select rooms: %w", err)
	}
	defer rows.Close()

	var out []thermostat.RoomRecord
	for rows.Next() {
		var (
			rec                     thermostat.RoomRecord
			temp, humidity, battery sql.NullFloat64
			lastUpdate              sql.NullTime
		)
		if err := rows.Scan(&rec.SensorID, &rec.Name, &rec.Type, &rec.TargetC, &rec.Priority,
			&rec.Reported, &temp, &humidity, &battery, &lastUpdate); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if rec.Reported {
			rec.TemperatureC = temp.Float64
			rec.HumidityPct = humidity.Float64
			rec.BatteryPct = battery.Float64
			rec.LastUpdateAt = lastUpdate.Time.UTC()
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return out, nil
}
