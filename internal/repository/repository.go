package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shelf/internal/models"
	"shelf/internal/thermostat"
)

// ErrUsernameTaken is returned by Authorization.Create for a duplicate username.
var ErrUsernameTaken = errors.New("username already taken")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// RoomRepo persists the ordered room list.
type RoomRepo interface {
	Replace(ctx context.Context, rooms []thermostat.RoomRecord) error
	SaveReading(ctx context.Context, sensorID string, rd thermostat.Reading, at time.Time) error
	List(ctx context.Context) ([]thermostat.RoomRecord, error)
}

type SettingsRepo interface {
	Save(ctx context.Context, s models.HomeSettings) error
	Load(ctx context.Context) (models.HomeSettings, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.HomeEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.HomeEvent, error)
}

type Repository struct {
	RoomRepo     RoomRepo
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		RoomRepo:     NewRoomSQLite(db),
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
