package service

import (
	"context"
	"time"

	"shelf/internal/logger"
	"shelf/internal/models"
	"shelf/internal/repository"
	"shelf/internal/thermostat"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Home exposes the operator-facing events of the controller. Every successful call
// is persisted and logged before it returns.
type Home interface {
	Restore(ctx context.Context) error
	AddRoom(ctx context.Context, p NewRoomParams) (models.RoomView, error)
	DeleteRoom(ctx context.Context, sensorID string) error
	RenameRoom(ctx context.Context, sensorID, name string) error
	SetTarget(ctx context.Context, sensorID string, targetC float64) (TargetResult, error)
	SetPriority(ctx context.Context, sensorID string, priority int) error
	ReorderRooms(ctx context.Context, ids []string) error
	SetPower(ctx context.Context, on bool) error
	SetMode(ctx context.Context, mode string) error
	SetMasterConnected(ctx context.Context, connected bool) error
}

// Telemetry accepts readings pushed by sensors through the hub.
type Telemetry interface {
	Ingest(ctx context.Context, sensorID string, t models.RoomTelemetry) error
}

// Monitoring exposes the read model.
type Monitoring interface {
	GetHome(ctx context.Context) (models.HomeSnapshot, error)
}

// EventLog exposes the append-only history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.HomeEvent, error)
}

// Sweeper periodically re-evaluates the controller so rooms going stale surface
// without any inbound event. Stop it by cancelling ctx.
type Sweeper interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Home
	Telemetry
	Monitoring
	EventLog
	Sweeper
	Authorization
}

// Deps are the collaborators that do not come from the repository layer.
type Deps struct {
	Controller *thermostat.Controller
	History    HistoryWriter
	Metrics    Recorder
	Log        *logger.Logger
	Auth       AuthSettings
	Clock      func() time.Time
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	home := NewHomeService(deps.Controller, repos.RoomRepo, repos.SettingsRepo, repos.EventRepo,
		WithHistory(deps.History), WithRecorder(deps.Metrics), WithLogger(deps.Log), WithClock(deps.Clock))
	return &Service{
		Home:          home,
		Telemetry:     home,
		Monitoring:    home,
		EventLog:      NewEventLogService(repos.EventRepo),
		Sweeper:       NewSweeperService(home, deps.Log),
		Authorization: NewAuthService(repos.Auth, deps.Auth),
	}
}
