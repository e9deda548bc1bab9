package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"shelf/internal/logger"
	"shelf/internal/models"
	"shelf/internal/repository"
	"shelf/internal/thermostat"

	"github.com/google/uuid"
)

// ErrInvalidReading rejects telemetry whose temperature is not a finite number.
var ErrInvalidReading = errors.New("invalid reading: temperature must be finite")

// HistoryWriter receives every accepted reading for long-term storage.
type HistoryWriter interface {
	WriteReading(ctx context.Context, sensorID string, rd thermostat.Reading, at time.Time) error
}

// Recorder receives operational measurements.
type Recorder interface {
	ObserveHome(snap thermostat.Snapshot, now time.Time)
	UnitCommand(mode string)
	TelemetryReceived()
}

type nopHistory struct{}

func (nopHistory) WriteReading(context.Context, string, thermostat.Reading, time.Time) error {
	return nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveHome(thermostat.Snapshot, time.Time) {}
func (nopRecorder) UnitCommand(string)                         {}
func (nopRecorder) TelemetryReceived()                         {}

// HomeService drives the controller and keeps the database in step with it.
// Mutations are serialized so rows are written in the same order the controller applied them.
type HomeService struct {
	mu sync.Mutex

	ctrl     *thermostat.Controller
	rooms    repository.RoomRepo
	settings repository.SettingsRepo
	events   repository.EventRepo

	history HistoryWriter
	metrics Recorder
	log     *logger.Logger
	clock   func() time.Time
}

type HomeOption func(*HomeService)

func WithHistory(h HistoryWriter) HomeOption {
	return func(s *HomeService) {
		if h != nil {
			s.history = h
		}
	}
}

func WithRecorder(r Recorder) HomeOption {
	return func(s *HomeService) {
		if r != nil {
			s.metrics = r
		}
	}
}

func WithLogger(l *logger.Logger) HomeOption {
	return func(s *HomeService) {
		if l != nil {
			s.log = l.Component("home")
		}
	}
}

func WithClock(clock func() time.Time) HomeOption {
	return func(s *HomeService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewHomeService(ctrl *thermostat.Controller, rooms repository.RoomRepo, settings repository.SettingsRepo,
	events repository.EventRepo, opts ...HomeOption) *HomeService {
	s := &HomeService{
		ctrl:     ctrl,
		rooms:    rooms,
		settings: settings,
		events:   events,
		history:  nopHistory{},
		metrics:  nopRecorder{},
		log:      logger.NewNop(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads rooms and settings saved by a previous run. The hub connection is not
// persisted; it is reported again once the bridge reconnects.
func (s *HomeService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.rooms.List(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	st, err := s.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	mode := thermostat.ModeHeat
	if st.Mode != "" {
		if mode, err = thermostat.ParseMode(st.Mode); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}

	now := s.clock()
	tr, err := s.ctrl.Restore(records, st.PowerOn, mode, now)
	if err != nil {
		return err
	}
	s.log.Infow("home_restored", "rooms", len(records), "power_on", st.PowerOn, "mode", mode.String(), "state", tr.To.String())
	s.afterTransition(ctx, tr, "restore", now)
	return nil
}

func (s *HomeService) AddRoom(ctx context.Context, p NewRoomParams) (models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr, err := s.ctrl.AddRoom(p.SensorID, p.Name, p.Type, now)
	if err != nil {
		return models.RoomView{}, err
	}
	defer s.afterTransition(ctx, tr, models.EventRoomAdded, now)
	if err := s.persistRooms(ctx); err != nil {
		return models.RoomView{}, err
	}
	room, err := s.ctrl.Room(p.SensorID)
	if err != nil {
		return models.RoomView{}, err
	}
	if err := s.appendEvent(ctx, models.EventRoomAdded, now,
		fmt.Sprintf("Room %q paired with sensor %s", room.Name(), room.SensorID()),
		map[string]any{"sensor_id": room.SensorID(), "name": room.Name(), "type": room.Type()}); err != nil {
		return models.RoomView{}, err
	}
	snap := s.ctrl.Snapshot()
	for i, r := range snap.Rooms {
		if r.SensorID() == room.SensorID() {
			return roomView(r, i, snap.ActiveRoomID, now), nil
		}
	}
	return models.RoomView{}, fmt.Errorf("%w: %q", thermostat.ErrUnknownSensor, p.SensorID)
}

func (s *HomeService) DeleteRoom(ctx context.Context, sensorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr, err := s.ctrl.DeleteRoom(sensorID)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, models.EventRoomDeleted, now)
	if err := s.persistRooms(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(sensorID)
	if err := s.appendEvent(ctx, models.EventRoomDeleted, now, "Room removed: "+id,
		map[string]any{"sensor_id": id}); err != nil {
		return err
	}
	return nil
}

func (s *HomeService) RenameRoom(ctx context.Context, sensorID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr, err := s.ctrl.Rename(sensorID, name)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, models.EventRoomRenamed, now)
	if err := s.persistRooms(ctx); err != nil {
		return err
	}
	id, trimmed := strings.TrimSpace(sensorID), strings.TrimSpace(name)
	if err := s.appendEvent(ctx, models.EventRoomRenamed, now, fmt.Sprintf("Room %s renamed to %q", id, trimmed),
		map[string]any{"sensor_id": id, "name": trimmed}); err != nil {
		return err
	}
	return nil
}

func (s *HomeService) SetTarget(ctx context.Context, sensorID string, targetC float64) (TargetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	applied, tr, err := s.ctrl.SetTarget(sensorID, targetC)
	if err != nil {
		return TargetResult{}, err
	}
	defer s.afterTransition(ctx, tr, models.EventTargetChanged, now)
	if err := s.persistRooms(ctx); err != nil {
		return TargetResult{}, err
	}
	res := TargetResult{Requested: targetC, Applied: applied, Clamped: applied != targetC}
	id := strings.TrimSpace(sensorID)
	if err := s.appendEvent(ctx, models.EventTargetChanged, now, fmt.Sprintf("Target for %s set to %.1f°C", id, applied),
		map[string]any{"sensor_id": id, "requested_c": targetC, "target_c": applied, "clamped": res.Clamped}); err != nil {
		return TargetResult{}, err
	}
	return res, nil
}

func (s *HomeService) SetPriority(ctx context.Context, sensorID string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr, err := s.ctrl.SetPriority(sensorID, priority)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, models.EventPriorityChanged, now)
	if err := s.persistRooms(ctx); err != nil {
		return err
	}
	id := strings.TrimSpace(sensorID)
	if err := s.appendEvent(ctx, models.EventPriorityChanged, now, fmt.Sprintf("Priority for %s set to %d", id, priority),
		map[string]any{"sensor_id": id, "priority": priority}); err != nil {
		return err
	}
	return nil
}

func (s *HomeService) ReorderRooms(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr, err := s.ctrl.Reorder(ids)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, models.EventRoomsReordered, now)
	if err := s.persistRooms(ctx); err != nil {
		return err
	}
	order := s.ctrl.Order()
	if err := s.appendEvent(ctx, models.EventRoomsReordered, now, "Rooms reordered",
		map[string]any{"order": order}); err != nil {
		return err
	}
	return nil
}

func (s *HomeService) SetPower(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr := s.ctrl.SetPower(on)
	defer s.afterTransition(ctx, tr, models.EventPower, now)
	if err := s.persistSettings(ctx, now); err != nil {
		return err
	}
	desc := "Power OFF"
	if on {
		desc = "Power ON"
	}
	if err := s.appendEvent(ctx, models.EventPower, now, desc, map[string]any{"power_on": on}); err != nil {
		return err
	}
	return nil
}

func (s *HomeService) SetMode(ctx context.Context, mode string) error {
	m, err := thermostat.ParseMode(mode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	prev := s.ctrl.Snapshot().Mode
	tr, err := s.ctrl.SetMode(m)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, models.EventModeChange, now)
	if err := s.persistSettings(ctx, now); err != nil {
		return err
	}
	if err := s.appendEvent(ctx, models.EventModeChange, now,
		fmt.Sprintf("Mode changed from %s to %s", prev, m),
		map[string]any{"from": prev.String(), "to": m.String()}); err != nil {
		return err
	}
	return nil
}

// SetMasterConnected is runtime-only state. Repeated reports of the same value are
// applied but not logged.
func (s *HomeService) SetMasterConnected(ctx context.Context, connected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	prev := s.ctrl.Snapshot().MasterConnected
	tr := s.ctrl.SetMasterConnected(connected)
	defer s.afterTransition(ctx, tr, models.EventMaster, now)
	if prev != connected {
		desc := "Hub disconnected"
		if connected {
			desc = "Hub connected"
		}
		if err := s.appendEvent(ctx, models.EventMaster, now, desc, map[string]any{"connected": connected}); err != nil {
			return err
		}
	}
	return nil
}

// Ingest applies one sensor report. A target or priority carried by the report overwrites
// the room's own values in the same step as the reading.
func (s *HomeService) Ingest(ctx context.Context, sensorID string, t models.RoomTelemetry) error {
	if math.IsNaN(t.TemperatureC) || math.IsInf(t.TemperatureC, 0) {
		return ErrInvalidReading
	}
	at := t.ReceivedAt
	if at.IsZero() {
		at = s.clock()
	}
	rd := thermostat.Reading{TemperatureC: t.TemperatureC, HumidityPct: t.HumidityPct, BatteryPct: t.BatteryPct}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := s.ctrl.Report(sensorID, rd, t.TargetC, t.Priority, at)
	if err != nil {
		return err
	}
	defer s.afterTransition(ctx, tr, "telemetry", at)

	if t.TargetC != nil || t.Priority != nil {
		err = s.persistRooms(ctx)
	} else {
		err = s.rooms.SaveReading(ctx, strings.TrimSpace(sensorID), rd, at)
	}
	if err != nil {
		return err
	}
	s.metrics.TelemetryReceived()
	if err := s.history.WriteReading(ctx, strings.TrimSpace(sensorID), rd, at); err != nil {
		s.log.Warnw("history_write_failed", "sensor_id", sensorID, "err", err)
	}
	return nil
}

// GetHome re-evaluates staleness against the clock and returns the read model.
func (s *HomeService) GetHome(ctx context.Context) (models.HomeSnapshot, error) {
	now, err := s.refresh(ctx)
	if err != nil {
		return models.HomeSnapshot{}, err
	}
	return homeSnapshot(s.ctrl.Snapshot(), now), nil
}

// Refresh is driven by the sweeper.
func (s *HomeService) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *HomeService) refresh(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	tr := s.ctrl.Refresh(now)
	s.afterTransition(ctx, tr, "sweep", now)
	return now, nil
}

func (s *HomeService) persistRooms(ctx context.Context) error {
	snap := s.ctrl.Snapshot()
	records := make([]thermostat.RoomRecord, len(snap.Rooms))
	for i, r := range snap.Rooms {
		records[i] = r.Record()
	}
	if err := s.rooms.Replace(ctx, records); err != nil {
		return fmt.Errorf("save rooms: %w", err)
	}
	return nil
}

func (s *HomeService) persistSettings(ctx context.Context, now time.Time) error {
	snap := s.ctrl.Snapshot()
	err := s.settings.Save(ctx, models.HomeSettings{ID: 1, PowerOn: snap.PowerOn, Mode: snap.Mode.String(), UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *HomeService) appendEvent(ctx context.Context, typ string, at time.Time, desc string, meta any) error {
	ev := models.HomeEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  at.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if err := s.events.Append(ctx, ev); err != nil {
		return fmt.Errorf("append %s event: %w", typ, err)
	}
	return nil
}

// afterTransition records the derived effects of an event. It runs even when saving the
// event failed, since the controller has already acted on it. Failures are logged only.
func (s *HomeService) afterTransition(ctx context.Context, tr thermostat.Transition, cause string, now time.Time) {
	if tr.Changed() {
		s.log.Infow("state_changed", "from", tr.From.String(), "to", tr.To.String(),
			"prev_active", tr.PrevActive, "active", tr.Active, "cause", cause)
		err := s.appendEvent(ctx, models.EventStateChange, now,
			fmt.Sprintf("State %s -> %s", tr.From, tr.To),
			map[string]any{"from": tr.From.String(), "to": tr.To.String(),
				"prev_active": tr.PrevActive, "active": tr.Active, "cause": cause})
		if err != nil {
			s.log.Errorw("event_append_failed", "type", models.EventStateChange, "err", err)
		}
	}
	if cmd := tr.Issued; cmd != nil {
		s.metrics.UnitCommand(cmd.Mode.String())
		s.log.Infow("unit_command", "mode", cmd.Mode.String(), "target_c", cmd.TargetC, "room", tr.Active)
		err := s.appendEvent(ctx, models.EventUnitCommand, now,
			fmt.Sprintf("Unit set to %s %.1f°C", cmd.Mode, cmd.TargetC),
			map[string]any{"mode": cmd.Mode.String(), "target_c": cmd.TargetC, "sensor_id": tr.Active})
		if err != nil {
			s.log.Errorw("event_append_failed", "type", models.EventUnitCommand, "err", err)
		}
	}
	s.metrics.ObserveHome(s.ctrl.Snapshot(), now)
}
