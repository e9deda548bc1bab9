package thermostat

import (
	"fmt"
	"strings"
	"time"
)

const (
	minPercent = 0.0
	maxPercent = 100.0
)

// Reading is one telemetry sample pushed by a sensor.
type Reading struct {
	TemperatureC float64
	HumidityPct  float64
	BatteryPct   float64
}

// Room is one sensor paired with its target. It is not safe for concurrent use;
// the owning Controller serializes access.
type Room struct {
	limits *Limits

	sensorID   string
	name       string
	sensorType string

	temperatureC float64
	humidityPct  float64
	batteryPct   float64
	reported     bool
	lastUpdateAt time.Time

	targetC  float64
	priority int
}

// RoomRecord is the full state of a room, used to persist and restore it.
type RoomRecord struct {
	SensorID     string
	Name         string
	Type         string
	TargetC      float64
	Priority     int
	Reported     bool
	TemperatureC float64
	HumidityPct  float64
	BatteryPct   float64
	LastUpdateAt time.Time
}

// NewRoom creates a room with no telemetry and the default target.
func NewRoom(sensorID, name, sensorType string, limits Limits) (*Room, error) {
	return NewRoomFromRecord(RoomRecord{
		SensorID: sensorID,
		Name:     name,
		Type:     sensorType,
		TargetC:  limits.DefaultTargetC,
	}, limits)
}

// NewRoomFromRecord rebuilds a room. The target is clamped into range.
func NewRoomFromRecord(rec RoomRecord, limits Limits) (*Room, error) {
	id := strings.TrimSpace(rec.SensorID)
	if id == "" {
		return nil, ErrInvalidSensorID
	}
	name, err := normalizeName(rec.Name)
	if err != nil {
		return nil, err
	}
	target := rec.TargetC
	if !isFinite(target) {
		target = limits.DefaultTargetC
	}
	r := &Room{
		limits:     &limits,
		sensorID:   id,
		name:       name,
		sensorType: rec.Type,
		targetC:    limits.ClampTarget(target),
		priority:   rec.Priority,
	}
	if rec.Reported {
		r.UpdateTelemetry(Reading{
			TemperatureC: rec.TemperatureC,
			HumidityPct:  rec.HumidityPct,
			BatteryPct:   rec.BatteryPct,
		}, rec.LastUpdateAt)
	}
	return r, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func (r *Room) SensorID() string { return r.sensorID }
func (r *Room) Name() string { return r.name }
func (r *Room) Type() string { return r.sensorType }
func (r *Room) TargetC() float64 { return r.targetC }
func (r *Room) Priority() int { return r.priority }
func (r *Room) HumidityPct() float64 { return r.humidityPct }
func (r *Room) BatteryPct() float64 { return r.batteryPct }
func (r *Room) LastUpdateAt() time.Time { return r.lastUpdateAt }

// HasTelemetry reports whether at least one reading was received.
func (r *Room) HasTelemetry() bool { return r.reported }

// TemperatureC returns the last reported temperature in Celsius.
func (r *Room) TemperatureC() float64 { return r.temperatureC }

// TemperatureF returns the last reported temperature in Fahrenheit.
func (r *Room) TemperatureF() float64 { return r.temperatureC*9/5 + 32 }

// UpdateTelemetry stores a reading taken at now. Humidity and battery are clamped to [0, 100].
func (r *Room) UpdateTelemetry(rd Reading, now time.Time) {
	r.temperatureC = rd.TemperatureC
	r.humidityPct = clamp(rd.HumidityPct, minPercent, maxPercent)
	r.batteryPct = clamp(rd.BatteryPct, minPercent, maxPercent)
	r.lastUpdateAt = now
	r.reported = true
}

// UpdateTarget clamps target into the valid range, stores it and returns the stored value.
// Non-finite targets are rejected since they have no nearest boundary.
func (r *Room) UpdateTarget(target float64) (float64, error) {
	if !isFinite(target) {
		return r.targetC, fmt.Errorf("%w: %v", ErrTargetOutOfRange, target)
	}
	r.targetC = r.limits.ClampTarget(target)
	return r.targetC, nil
}

// Rename sets a new non-empty display label.
func (r *Room) Rename(name string) error {
	n, err := normalizeName(name)
	if err != nil {
		return err
	}
	r.name = n
	return nil
}

// SetPriority replaces the selection priority.
func (r *Room) SetPriority(p int) { r.priority = p }

// Band classifies the room's comfort from (temperature - target).
func (r *Room) Band() Band {
	if !r.reported {
		return BandUnknown
	}
	return r.limits.Bands.Classify(r.temperatureC - r.targetC)
}

// IsStale reports whether the room has never reported or its last report is older than threshold.
func (r *Room) IsStale(now time.Time, threshold time.Duration) bool {
	if !r.reported {
		return true
	}
	return now.Sub(r.lastUpdateAt) > threshold
}

// Stale applies the controller's configured freshness window.
func (r *Room) Stale(now time.Time) bool {
	return r.IsStale(now, r.limits.StaleAfter)
}

// Record exports the room's full state.
func (r *Room) Record() RoomRecord {
	return RoomRecord{
		SensorID:     r.sensorID,
		Name:         r.name,
		Type:         r.sensorType,
		TargetC:      r.targetC,
		Priority:     r.priority,
		Reported:     r.reported,
		TemperatureC: r.temperatureC,
		HumidityPct:  r.humidityPct,
		BatteryPct:   r.batteryPct,
		LastUpdateAt: r.lastUpdateAt,
	}
}
