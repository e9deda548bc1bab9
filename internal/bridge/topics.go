// Package bridge connects the controller to the sensor hub over MQTT.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shelf/internal/models"
)

var (
	ErrForeignTopic   = errors.New("topic does not belong to this bridge")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Topics derives every topic from one prefix, e.g. "shelf".
type Topics struct {
	Prefix string
}

func NewTopics(prefix string) Topics {
	return Topics{Prefix: strings.Trim(prefix, "/")}
}

// TelemetryFilter matches every sensor's telemetry topic.
func (t Topics) TelemetryFilter() string { return t.Prefix + "/sensors/+/telemetry" }

func (t Topics) Telemetry(sensorID string) string {
	return t.Prefix + "/sensors/" + sensorID + "/telemetry"
}

func (t Topics) MasterStatus() string { return t.Prefix + "/master/status" }

func (t Topics) UnitSet() string { return t.Prefix + "/unit/set" }

// SensorID extracts the sensor from a telemetry topic.
func (t Topics) SensorID(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/sensors/")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrForeignTopic, topic)
	}
	id, ok := strings.CutSuffix(rest, "/telemetry")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrForeignTopic, topic)
	}
	return id, nil
}

// DecodeTelemetry parses a sensor report. Temperature is required; the rest default to zero.
func DecodeTelemetry(payload []byte, receivedAt time.Time) (models.RoomTelemetry, error) {
	var raw struct {
		TemperatureC *float64 `json:"temp_c"`
		HumidityPct  float64  `json:"humidity"`
		BatteryPct   float64  `json:"battery"`
		TargetC      *float64 `json:"target_c"`
		Priority     *int     `json:"priority"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return models.RoomTelemetry{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw.TemperatureC == nil {
		return models.RoomTelemetry{}, fmt.Errorf("%w: temp_c is required", ErrInvalidPayload)
	}
	return models.RoomTelemetry{
		TemperatureC: *raw.TemperatureC,
		HumidityPct:  raw.HumidityPct,
		BatteryPct:   raw.BatteryPct,
		TargetC:      raw.TargetC,
		Priority:     raw.Priority,
		ReceivedAt:   receivedAt,
	}, nil
}

// ParseMasterStatus accepts online/offline as published by the hub, plus the usual boolean spellings.
func ParseMasterStatus(payload []byte) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(payload))) {
	case "online", "connected", "1", "true":
		return true, nil
	case "offline", "disconnected", "0", "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: master status %q", ErrInvalidPayload, payload)
	}
}

// UnitPayload is published on the unit topic.
type UnitPayload struct {
	Mode     string    `json:"mode"`
	TargetC  float64   `json:"target_c"`
	IssuedAt time.Time `json:"issued_at"`
}
