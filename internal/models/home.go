package models

import "time"

// HomeSnapshot is the read model served by GET /home and the /ws stream.
type HomeSnapshot struct {
	State           string       `json:"state"` // OFF | NO_MASTER | NO_SENSORS | DONE
	ActiveRoomID    string       `json:"active_room_id,omitempty"`
	Mode            string       `json:"mode"`
	PowerOn         bool         `json:"power_on"`
	MasterConnected bool         `json:"master_connected"`
	LastCommand     *UnitCommand `json:"last_command,omitempty"`
	Rooms           []RoomView   `json:"rooms"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

// UnitCommand is the last setpoint sent to the shared unit.
type UnitCommand struct {
	Mode    string  `json:"mode"`
	TargetC float64 `json:"target_c"`
}

// RoomView is one room as rendered to clients. Readings are nil until the first telemetry.
type RoomView struct {
	SensorID     string     `json:"sensor_id"`
	Name         string     `json:"name"`
	Type         string     `json:"type,omitempty"`
	Position     int        `json:"position"`
	TargetC      float64    `json:"target_c"`
	Priority     int        `json:"priority"`
	TemperatureC *float64   `json:"temperature_c,omitempty"`
	TemperatureF *float64   `json:"temperature_f,omitempty"`
	HumidityPct  *float64   `json:"humidity_pct,omitempty"`
	BatteryPct   *float64   `json:"battery_pct,omitempty"`
	LastUpdateAt *time.Time `json:"last_update_at,omitempty"`
	Band         string     `json:"band"`
	Colors       [2]string  `json:"colors"`
	Stale        bool       `json:"stale"`
	Active       bool       `json:"active"`
}

// RoomTelemetry is one reading as pushed by the hub. Target and priority are optional
// and, when present, overwrite the room's own values.
type RoomTelemetry struct {
	TemperatureC float64   `json:"temp_c"`
	HumidityPct  float64   `json:"humidity"`
	BatteryPct   float64   `json:"battery"`
	TargetC      *float64  `json:"target_c,omitempty"`
	Priority     *int      `json:"priority,omitempty"`
	ReceivedAt   time.Time `json:"-"`
}
