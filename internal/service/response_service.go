package service

import "time"

// NewRoomParams describes a sensor being paired with a room.
type NewRoomParams struct {
	SensorID string
	Name     string
	Type     string
}

// TargetResult reports the stored target and whether the request was clamped to reach it.
type TargetResult struct {
	Requested float64
	Applied   float64
	Clamped   bool
}

// LogFilter narrows the event history. Zero bounds are open.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string
}
