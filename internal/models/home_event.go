package models

import "time"

// Event types written to the home event log.
const (
	EventRoomAdded       = "ROOM_ADDED"
	EventRoomDeleted     = "ROOM_DELETED"
	EventRoomRenamed     = "ROOM_RENAMED"
	EventTargetChanged   = "TARGET_CHANGED"
	EventPriorityChanged = "PRIORITY_CHANGED"
	EventRoomsReordered  = "ROOMS_REORDERED"
	EventPower           = "POWER"
	EventModeChange      = "MODE_CHANGE"
	EventMaster          = "MASTER"
	EventStateChange     = "STATE_CHANGE"
	EventUnitCommand     = "UNIT_COMMAND"
)

// EventTypes lists every type accepted by the log filter.
var EventTypes = []string{
	EventRoomAdded, EventRoomDeleted, EventRoomRenamed, EventTargetChanged, EventPriorityChanged,
	EventRoomsReordered, EventPower, EventModeChange, EventMaster, EventStateChange, EventUnitCommand,
}

// HomeEvent is a single log entry.
type HomeEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
