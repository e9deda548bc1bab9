package models

import "time"

// HomeSettings is the persisted single-row switchboard. ID is 0 until first saved.
type HomeSettings struct {
	ID        int       `json:"id"`
	PowerOn   bool      `json:"power_on"`
	Mode      string    `json:"mode"` // HEAT | COOL
	UpdatedAt time.Time `json:"updated_at"`
}
