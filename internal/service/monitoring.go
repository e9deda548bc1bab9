package service

import (
	"time"

	"shelf/internal/models"
	"shelf/internal/thermostat"
)

func homeSnapshot(snap thermostat.Snapshot, now time.Time) models.HomeSnapshot {
	out := models.HomeSnapshot{
		State:           snap.State.String(),
		ActiveRoomID:    snap.ActiveRoomID,
		Mode:            snap.Mode.String(),
		PowerOn:         snap.PowerOn,
		MasterConnected: snap.MasterConnected,
		Rooms:           make([]models.RoomView, len(snap.Rooms)),
		GeneratedAt:     now.UTC(),
	}
	if cmd := snap.LastCommand; cmd != nil {
		out.LastCommand = &models.UnitCommand{Mode: cmd.Mode.String(), TargetC: cmd.TargetC}
	}
	for i, r := range snap.Rooms {
		out.Rooms[i] = roomView(r, i, snap.ActiveRoomID, now)
	}
	return out
}

func roomView(r thermostat.Room, position int, activeID string, now time.Time) models.RoomView {
	band := r.Band().String()
	v := models.RoomView{
		SensorID: r.SensorID(),
		Name:     r.Name(),
		Type:     r.Type(),
		Position: position,
		TargetC:  r.TargetC(),
		Priority: r.Priority(),
		Band:     band,
		Colors:   models.BandColors(band),
		Stale:    r.Stale(now),
		Active:   r.SensorID() == activeID,
	}
	if r.HasTelemetry() {
		tc, tf, h, b := r.TemperatureC(), r.TemperatureF(), r.HumidityPct(), r.BatteryPct()
		at := r.LastUpdateAt().UTC()
		v.TemperatureC, v.TemperatureF, v.HumidityPct, v.BatteryPct = &tc, &tf, &h, &b
		v.LastUpdateAt = &at
	}
	return v
}
