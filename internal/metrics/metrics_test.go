package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shelf/internal/thermostat"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_ObserveHome(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	ctrl, err := thermostat.New(thermostat.DefaultLimits(), thermostat.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("thermostat.New: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := ctrl.AddRoom(id, "Room "+id, "temp", now); err != nil {
			t.Fatalf("AddRoom: %v", err)
		}
	}
	ctrl.SetPower(true)
	ctrl.SetMasterConnected(true)
	if _, err := ctrl.Telemetry("a", thermostat.Reading{TemperatureC: 18.5}, now); err != nil {
		t.Fatalf("Telemetry: %v", err)
	}

	m := New()
	m.ObserveHome(ctrl.Snapshot(), now)

	if got := testutil.ToFloat64(m.state.WithLabelValues("DONE")); got != 1 {
		t.Fatalf("DONE gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.state.WithLabelValues("OFF")); got != 0 {
		t.Fatalf("OFF gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.rooms); got != 2 {
		t.Fatalf("rooms = %v", got)
	}
	if got := testutil.ToFloat64(m.staleRooms); got != 1 {
		t.Fatalf("stale rooms = %v", got)
	}
	if got := testutil.ToFloat64(m.roomTemp.WithLabelValues("a")); got != 18.5 {
		t.Fatalf("room temp = %v", got)
	}
	if got := testutil.CollectAndCount(m.roomTemp); got != 1 {
		t.Fatalf("temperature series = %d, want 1 (b has not reported)", got)
	}

	if _, err := ctrl.DeleteRoom("a"); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	m.ObserveHome(ctrl.Snapshot(), now)
	if got := testutil.CollectAndCount(m.roomTarget); got != 1 {
		t.Fatalf("target series after delete = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.state.WithLabelValues("NO_SENSORS")); got != 1 {
		t.Fatalf("NO_SENSORS gauge = %v", got)
	}
}

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()
	m.UnitCommand("HEAT")
	m.UnitCommand("HEAT")
	m.UnitCommand("COOL")
	m.TelemetryReceived()
	m.PublishFailed()

	if got := testutil.ToFloat64(m.unitCommands.WithLabelValues("HEAT")); got != 2 {
		t.Fatalf("HEAT commands = %v", got)
	}
	if got := testutil.ToFloat64(m.telemetry); got != 1 {
		t.Fatalf("telemetry = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`shelf_unit_commands_total{mode="COOL"} 1`,
		"shelf_telemetry_received_total 1",
		"shelf_unit_publish_failures_total 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHome(thermostat.Snapshot{}, time.Now())
	m.UnitCommand("HEAT")
	m.TelemetryReceived()
	m.PublishFailed()
}
