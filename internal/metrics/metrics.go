// Package metrics exposes controller gauges and counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"shelf/internal/thermostat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shelf"

// Metrics owns a private registry so tests can build as many instances as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	state           *prometheus.GaugeVec
	rooms           prometheus.Gauge
	staleRooms      prometheus.Gauge
	powerOn         prometheus.Gauge
	masterConnected prometheus.Gauge
	roomTemp        *prometheus.GaugeVec
	roomTarget      *prometheus.GaugeVec

	unitCommands    *prometheus.CounterVec
	telemetry       prometheus.Counter
	publishFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "state",
			Help: "1 for the current controller state, 0 for the others.",
		}, []string{"state"}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "rooms",
			Help: "Number of paired rooms.",
		}),
		staleRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "rooms_stale",
			Help: "Number of rooms without a fresh reading.",
		}),
		powerOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "power_on",
			Help: "1 when the system is switched on.",
		}),
		masterConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "master_connected",
			Help: "1 while the sensor hub is reachable.",
		}),
		roomTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "room_temperature_celsius",
			Help: "Last reported temperature per room.",
		}, []string{"sensor_id"}),
		roomTarget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "room_target_celsius",
			Help: "Target temperature per room.",
		}, []string{"sensor_id"}),
		unitCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "unit_commands_total",
			Help: "Commands sent to the shared unit, by mode.",
		}, []string{"mode"}),
		telemetry: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "telemetry_received_total",
			Help: "Accepted sensor readings.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "unit_publish_failures_total",
			Help: "Unit commands that could not be delivered to the broker.",
		}),
	}
	m.registry.MustRegister(
		m.state, m.rooms, m.staleRooms, m.powerOn, m.masterConnected, m.roomTemp, m.roomTarget,
		m.unitCommands, m.telemetry, m.publishFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHome refreshes every gauge from a snapshot. Per-room series of deleted rooms are dropped.
func (m *Metrics) ObserveHome(snap thermostat.Snapshot, now time.Time) {
	if m == nil {
		return
	}
	for _, st := range thermostat.AllStates {
		v := 0.0
		if st == snap.State {
			v = 1
		}
		m.state.WithLabelValues(st.String()).Set(v)
	}
	m.powerOn.Set(boolGauge(snap.PowerOn))
	m.masterConnected.Set(boolGauge(snap.MasterConnected))
	m.rooms.Set(float64(len(snap.Rooms)))

	m.roomTemp.Reset()
	m.roomTarget.Reset()
	stale := 0
	for i := range snap.Rooms {
		r := &snap.Rooms[i]
		if r.Stale(now) {
			stale++
		}
		m.roomTarget.WithLabelValues(r.SensorID()).Set(r.TargetC())
		if r.HasTelemetry() {
			m.roomTemp.WithLabelValues(r.SensorID()).Set(r.TemperatureC())
		}
	}
	m.staleRooms.Set(float64(stale))
}

func (m *Metrics) UnitCommand(mode string) {
	if m == nil {
		return
	}
	m.unitCommands.WithLabelValues(mode).Inc()
}

func (m *Metrics) TelemetryReceived() {
	if m == nil {
		return
	}
	m.telemetry.Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
