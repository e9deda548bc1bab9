package bridge

import (
	"context"
	"time"

	"shelf/internal/logger"
	"shelf/internal/models"
)

// Ingestor is the part of the service layer the hub drives.
type Ingestor interface {
	Ingest(ctx context.Context, sensorID string, t models.RoomTelemetry) error
	SetMasterConnected(ctx context.Context, connected bool) error
}

const handleTimeout = 5 * time.Second

// Router turns inbound MQTT messages into service calls. Bad messages are logged and dropped.
type Router struct {
	topics Topics
	svc    Ingestor
	log    *logger.Logger
	clock  func() time.Time
}

func NewRouter(topics Topics, svc Ingestor, log *logger.Logger) *Router {
	if log == nil {
		log = logger.NewNop()
	}
	return &Router{topics: topics, svc: svc, log: log, clock: time.Now}
}

func (r *Router) HandleTelemetry(topic string, payload []byte) {
	sensorID, err := r.topics.SensorID(topic)
	if err != nil {
		r.log.Warnw("telemetry_dropped", "topic", topic, "err", err)
		return
	}
	t, err := DecodeTelemetry(payload, r.clock())
	if err != nil {
		r.log.Warnw("telemetry_dropped", "sensor_id", sensorID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if err := r.svc.Ingest(ctx, sensorID, t); err != nil {
		r.log.Warnw("telemetry_rejected", "sensor_id", sensorID, "err", err)
		return
	}
	r.log.Debugw("telemetry", "sensor_id", sensorID, "temp_c", t.TemperatureC)
}

func (r *Router) HandleMasterStatus(_ string, payload []byte) {
	connected, err := ParseMasterStatus(payload)
	if err != nil {
		r.log.Warnw("master_status_dropped", "err", err)
		return
	}
	r.setMaster(connected)
}

// BrokerLost reports the hub as unreachable; without the broker no command can reach it.
func (r *Router) BrokerLost(err error) {
	r.log.Warnw("mqtt_connection_lost", "err", err)
	r.setMaster(false)
}

func (r *Router) setMaster(connected bool) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if err := r.svc.SetMasterConnected(ctx, connected); err != nil {
		r.log.Errorw("master_status_failed", "connected", connected, "err", err)
	}
}
