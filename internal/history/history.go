// Package history stores every accepted reading in InfluxDB for long-term charts.
package history

import (
	"context"
	"fmt"
	"time"

	"shelf/internal/thermostat"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement is the InfluxDB measurement readings are written to.
const Measurement = "room_telemetry"

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Sink writes readings synchronously; callers decide whether a failure matters.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewInflux(cfg Config) (*Sink, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Sink{client: client, writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket)}, nil
}

// newSink is used by tests to swap the write API.
func newSink(w api.WriteAPIBlocking) *Sink {
	return &Sink{writeAPI: w}
}

func (s *Sink) WriteReading(ctx context.Context, sensorID string, rd thermostat.Reading, at time.Time) error {
	if err := s.writeAPI.WritePoint(ctx, NewPoint(sensorID, rd, at)); err != nil {
		return fmt.Errorf("influx write %s: %w", sensorID, err)
	}
	return nil
}

// Close releases the HTTP client.
func (s *Sink) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func NewPoint(sensorID string, rd thermostat.Reading, at time.Time) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{"sensor_id": sensorID},
		map[string]interface{}{
			"temp_c":       rd.TemperatureC,
			"humidity_pct": rd.HumidityPct,
			"battery_pct":  rd.BatteryPct,
		},
		at.UTC())
}
