package bridge

import (
	"errors"
	"testing"
	"time"
)

func TestTopics(t *testing.T) {
	tp := NewTopics("/home/")
	if tp.TelemetryFilter() != "home/sensors/+/telemetry" {
		t.Fatalf("filter = %q", tp.TelemetryFilter())
	}
	if tp.MasterStatus() != "home/master/status" || tp.UnitSet() != "home/unit/set" {
		t.Fatalf("topics = %q %q", tp.MasterStatus(), tp.UnitSet())
	}

	cases := []struct {
		topic   string
		want    string
		wantErr bool
	}{
		{"home/sensors/kitchen-1/telemetry", "kitchen-1", false},
		{tp.Telemetry("a"), "a", false},
		{"home/sensors//telemetry", "", true},
		{"home/sensors/a/b/telemetry", "", true},
		{"home/sensors/a/status", "", true},
		{"other/sensors/a/telemetry", "", true},
	}
	for _, tc := range cases {
		got, err := tp.SensorID(tc.topic)
		if (err != nil) != tc.wantErr {
			t.Fatalf("SensorID(%q) err = %v", tc.topic, err)
		}
		if tc.wantErr && !errors.Is(err, ErrForeignTopic) {
			t.Fatalf("SensorID(%q) err = %v, want ErrForeignTopic", tc.topic, err)
		}
		if got != tc.want {
			t.Fatalf("SensorID(%q) = %q, want %q", tc.topic, got, tc.want)
		}
	}
}

func TestDecodeTelemetry(t *testing.T) {
	at := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

	got, err := DecodeTelemetry([]byte(`{"temp_c":21.5,"humidity":40,"battery":87,"target_c":22,"priority":2}`), at)
	if err != nil {
		t.Fatalf("DecodeTelemetry: %v", err)
	}
	if got.TemperatureC != 21.5 || got.HumidityPct != 40 || got.BatteryPct != 87 || !got.ReceivedAt.Equal(at) {
		t.Fatalf("decoded = %+v", got)
	}
	if got.TargetC == nil || *got.TargetC != 22 || got.Priority == nil || *got.Priority != 2 {
		t.Fatalf("optional fields = %v %v", got.TargetC, got.Priority)
	}

	got, err = DecodeTelemetry([]byte(`{"temp_c":0}`), at)
	if err != nil || got.TargetC != nil || got.Priority != nil || got.TemperatureC != 0 {
		t.Fatalf("minimal payload = %+v, %v", got, err)
	}

	for _, bad := range []string{`{"humidity":40}`, `not json`, `{"temp_c":"warm"}`} {
		if _, err := DecodeTelemetry([]byte(bad), at); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("DecodeTelemetry(%s) err = %v, want ErrInvalidPayload", bad, err)
		}
	}
}

func TestParseMasterStatus(t *testing.T) {
	cases := map[string]bool{"online": true, " ONLINE\n": true, "1": true, "true": true, "offline": false, "0": false, "": false}
	for in, want := range cases {
		got, err := ParseMasterStatus([]byte(in))
		if err != nil || got != want {
			t.Fatalf("ParseMasterStatus(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMasterStatus([]byte("maybe")); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("err = %v, want ErrInvalidPayload", err)
	}
}
