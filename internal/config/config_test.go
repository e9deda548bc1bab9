package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelf/internal/thermostat"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("SHELF_AUTH_SIGNING_KEY", "k")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBPath != "shelf.db" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected basics: %+v", cfg)
	}
	if cfg.Thermostat.Limits != thermostat.DefaultLimits() {
		t.Fatalf("limits = %+v, want defaults", cfg.Thermostat.Limits)
	}
	if cfg.MQTT.Enabled || cfg.Influx.Enabled {
		t.Fatalf("optional integrations must be off by default")
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("token ttl = %s", cfg.Auth.TokenTTL)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
log:
  level: DEBUG
auth:
  signing_key: from-file
thermostat:
  min_target_c: 5
  max_target_c: 30
  default_target_c: 21
  stale_after: 2m
  bands:
    hot: 4
mqtt:
  enabled: true
  topic_prefix: /home/
`)
	t.Setenv("SHELF_MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("SHELF_THERMOSTAT_SWEEP_INTERVAL", "5s")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || cfg.LogLevel != "debug" || cfg.Auth.SigningKey != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	l := cfg.Thermostat.Limits
	if l.MinTargetC != 5 || l.MaxTargetC != 30 || l.DefaultTargetC != 21 || l.StaleAfter != 2*time.Minute {
		t.Fatalf("limits = %+v", l)
	}
	if l.Bands.Hot != 4 || l.Bands.Warm != thermostat.DefaultWarmThresholdC {
		t.Fatalf("bands = %+v", l.Bands)
	}
	if cfg.Thermostat.SweepInterval != 5*time.Second {
		t.Fatalf("sweep interval = %s", cfg.Thermostat.SweepInterval)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker != "tcp://broker:1883" || cfg.MQTT.TopicPrefix != "home" {
		t.Fatalf("mqtt = %+v", cfg.MQTT)
	}
}

func TestLoad_InvalidLimits(t *testing.T) {
	dir := writeConfig(t, `
auth:
  signing_key: k
thermostat:
  min_target_c: 30
  max_target_c: 10
`)
	if _, err := Load(dir); !errors.Is(err, thermostat.ErrInvalidLimits) {
		t.Fatalf("Load err = %v, want ErrInvalidLimits", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeConfig(t, "port: [unterminated")
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("Load err = %v, want read config error", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Auth:       AuthConfig{SigningKey: "k", TokenTTL: time.Hour},
			Thermostat: ThermostatConfig{Limits: thermostat.DefaultLimits(), SweepInterval: time.Second},
			Breaker:    BreakerConfig{Failures: 1},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}

	cases := map[string]func(c *Config){
		"missing signing key":   func(c *Config) { c.Auth.SigningKey = " " },
		"zero ttl":              func(c *Config) { c.Auth.TokenTTL = 0 },
		"zero sweep":            func(c *Config) { c.Thermostat.SweepInterval = 0 },
		"mqtt without prefix":   func(c *Config) { c.MQTT.Enabled = true },
		"influx without token":  func(c *Config) { c.Influx = InfluxConfig{Enabled: true, URL: "u", Org: "o", Bucket: "b"} },
		"breaker zero failures": func(c *Config) { c.Breaker.Failures = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
