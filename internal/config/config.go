package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"shelf/internal/thermostat"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SHELF_MQTT_BROKER.
const EnvPrefix = "SHELF"

// Config is the fully resolved application configuration.
type Config struct {
	Port     string
	LogLevel string
	DBPath   string

	Auth       AuthConfig
	HTTP       HTTPConfig
	Thermostat ThermostatConfig
	MQTT       MQTTConfig
	Influx     InfluxConfig
	Breaker    BreakerConfig
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type ThermostatConfig struct {
	Limits        thermostat.Limits
	SweepInterval time.Duration
}

type MQTTConfig struct {
	Enabled        bool
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	ConnectRetries int
	EmbeddedBroker bool
	EmbeddedAddr   string
}

type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

type BreakerConfig struct {
	Failures int
	OpenFor  time.Duration
	Interval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "shelf.db")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("http.read_header_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("thermostat.min_target_c", thermostat.DefaultMinTargetC)
	v.SetDefault("thermostat.max_target_c", thermostat.DefaultMaxTargetC)
	v.SetDefault("thermostat.default_target_c", thermostat.DefaultTargetC)
	v.SetDefault("thermostat.stale_after", thermostat.DefaultStaleAfter)
	v.SetDefault("thermostat.sweep_interval", 30*time.Second)
	v.SetDefault("thermostat.bands.hot", thermostat.DefaultHotThresholdC)
	v.SetDefault("thermostat.bands.warm", thermostat.DefaultWarmThresholdC)
	v.SetDefault("thermostat.bands.cool", thermostat.DefaultCoolThresholdC)
	v.SetDefault("thermostat.bands.cold", thermostat.DefaultColdThresholdC)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.client_id", "shelf-controller")
	v.SetDefault("mqtt.topic_prefix", "shelf")
	v.SetDefault("mqtt.connect_retries", 5)
	v.SetDefault("mqtt.embedded_broker", false)
	v.SetDefault("mqtt.embedded_addr", ":1883")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://127.0.0.1:8086")
	v.SetDefault("influx.org", "shelf")
	v.SetDefault("influx.bucket", "telemetry")

	v.SetDefault("breaker.failures", 3)
	v.SetDefault("breaker.open_for", 30*time.Second)
	v.SetDefault("breaker.interval", time.Minute)
}

// Load reads config.yml from the given directories (the first match wins) and applies
// SHELF_* environment overrides. A missing file is not an error; defaults apply.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetString("port"),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		DBPath:   v.GetString("db.path"),
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		HTTP: HTTPConfig{
			ReadHeaderTimeout: v.GetDuration("http.read_header_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
		},
		Thermostat: ThermostatConfig{
			Limits: thermostat.Limits{
				MinTargetC:     v.GetFloat64("thermostat.min_target_c"),
				MaxTargetC:     v.GetFloat64("thermostat.max_target_c"),
				DefaultTargetC: v.GetFloat64("thermostat.default_target_c"),
				StaleAfter:     v.GetDuration("thermostat.stale_after"),
				Bands: thermostat.BandThresholds{
					Hot:  v.GetFloat64("thermostat.bands.hot"),
					Warm: v.GetFloat64("thermostat.bands.warm"),
					Cool: v.GetFloat64("thermostat.bands.cool"),
					Cold: v.GetFloat64("thermostat.bands.cold"),
				},
			},
			SweepInterval: v.GetDuration("thermostat.sweep_interval"),
		},
		MQTT: MQTTConfig{
			Enabled:        v.GetBool("mqtt.enabled"),
			Broker:         v.GetString("mqtt.broker"),
			ClientID:       v.GetString("mqtt.client_id"),
			Username:       v.GetString("mqtt.username"),
			Password:       v.GetString("mqtt.password"),
			TopicPrefix:    strings.Trim(v.GetString("mqtt.topic_prefix"), "/"),
			ConnectRetries: v.GetInt("mqtt.connect_retries"),
			EmbeddedBroker: v.GetBool("mqtt.embedded_broker"),
			EmbeddedAddr:   v.GetString("mqtt.embedded_addr"),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
		Breaker: BreakerConfig{
			Failures: v.GetInt("breaker.failures"),
			OpenFor:  v.GetDuration("breaker.open_for"),
			Interval: v.GetDuration("breaker.interval"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	if err := c.Thermostat.Limits.Validate(); err != nil {
		return err
	}
	if c.Thermostat.SweepInterval <= 0 {
		return fmt.Errorf("thermostat.sweep_interval must be positive, got %s", c.Thermostat.SweepInterval)
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		return errors.New("mqtt.topic_prefix is required when mqtt is enabled")
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Token == "" || c.Influx.Org == "" || c.Influx.Bucket == "") {
		return errors.New("influx config incomplete")
	}
	if c.Breaker.Failures < 1 {
		return fmt.Errorf("breaker.failures must be >= 1, got %d", c.Breaker.Failures)
	}
	return nil
}
