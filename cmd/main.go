package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shelf/internal/bridge"
	"shelf/internal/config"
	"shelf/internal/handlers"
	"shelf/internal/history"
	"shelf/internal/logger"
	"shelf/internal/metrics"
	"shelf/internal/repository"
	"shelf/internal/repository/db"
	"shelf/internal/server"
	"shelf/internal/service"
	"shelf/internal/thermostat"

	mqttbroker "github.com/mochi-mqtt/server/v2"
)

const restoreTimeout = 10 * time.Second

// closers run in reverse order on shutdown.
type closers []func()

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func main() {
	// load configs/config.yml, then SHELF_* overrides
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// open DB
	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DBPath)
	}

	var cleanup closers
	cleanup = append(cleanup, func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := metrics.New()

	var hist service.HistoryWriter
	if cfg.Influx.Enabled {
		sink, err := history.NewInflux(history.Config{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			log.Fatalw("failed to init influx", "err", err)
		}
		hist = sink
		cleanup = append(cleanup, sink.Close)
		log.Infow("influx_enabled", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	// embedded broker must be listening before the client dials it
	if cfg.MQTT.Enabled && cfg.MQTT.EmbeddedBroker {
		broker := startEmbeddedBroker(cfg.MQTT.EmbeddedAddr, log)
		cleanup = append(cleanup, func() { _ = broker.Close() })
	}

	// unit commands go out over MQTT when the bridge is on; otherwise they are dropped
	var (
		ctrlOpts  []thermostat.Option
		mqttCl    *bridge.Client
		commander *bridge.Commander
		topics    = bridge.NewTopics(cfg.MQTT.TopicPrefix)
	)
	if cfg.MQTT.Enabled {
		mqttCl = bridge.NewClient(bridge.Options{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ConnectRetries: cfg.MQTT.ConnectRetries,
		}, topics, log)
		commander = bridge.NewCommander(mqttCl, topics, bridge.BreakerSettings{
			Failures: cfg.Breaker.Failures,
			OpenFor:  cfg.Breaker.OpenFor,
			Interval: cfg.Breaker.Interval,
		}, log, bridge.WithFailureHook(func(error) { reg.PublishFailed() }))
		ctrlOpts = append(ctrlOpts, thermostat.WithCommander(commander))
	}

	ctrl, err := thermostat.New(cfg.Thermostat.Limits, ctrlOpts...)
	if err != nil {
		log.Fatalw("invalid thermostat limits", "err", err)
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(repos, service.Deps{
		Controller: ctrl,
		History:    hist,
		Metrics:    reg,
		Log:        log,
		Auth: service.AuthSettings{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
	})

	restoreCtx, restoreCancel := context.WithTimeout(ctx, restoreTimeout)
	err = services.Restore(restoreCtx)
	restoreCancel()
	if err != nil {
		log.Fatalw("failed to restore home", "err", err)
	}

	go services.Sweeper.Run(ctx, cfg.Thermostat.SweepInterval)

	if mqttCl != nil {
		router := bridge.NewRouter(topics, services, log)
		if err := mqttCl.Connect(ctx, router); err != nil {
			// the controller stays in NO_MASTER; HTTP keeps serving
			log.Errorw("mqtt_unavailable", "err", err)
		}
		cleanup = append(cleanup, mqttCl.Close)
		// commands queued while connecting are kept; only the latest is sent
		go commander.Run(ctx)
	}

	apiHandler := handlers.NewHandler(services, log, reg.Handler())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.HTTP.ShutdownTimeout, log)
	cleanup.run()
}

func startEmbeddedBroker(addr string, log *logger.Logger) *mqttbroker.Server {
	broker, err := bridge.NewEmbeddedBroker(addr)
	if err != nil {
		log.Fatalw("failed to init embedded broker", "err", err, "addr", addr)
	}
	go func() {
		if err := broker.Serve(); err != nil {
			log.Errorw("embedded broker stopped", "err", err)
		}
	}()
	log.Infow("embedded_broker_listening", "addr", addr)
	return broker
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg config.Config, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", cfg.Port)
		if err := srv.Run(cfg.Port, handler.InitRoutes(), cfg.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
