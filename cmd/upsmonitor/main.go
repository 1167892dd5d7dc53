// UPS Monitor
//
// Polls a NUT server for every UPS it knows about, logs readings to SQLite
// on a slow interval, pushes live snapshots to dashboard clients on a fast
// interval, and serves the dashboard, history queries and MCP tools over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/ups-monitor/internal/api"
	"github.com/nerrad567/ups-monitor/internal/broadcast"
	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/config"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/database"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/influxdb"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/ups-monitor/internal/mcptools"
	"github.com/nerrad567/ups-monitor/internal/metrics"
	"github.com/nerrad567/ups-monitor/internal/nut"
	"github.com/nerrad567/ups-monitor/internal/scheduler"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
	"github.com/nerrad567/ups-monitor/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// probeTimeout bounds the startup connectivity check against upsd.
const probeTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting UPS monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		// Not fatal: the monitor runs on defaults.
		log.Warn("configuration unavailable, using defaults", "path", configPath, "error", err)
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete", "applied", applied)

	// Dependency checks served by /api/health; filled in until the API starts.
	checks := map[string]api.HealthChecker{"database": db}

	// History store, optionally mirrored to InfluxDB
	var store history.Store = history.NewSQLiteStore(db)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, history mirror disabled", "url", cfg.InfluxDB.URL, "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			store = history.NewMirrorStore(store, influxClient)
			checks["influxdb"] = influxClient
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// NUT
	nutCfg := nut.Config{
		Host:           cfg.NUT.Host,
		Port:           cfg.NUT.Port,
		ConnectTimeout: time.Duration(cfg.NUT.ConnectTimeout) * time.Second,
		ReadTimeout:    time.Duration(cfg.NUT.ReadTimeout) * time.Second,
	}
	dial := nut.NewDialer(nutCfg)
	probeNUT(ctx, dial, nutCfg.Address(), log)

	builder := snapshot.NewBuilder(dial, cfg.Rooms, snapshot.WithLogger(log))
	m := metrics.New()

	// API server and live hub
	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Snapshots: builder,
		History:   store,
		Metrics:   m,
		MCP:       mcptools.NewHandler(version, mcptools.UPSTools(builder, store, log)),
		Version:   version,

		HealthChecks: checks,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	hub := apiServer.Hub()
	m.RegisterGauge("websocket_clients", "Connected live-update clients", func() float64 {
		return float64(hub.ClientCount())
	})
	m.RegisterGauge("websocket_dropped_total", "Live events dropped for slow clients", func() float64 {
		return float64(hub.Dropped())
	})

	publishers := broadcast.Fanout{hub}

	// MQTT relay (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			log.Warn("MQTT unavailable, event relay disabled", "error", mqttErr)
		} else {
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			mqttClient.SetOnConnect(func() {
				log.Info("MQTT reconnected")
			})
			mqttClient.SetOnDisconnect(func(err error) {
				log.Warn("MQTT disconnected", "error", err)
			})
			relay := broadcast.NewMQTTRelay(mqttClient, log)
			go relay.Run(ctx)
			publishers = append(publishers, relay)
			checks["mqtt"] = mqttClient
			m.RegisterGauge("mqtt_relay_published_total", "Live events relayed to MQTT", func() float64 {
				published, _ := relay.Stats()
				return float64(published)
			})
			m.RegisterGauge("mqtt_relay_failed_total", "Live events the MQTT relay dropped", func() float64 {
				_, failed := relay.Stats()
				return float64(failed)
			})
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)
		}
	}

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Scheduler
	sched, err := scheduler.New(scheduler.Options{
		Builder:           builder,
		Recorder:          history.NewRecorder(store, log),
		Publisher:         publishers,
		Logger:            log,
		Metrics:           m,
		LogInterval:       cfg.Scheduler.LogInterval,
		BroadcastInterval: cfg.Scheduler.BroadcastInterval,
		TickTimeout:       cfg.Scheduler.TickTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	log.Info("UPS monitor started",
		"nut", nutCfg.Address(),
		"api", apiServer.Addr(),
		"rooms", len(cfg.Rooms),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")

	// Deferred calls run in reverse: scheduler, API, MQTT, InfluxDB, database.
	return nil
}

// probeNUT opens one session to report whether upsd is reachable. The
// result is logged only; polling starts either way.
func probeNUT(ctx context.Context, dial nut.Dialer, addr string, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	session, err := dial(ctx)
	if err != nil {
		log.Error("NUT server unreachable at startup", "address", addr, "error", err)
		return
	}
	defer session.Close() //nolint:errcheck // probe session

	devices, err := session.ListDevices(ctx)
	if err != nil {
		var protoErr *nut.ProtocolError
		if errors.As(err, &protoErr) {
			log.Error("NUT server rejected device listing", "address", addr, "code", protoErr.Code)
			return
		}
		log.Error("NUT device listing failed", "address", addr, "error", err)
		return
	}
	log.Info("NUT server reachable", "address", addr, "devices", devices)
}

// getConfigPath returns the configuration file path.
func getConfigPath() string {
	if path := os.Getenv("UPSMON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
