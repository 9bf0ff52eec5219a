// sqlgate - SQL over HTTP for a single SQLite database
//
// This is the main entry point for the sqlgate application. It serves one
// POST endpoint that executes SQL sent by allow-listed clients and answers
// with a JSON envelope.
//
// Commands:
//   - serve (default): run the gateway
//   - functions: list the SQL functions queries can call
//   - check-config: load and validate a configuration file
//   - hash-secret: produce an Argon2id entry for gateway.allowed_passwords
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/sqlgate/internal/access"
	"github.com/nerrad567/sqlgate/internal/api"
	"github.com/nerrad567/sqlgate/internal/audit"
	"github.com/nerrad567/sqlgate/internal/engine"
	"github.com/nerrad567/sqlgate/internal/infrastructure/config"
	"github.com/nerrad567/sqlgate/internal/infrastructure/database"
	"github.com/nerrad567/sqlgate/internal/infrastructure/influxdb"
	"github.com/nerrad567/sqlgate/internal/infrastructure/logging"
	"github.com/nerrad567/sqlgate/internal/infrastructure/mqtt"
	"github.com/nerrad567/sqlgate/internal/sqlfunc"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// startupHealthTimeout bounds the post-start infrastructure check.
const startupHealthTimeout = 5 * time.Second

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the gateway and blocks until ctx is cancelled.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - cfg: Loaded configuration
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	defer log.Close() //nolint:errcheck // nothing left to report to
	log.Info("starting sqlgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A malformed function table is fatal before any traffic is accepted.
	registry, err := sqlfunc.Default()
	if err != nil {
		return fmt.Errorf("registering SQL functions: %w", err)
	}
	log.Info("SQL functions registered", "count", registry.Len())

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
	log.Info("database ready", "path", cfg.Database.Path, "wal", cfg.Database.WALMode)

	eng := engine.New(db, registry, engine.Options{QueryTimeout: cfg.GetQueryTimeout()})
	runStartupScript(ctx, eng, cfg.Database.StartupScript, log)

	var sinks audit.Multi

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		sinks = append(sinks, mqtt.NewExecutionPublisher(mqttClient))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"topic_prefix", mqttClient.Topics().Prefix(),
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		sinks = append(sinks, influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	deps := api.Deps{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Engine:   eng,
		Registry: registry,
		MQTT:     mqttClient,
		InfluxDB: influxClient,
		Version:  version,
	}
	if len(sinks) > 0 {
		deps.Sink = sinks
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	healthCtx, cancel := context.WithTimeout(ctx, startupHealthTimeout)
	if err := healthCheck(healthCtx, db, mqttClient, influxClient); err != nil {
		log.Warn("startup health check failed", "error", err)
	}
	cancel()

	log.Info("sqlgate ready",
		"address", server.Addr(),
		"route", cfg.Gateway.Route,
		"ip_allow_list", len(cfg.Gateway.AllowedIPs),
		"secret_required", cfg.SecretRequired(),
	)

	<-ctx.Done()
	log.Info("shutdown signal received")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains queued execution events)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	return nil
}

// runStartupScript executes the configured startup SQL once. A missing
// file is only a warning and a failing script is logged; neither stops
// the gateway.
func runStartupScript(ctx context.Context, eng *engine.Engine, path string, log *logging.Logger) {
	if path == "" {
		return
	}

	err := eng.RunStartupScript(ctx, path)
	switch {
	case err == nil:
		log.Info("startup script executed", "path", path)
	case errors.Is(err, engine.ErrNoStartupScript):
		log.Warn("startup script not found, create it to run SQL on startup", "path", path)
	default:
		log.Error("error while executing startup script, fix it and restart",
			"path", path,
			"error", err,
		)
	}
}

// loadConfig reads the configuration at path. When path was not given
// explicitly and the default file does not exist, built-in defaults are
// used.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := access.CheckEntries(cfg.Gateway.AllowedPasswords); err != nil {
		return nil, fmt.Errorf("loading config: gateway.allowed_passwords: %w", err)
	}
	return cfg, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
