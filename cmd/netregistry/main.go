// netregistry is a small network device registry: a REST API for tracking
// routers, servers and switches, with reachability probes, MQTT lifecycle
// events, probe history in InfluxDB, and a WebSocket event stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jtmorrow/netregistry/migrations"

	"github.com/jtmorrow/netregistry/internal/api"
	"github.com/jtmorrow/netregistry/internal/device"
	"github.com/jtmorrow/netregistry/internal/events"
	"github.com/jtmorrow/netregistry/internal/history"
	"github.com/jtmorrow/netregistry/internal/infrastructure/config"
	"github.com/jtmorrow/netregistry/internal/infrastructure/database"
	"github.com/jtmorrow/netregistry/internal/infrastructure/influxdb"
	"github.com/jtmorrow/netregistry/internal/infrastructure/logging"
	"github.com/jtmorrow/netregistry/internal/infrastructure/mqtt"
	"github.com/jtmorrow/netregistry/internal/probe"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// defaultConfigPath is used when no flag or environment override is given.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting netregistry", "version", version, "commit", commit)

	cfg, err := loadConfig(configPath, log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Storage backend. A sqlite failure degrades to the in-memory store
	// rather than refusing to start: the registry keeps serving, devices
	// just do not survive a restart.
	repo, dbClose := openRepository(ctx, cfg, log)
	if dbClose != nil {
		defer dbClose()
	}

	// Lifecycle event transports, both optional.
	var publishers []device.EventPublisher

	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		publishers = append(publishers, events.NewPublisher(mqttClient, log))
	} else {
		log.Info("MQTT disabled")
	}

	// Probe history, optional.
	var recorder device.ProbeRecorder
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		recorder = history.NewRecorder(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	prober := probe.New(cfg.ProbeAttemptTimeout(), cfg.Probe.TCPPorts)

	// The service is built in two steps: the API server owns the WebSocket
	// hub, and the hub broadcasts the same events MQTT publishes, so it
	// joins the publisher fan-out before the service is handed over.
	svc := device.NewService(repo, prober, nil, recorder)

	server, err := api.New(api.Deps{
		Config:  cfg,
		Logger:  log,
		Service: svc,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	publishers = append(publishers, server.Hub())
	svc.SetEventPublisher(events.Combine(publishers...))

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// loadConfig resolves the configuration path and loads it. A missing file
// at the default path is not an error: the built-in defaults apply.
func loadConfig(path string, log *logging.Logger) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("NETREGISTRY_CONFIG"); env != "" {
			path = env
			explicit = true
		} else {
			path = defaultConfigPath
		}
	}

	cfg, err := config.Load(path)
	if err == nil {
		log.Info("configuration loaded", "path", path)
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		log.Info("no configuration file, using defaults", "path", path)
		cfg = config.Default()
		if vErr := cfg.Validate(); vErr != nil {
			return nil, vErr
		}
		return cfg, nil
	}
	return nil, err
}

// openRepository selects the storage backend. sqlite failures fall back to
// the in-memory store; the returned close function is nil for memory.
func openRepository(ctx context.Context, cfg *config.Config, log *logging.Logger) (device.Repository, func()) {
	if cfg.Database.Backend == config.BackendMemory {
		log.Info("using in-memory device store")
		return device.NewMemoryRepository(), nil
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		log.Warn("sqlite unavailable, falling back to in-memory store", "error", err)
		return device.NewMemoryRepository(), nil
	}

	if err := db.Migrate(ctx); err != nil {
		log.Warn("migrations failed, falling back to in-memory store", "error", err)
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
		return device.NewMemoryRepository(), nil
	}

	log.Info("database connected", "path", cfg.Database.Path)
	return device.NewSQLiteRepository(db.DB), func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}
}
