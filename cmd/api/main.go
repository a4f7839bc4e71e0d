package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/froniuslights/internal/adapter/actor"
	"github.com/berfenger/froniuslights/internal/adapter/inverter"
	adnats "github.com/berfenger/froniuslights/internal/adapter/nats"
	"github.com/berfenger/froniuslights/internal/config"
	"github.com/berfenger/froniuslights/internal/core/actor"
	"github.com/berfenger/froniuslights/internal/metrics"
	"github.com/berfenger/froniuslights/internal/server"
	"github.com/berfenger/froniuslights/internal/util/actorutil"
	"github.com/berfenger/froniuslights/pkg/solarapi"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// one inverter client shared by every accessory
	client := solarapi.NewClient(cfg.Inverter.Host,
		solarapi.WithTimeout(cfg.Inverter.Timeout()),
		solarapi.WithCacheTTL(cfg.Inverter.CacheTTL()),
		solarapi.WithDeviceCatalogPath(cfg.Inverter.DeviceCatalogPath),
		solarapi.WithLogger(logger),
		solarapi.WithRegisterer(reg))
	inv := inverter.NewSolarAPIInverter(client)

	eventStream := &eventstream.EventStream{}

	accessoryMetrics := metrics.NewAccessoryMetrics(reg, eventStream)
	accessoryMetrics.Start()
	defer accessoryMetrics.Stop()

	if cfg.NATS.Enabled() {
		nc, err := adnats.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Error("nats disabled", zap.Error(err))
		} else {
			defer nc.Close()
			publisher := adnats.NewPublisher(nc, cfg.NATS.SubjectPrefix, eventStream, logger)
			publisher.Start()
			defer publisher.Stop()
		}
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, inv, eventStream, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("could not start master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, reg)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => FRONIUSLIGHTS_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("FRONIUSLIGHTS_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("froniuslights")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mqttActorProvider returns nil when no broker is configured
func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	if !cfg.MQTT.Enabled() {
		return nil
	}
	return func(eventStream *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, eventStream, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("inverter.host", "")
	viper.SetDefault("inverter.timeout_millis", 2000)
	viper.SetDefault("inverter.cache_ttl_millis", 1000)
	viper.SetDefault("inverter.device_catalog_path", solarapi.DefaultDeviceCatalogPath)
	viper.SetDefault("poll_interval", 10)
	viper.SetDefault("pv_max_power", 0)
	viper.SetDefault("battery", false)
	viper.SetDefault("mqtt.host", "")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.base_topic", "froniuslights")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("nats.url", "")
	viper.SetDefault("nats.subject_prefix", "froniuslights")
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
