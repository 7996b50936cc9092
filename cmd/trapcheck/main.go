package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/config"
	"github.com/Junchao-Mellanox/sonic-swss/internal/dvs"
	"github.com/Junchao-Mellanox/sonic-swss/internal/influx"
	"github.com/Junchao-Mellanox/sonic-swss/internal/logger"
	"github.com/Junchao-Mellanox/sonic-swss/internal/metrics"
	"github.com/Junchao-Mellanox/sonic-swss/internal/state"
	"github.com/Junchao-Mellanox/sonic-swss/internal/trapcounter"
	"github.com/Junchao-Mellanox/sonic-swss/internal/verify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const defaultConfigFileName = "trapcheck.yml"

var version = "dev"

func main() {
	var (
		cfgFile     string
		debug       bool
		watch       bool
		versionFlag bool
		checks      []string
	)
	pflag.StringVarP(&cfgFile, "config", "c", defaultConfigFileName, "configuration file")
	pflag.BoolVarP(&debug, "debug", "d", false, "turn on debug")
	pflag.BoolVarP(&watch, "watch", "w", false, "rerun the checks every watch_interval and serve health endpoints")
	pflag.StringSliceVar(&checks, "check", nil, "checks to run: add, interval, status, remove (default all)")
	pflag.BoolVarP(&versionFlag, "version", "v", false, "print version")
	pflag.Parse()

	if versionFlag {
		fmt.Println(version)
		return
	}

	logger.Setup(debug)
	os.Exit(run(cfgFile, checks, watch))
}

func run(cfgFile string, checks []string, watch bool) int {
	log.Info().Str("version", version).Msg("trapcheck starting up...")

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Error().Err(err).Str("path", cfgFile).Msg("Failed to load config")
		return 2
	}
	if err := trapcounter.ValidateChecks(checks); err != nil {
		log.Error().Err(err).Msg("Invalid --check selection")
		return 2
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received. Stopping checks and exiting.")
		stop()
	}()

	dev, err := dvs.Connect(ctx, cfg.Redis, cfg.Databases)
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to switch databases")
		return 1
	}
	defer dev.Close()

	poller := verify.New(dev.CountersDB(), dev.FlexDB(), verify.OptionsFromConfig(cfg.Poll))
	r := &runner{
		suite:   trapcounter.NewChecker(dev, poller, cfg.Trap),
		checks:  checks,
		results: state.NewManager(),
		metrics: metrics.NewCollector(),
	}

	var influxHealth InfluxHealth
	if cfg.InfluxDB.URL != "" {
		writer := influx.NewWriter(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
		defer writer.Close()
		r.writer = writer
		influxHealth = writer
	} else {
		log.Debug().Msg("InfluxDB not configured, results are only logged")
	}

	if !watch {
		if _, ok := r.runOnce(ctx); !ok {
			return 1
		}
		return 0
	}

	hs := NewHealthServer(cfg.HealthPort, r.results, dev, influxHealth, r.metrics.Handler())
	hs.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health server shutdown failed")
		}
	}()

	log.Info().Dur("interval", cfg.WatchInterval).Msg("Starting watch loop")
	r.watch(ctx, cfg.WatchInterval)
	return 0
}
