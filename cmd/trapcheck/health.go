package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/state"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// InfluxHealth reports InfluxDB health
type InfluxHealth interface {
	HealthCheck() error
}

// HealthServer provides HTTP health and metrics endpoints in watch mode
type HealthServer struct {
	results   *state.Manager
	device    Pinger
	influx    InfluxHealth // nil when InfluxDB is not configured
	metrics   http.Handler
	startTime time.Time
	server    *http.Server
}

// HealthResponse represents the health check JSON response
type HealthResponse struct {
	Status        string    `json:"status"`         // "healthy", "degraded", "unhealthy"
	Version       string    `json:"version"`        // Version string
	Uptime        string    `json:"uptime"`         // Human readable uptime
	ChecksRun     int       `json:"checks_run"`     // Checks with a recorded result
	FailingChecks []string  `json:"failing_checks"` // Checks whose latest result failed
	RedisOK       bool      `json:"redis_ok"`       // Switch database connectivity
	InfluxDBOK    bool      `json:"influxdb_ok"`    // InfluxDB connectivity, true when disabled
	Goroutines    int       `json:"goroutines"`     // Current goroutine count
	MemoryMB      uint64    `json:"memory_mb"`      // Current memory usage in MB
	Timestamp     time.Time `json:"timestamp"`      // Current timestamp
}

// NewHealthServer creates a new health check server
func NewHealthServer(port int, results *state.Manager, device Pinger, influx InfluxHealth, metrics http.Handler) *HealthServer {
	hs := &HealthServer{
		results:   results,
		device:    device,
		influx:    influx,
		metrics:   metrics,
		startTime: time.Now(),
	}
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           hs.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return hs
}

func (hs *HealthServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/health/ready", hs.readinessHandler)
	mux.HandleFunc("/health/live", hs.livenessHandler)
	if hs.metrics != nil {
		mux.Handle("/metrics", hs.metrics)
	}
	return mux
}

// Start begins serving health checks (non-blocking)
func (hs *HealthServer) Start() {
	go func() {
		// Panic recovery for health server goroutine
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Msg("Health server panic recovered")
			}
		}()

		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Health server error")
		}
	}()

	log.Info().Str("address", hs.server.Addr).Msg("Health check endpoint started")
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	return hs.server.Shutdown(ctx)
}

// healthHandler provides detailed health information
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	redisOK := hs.device.Ping(ctx) == nil
	influxOK := hs.influx == nil || hs.influx.HealthCheck() == nil
	failing := hs.results.Failing()
	if failing == nil {
		failing = []string{}
	}

	status := "healthy"
	switch {
	case !redisOK:
		status = "unhealthy"
	case len(failing) > 0 || !influxOK:
		status = "degraded"
	}

	response := HealthResponse{
		Status:        status,
		Version:       version,
		Uptime:        time.Since(hs.startTime).String(),
		ChecksRun:     hs.results.Count(),
		FailingChecks: failing,
		RedisOK:       redisOK,
		InfluxDBOK:    influxOK,
		Goroutines:    runtime.NumGoroutine(),
		MemoryMB:      m.Alloc / 1024 / 1024,
		Timestamp:     time.Now(),
	}

	if status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// readinessHandler reports ready once the switch databases answer
func (hs *HealthServer) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := hs.device.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY: switch database unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

// livenessHandler indicates if service is alive
func (hs *HealthServer) livenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ALIVE"))
}
