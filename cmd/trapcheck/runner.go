package main

import (
	"context"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/metrics"
	"github.com/Junchao-Mellanox/sonic-swss/internal/state"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Suite runs trap counter checks
type Suite interface {
	Run(ctx context.Context, selected []string) []state.Result
}

// ResultWriter persists check results to external storage
type ResultWriter interface {
	WriteCheckResult(runID, check, stat string, duration time.Duration, counters int, checkErr error) error
}

// runner executes the suite and fans results out to the registry, metrics and the optional writer
type runner struct {
	suite   Suite
	checks  []string
	results *state.Manager
	metrics *metrics.Collector
	writer  ResultWriter // nil when InfluxDB is not configured
}

// runOnce executes one pass of the suite and reports whether every check passed
func (r *runner) runOnce(ctx context.Context) (string, bool) {
	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Strs("checks", r.checks).Msg("Starting trap counter checks")

	ok := true
	for _, res := range r.suite.Run(ctx, r.checks) {
		if !res.OK() {
			ok = false
		}
		r.results.Record(res)
		if r.metrics != nil {
			r.metrics.Observe(res)
		}
		if r.writer != nil {
			if err := r.writer.WriteCheckResult(runID, res.Check, res.Stat, res.Duration, res.Counters, res.Err); err != nil {
				log.Error().
					Str("run_id", runID).
					Str("check", res.Check).
					Err(err).
					Msg("Failed to write check result")
			}
		}
	}

	log.Info().Str("run_id", runID).Bool("passed", ok).Msg("Trap counter checks finished")
	return runID, ok
}

// watch reruns the suite every interval until ctx is done
func (r *runner) watch(ctx context.Context, interval time.Duration) {
	r.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Shutdown signal received. Stopping watch loop.")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}
