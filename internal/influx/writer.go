package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Writer handles InfluxDB v2 writes of trap counter check results
type Writer struct {
	client   influxdb2.Client     // InfluxDB client instance
	writeAPI api.WriteAPIBlocking // Blocking write API for synchronous writes
	org      string               // InfluxDB organization name
	bucket   string               // InfluxDB bucket name
}

// NewWriter creates a new InfluxDB writer with blocking write API
func NewWriter(url, token, org, bucket string) *Writer {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPIBlocking(org, bucket)
	return &Writer{
		client:   client,
		writeAPI: writeAPI,
		org:      org,
		bucket:   bucket,
	}
}

// CheckPoint builds the trap_counter_check point for one check result
func CheckPoint(runID, check, stat string, duration time.Duration, counters int, checkErr error, ts time.Time) *write.Point {
	p := influxdb2.NewPointWithMeasurement("trap_counter_check")
	p.AddTag("run_id", runID)
	p.AddTag("check", check)
	p.AddTag("stat", stat) // Low cardinality: one per counter family
	p.AddField("duration_ms", float64(duration.Milliseconds()))
	p.AddField("counters", counters)
	p.AddField("success", checkErr == nil)
	if checkErr != nil {
		p.AddField("error", checkErr.Error())
	}
	p.SetTime(ts)
	return p
}

// WriteCheckResult writes the outcome of a single check
func (w *Writer) WriteCheckResult(runID, check, stat string, duration time.Duration, counters int, checkErr error) error {
	p := CheckPoint(runID, check, stat, duration, counters, checkErr, time.Now())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return w.writeAPI.WritePoint(ctx, p)
}

// HealthCheck reports whether the InfluxDB server is reachable and healthy
func (w *Writer) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	health, err := w.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if health.Status != "pass" {
		return fmt.Errorf("influxdb unhealthy: %s", health.Status)
	}
	return nil
}

// Close terminates the InfluxDB client connection
func (w *Writer) Close() {
	w.client.Close()
}
