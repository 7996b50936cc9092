package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, pattern, body string) string {
	t.Helper()
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := f.WriteString(body); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestLoadConfigValid(t *testing.T) {
	path := writeTempConfig(t, "config_test_*.yml", `redis:
  addr: "10.0.0.1:6379"
  password: "secret"
databases:
  app: 0
  counters: 2
  config: 4
  flex: 5
poll:
  interval: "500ms"
  max_attempts: 10
  max_queries_per_second: 50
trap:
  copp_group: "queue4_group3"
  traps: ["arp_req", "arp_resp", "dhcp"]
  flex_group: "FLOW_CNT_TRAP"
  stat_family: "FLOW_CNT_TRAP_STAT"
  name_map: "COUNTERS_TRAP_NAME_MAP"
  poll_interval_ms: 2000
influxdb:
  url: "http://localhost:8086"
  token: "token"
  org: "org"
  bucket: "bucket"
health_port: 9100
watch_interval: "1m"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Redis.Addr != "10.0.0.1:6379" || cfg.Redis.Password != "secret" {
		t.Errorf("redis not parsed correctly: %+v", cfg.Redis)
	}
	if cfg.Redis.Network != "tcp" {
		t.Errorf("expected default network tcp, got %q", cfg.Redis.Network)
	}
	if cfg.Poll.Interval != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 10 {
		t.Errorf("expected 10 attempts, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Poll.MaxQueriesPerSecond != 50 {
		t.Errorf("expected 50 qps, got %v", cfg.Poll.MaxQueriesPerSecond)
	}
	if len(cfg.Trap.Traps) != 3 || cfg.Trap.Traps[0] != "arp_req" {
		t.Errorf("traps not parsed correctly: %v", cfg.Trap.Traps)
	}
	if cfg.Trap.CoppGroup != "queue4_group3" || cfg.Trap.PollIntervalMs != 2000 {
		t.Errorf("trap not parsed correctly: %+v", cfg.Trap)
	}
	if cfg.HealthPort != 9100 {
		t.Errorf("expected health port 9100, got %d", cfg.HealthPort)
	}
	if cfg.WatchInterval.String() != "1m0s" {
		t.Errorf("expected 1m, got %v", cfg.WatchInterval)
	}
	if cfg.InfluxDB.URL != "http://localhost:8086" {
		t.Errorf("influxdb not parsed correctly: %+v", cfg.InfluxDB)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeTempConfig(t, "config_test_invalid_*.yml", "not: valid: yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Errorf("expected error for invalid yaml")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/trapcheck.yml"); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, "config_test_defaults_*.yml", `redis:
  addr: "127.0.0.1:6379"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Poll.Interval != time.Second {
		t.Errorf("expected poll interval default 1s, got %v", cfg.Poll.Interval)
	}
	if cfg.Poll.MaxAttempts != 20 {
		t.Errorf("expected max_attempts default 20, got %d", cfg.Poll.MaxAttempts)
	}
	if cfg.Databases.Counters != 2 || cfg.Databases.Config != 4 || cfg.Databases.Flex != 5 {
		t.Errorf("unexpected database defaults: %+v", cfg.Databases)
	}
	if cfg.Trap.StatFamily != "FLOW_CNT_TRAP_STAT" || cfg.Trap.NameMap != "COUNTERS_TRAP_NAME_MAP" {
		t.Errorf("unexpected trap defaults: %+v", cfg.Trap)
	}
	if cfg.Trap.FlexGroup != "FLOW_CNT_TRAP" {
		t.Errorf("expected flex_group default FLOW_CNT_TRAP, got %s", cfg.Trap.FlexGroup)
	}
	if cfg.InfluxDB.URL != "" {
		t.Errorf("expected influxdb disabled by default, got %s", cfg.InfluxDB.URL)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeTempConfig(t, "config_test_duration_*.yml", `poll:
  interval: "soon"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected error for unparseable poll.interval")
	}
}

func TestLoadConfigPartialDatabases(t *testing.T) {
	path := writeTempConfig(t, "config_test_partial_db_*.yml", `databases:
  flex: 6
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := DatabasesConfig{App: 0, Counters: 2, Config: 4, Flex: 6}
	if cfg.Databases != want {
		t.Errorf("databases = %+v, want %+v", cfg.Databases, want)
	}
}

func TestLoadConfigExplicitZeroAttempts(t *testing.T) {
	path := writeTempConfig(t, "config_test_zero_attempts_*.yml", `poll:
  max_attempts: 0
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected max_attempts: 0 to be rejected")
	}
	if !strings.Contains(err.Error(), "poll.max_attempts") {
		t.Errorf("expected poll.max_attempts error, got %v", err)
	}
}
