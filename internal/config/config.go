package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Network  string `yaml:"network"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// DatabasesConfig maps switch databases to redis database numbers
type DatabasesConfig struct {
	App      int `yaml:"app"`
	Counters int `yaml:"counters"`
	Config   int `yaml:"config"`
	Flex     int `yaml:"flex"`
}

type PollConfig struct {
	Interval            time.Duration `yaml:"interval"`
	MaxAttempts         int           `yaml:"max_attempts"`
	MaxQueriesPerSecond float64       `yaml:"max_queries_per_second"`
}

// TrapConfig names the trap group under test and where its counters live
type TrapConfig struct {
	CoppGroup      string   `yaml:"copp_group"`
	Traps          []string `yaml:"traps"`
	FlexGroup      string   `yaml:"flex_group"`       // CONFIG_DB FLEX_COUNTER_TABLE entry
	StatFamily     string   `yaml:"stat_family"`      // FLEX_COUNTER_DB group / id-list key part
	NameMap        string   `yaml:"name_map"`         // COUNTERS_DB name -> oid map
	PollIntervalMs int      `yaml:"poll_interval_ms"` // interval written by the interval check
}

type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

type Config struct {
	Redis         RedisConfig     `yaml:"redis"`
	Databases     DatabasesConfig `yaml:"databases"`
	Poll          PollConfig      `yaml:"poll"`
	Trap          TrapConfig      `yaml:"trap"`
	InfluxDB      InfluxDBConfig  `yaml:"influxdb"`
	HealthPort    int             `yaml:"health_port"`
	WatchInterval time.Duration   `yaml:"watch_interval"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw struct {
		Redis     RedisConfig `yaml:"redis"`
		Databases struct {
			App      *int `yaml:"app"`
			Counters *int `yaml:"counters"`
			Config   *int `yaml:"config"`
			Flex     *int `yaml:"flex"`
		} `yaml:"databases"`
		Poll struct {
			Interval            string  `yaml:"interval"`
			MaxAttempts         *int    `yaml:"max_attempts"`
			MaxQueriesPerSecond float64 `yaml:"max_queries_per_second"`
		} `yaml:"poll"`
		Trap          TrapConfig     `yaml:"trap"`
		InfluxDB      InfluxDBConfig `yaml:"influxdb"`
		HealthPort    int            `yaml:"health_port"`
		WatchInterval string         `yaml:"watch_interval"`
	}

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.InfluxDB = raw.InfluxDB
	if raw.Redis.Addr != "" {
		cfg.Redis.Addr = raw.Redis.Addr
	}
	if raw.Redis.Network != "" {
		cfg.Redis.Network = raw.Redis.Network
	}
	cfg.Redis.Password = raw.Redis.Password
	setInt(&cfg.Databases.App, raw.Databases.App)
	setInt(&cfg.Databases.Counters, raw.Databases.Counters)
	setInt(&cfg.Databases.Config, raw.Databases.Config)
	setInt(&cfg.Databases.Flex, raw.Databases.Flex)

	if raw.Poll.Interval != "" {
		if cfg.Poll.Interval, err = time.ParseDuration(raw.Poll.Interval); err != nil {
			return nil, fmt.Errorf("poll.interval: %w", err)
		}
	}
	// An explicit 0 is kept so Validate rejects it
	setInt(&cfg.Poll.MaxAttempts, raw.Poll.MaxAttempts)
	cfg.Poll.MaxQueriesPerSecond = raw.Poll.MaxQueriesPerSecond

	if raw.WatchInterval != "" {
		if cfg.WatchInterval, err = time.ParseDuration(raw.WatchInterval); err != nil {
			return nil, fmt.Errorf("watch_interval: %w", err)
		}
	}
	if raw.HealthPort != 0 {
		cfg.HealthPort = raw.HealthPort
	}

	mergeTrap(&cfg.Trap, raw.Trap)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration of a stock switch with the trap group from the COPP test setup
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Network: "tcp",
			Addr:    "127.0.0.1:6379",
		},
		Databases: DatabasesConfig{
			App:      0,
			Counters: 2,
			Config:   4,
			Flex:     5,
		},
		Poll: PollConfig{
			Interval:    1 * time.Second,
			MaxAttempts: 20,
		},
		Trap: TrapConfig{
			CoppGroup:      "group1",
			Traps:          []string{"arp", "dhcp"},
			FlexGroup:      "FLOW_CNT_TRAP",
			StatFamily:     "FLOW_CNT_TRAP_STAT",
			NameMap:        "COUNTERS_TRAP_NAME_MAP",
			PollIntervalMs: 10000,
		},
		HealthPort:    8080,
		WatchInterval: 5 * time.Minute,
	}
}

// setInt overwrites dst only when the key was present in the file
func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func mergeTrap(dst *TrapConfig, src TrapConfig) {
	if src.CoppGroup != "" {
		dst.CoppGroup = src.CoppGroup
	}
	if len(src.Traps) > 0 {
		dst.Traps = src.Traps
	}
	if src.FlexGroup != "" {
		dst.FlexGroup = src.FlexGroup
	}
	if src.StatFamily != "" {
		dst.StatFamily = src.StatFamily
	}
	if src.NameMap != "" {
		dst.NameMap = src.NameMap
	}
	if src.PollIntervalMs != 0 {
		dst.PollIntervalMs = src.PollIntervalMs
	}
}

// Validate rejects configurations the poller cannot terminate or address with
func (c *Config) Validate() error {
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be positive, got %d", c.Poll.MaxAttempts)
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval cannot be negative, got %v", c.Poll.Interval)
	}
	if c.Poll.MaxQueriesPerSecond < 0 {
		return fmt.Errorf("poll.max_queries_per_second cannot be negative, got %v", c.Poll.MaxQueriesPerSecond)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr cannot be empty")
	}
	if c.Trap.CoppGroup == "" {
		return fmt.Errorf("trap.copp_group cannot be empty")
	}
	if len(c.Trap.Traps) == 0 {
		return fmt.Errorf("trap.traps cannot be empty")
	}
	if c.Trap.FlexGroup == "" {
		return fmt.Errorf("trap.flex_group cannot be empty")
	}
	if c.Trap.StatFamily == "" {
		return fmt.Errorf("trap.stat_family cannot be empty")
	}
	if c.Trap.NameMap == "" {
		return fmt.Errorf("trap.name_map cannot be empty")
	}
	if c.Trap.PollIntervalMs <= 0 {
		return fmt.Errorf("trap.poll_interval_ms must be positive, got %d", c.Trap.PollIntervalMs)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %v", c.WatchInterval)
	}
	if c.HealthPort < 0 || c.HealthPort > 65535 {
		return fmt.Errorf("health_port out of range: %d", c.HealthPort)
	}
	return nil
}
