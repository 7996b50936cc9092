// Package dvs holds the connections to the device under test.
//
// A Device is passed explicitly to every check instead of living in
// package-level state, so tests can build one from in-memory stores.
package dvs

import (
	"context"
	"errors"
	"fmt"

	"github.com/Junchao-Mellanox/sonic-swss/internal/config"
	"github.com/Junchao-Mellanox/sonic-swss/internal/swssdb"
	"github.com/rs/zerolog/log"
)

// Device bundles the switch databases a trap counter check touches
type Device struct {
	app      swssdb.Conn
	config   swssdb.Conn
	counters swssdb.Conn
	flex     swssdb.Conn
}

// New builds a Device from already opened connections
func New(app, cfg, counters, flex swssdb.Conn) *Device {
	return &Device{
		app:      app,
		config:   cfg,
		counters: counters,
		flex:     flex,
	}
}

// Connect dials APPL_DB, CONFIG_DB, COUNTERS_DB and FLEX_COUNTER_DB on the switch
func Connect(ctx context.Context, rc config.RedisConfig, dbs config.DatabasesConfig) (*Device, error) {
	targets := []struct {
		name string
		db   int
	}{
		{"APPL_DB", dbs.App},
		{"CONFIG_DB", dbs.Config},
		{"COUNTERS_DB", dbs.Counters},
		{"FLEX_COUNTER_DB", dbs.Flex},
	}

	conns := make([]swssdb.Conn, 0, len(targets))
	for _, t := range targets {
		conn, err := swssdb.Dial(ctx, swssdb.Options{
			Network:  rc.Network,
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       t.db,
		})
		if err != nil {
			for _, opened := range conns {
				opened.Close()
			}
			return nil, fmt.Errorf("connect %s: %w", t.name, err)
		}
		log.Debug().
			Str("db", t.name).
			Int("index", t.db).
			Str("addr", rc.Addr).
			Msg("Connected to switch database")
		conns = append(conns, conn)
	}

	return New(conns[0], conns[1], conns[2], conns[3]), nil
}

// AppDB returns the APPL_DB connection
func (d *Device) AppDB() swssdb.Conn { return d.app }

// ConfigDB returns the CONFIG_DB connection
func (d *Device) ConfigDB() swssdb.Conn { return d.config }

// CountersDB returns the COUNTERS_DB connection
func (d *Device) CountersDB() swssdb.Conn { return d.counters }

// FlexDB returns the FLEX_COUNTER_DB connection
func (d *Device) FlexDB() swssdb.Conn { return d.flex }

// Ping checks every database connection
func (d *Device) Ping(ctx context.Context) error {
	for name, conn := range d.named() {
		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close closes every database connection
func (d *Device) Close() error {
	var errs []error
	for name, conn := range d.named() {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Device) named() map[string]swssdb.Conn {
	return map[string]swssdb.Conn{
		"APPL_DB":         d.app,
		"CONFIG_DB":       d.config,
		"COUNTERS_DB":     d.counters,
		"FLEX_COUNTER_DB": d.flex,
	}
}
