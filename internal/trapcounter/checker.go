// Package trapcounter drives trap counter scenarios against a switch.
//
// A scenario writes the COPP trap group and the flex counter group
// configuration, then uses the verify poller to wait for the switch to
// reflect the change in COUNTERS_DB and FLEX_COUNTER_DB.
package trapcounter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/config"
	"github.com/Junchao-Mellanox/sonic-swss/internal/dvs"
	"github.com/Junchao-Mellanox/sonic-swss/internal/state"
	"github.com/Junchao-Mellanox/sonic-swss/internal/swssdb"
	"github.com/Junchao-Mellanox/sonic-swss/internal/verify"
	"github.com/rs/zerolog/log"
)

// Table and field names on the switch
const (
	CoppTable             = "COPP_TABLE"
	FlexCounterTable      = "FLEX_COUNTER_TABLE"
	FlexCounterGroupTable = "FLEX_COUNTER_GROUP_TABLE"

	FieldTrapIDs      = "trap_ids"
	FieldStatus       = "FLEX_COUNTER_STATUS"
	FieldPollInterval = "POLL_INTERVAL"

	StatusEnable  = "enable"
	StatusDisable = "disable"
)

// Check names, in the order Run executes them
const (
	CheckAdd      = "add"
	CheckInterval = "interval"
	CheckStatus   = "status"
	CheckRemove   = "remove"
	CheckCleanup  = "cleanup"
)

// Checks lists the selectable checks
var Checks = []string{CheckAdd, CheckInterval, CheckStatus, CheckRemove}

// Checker runs trap counter scenarios on one device
type Checker struct {
	dev     *dvs.Device
	poller  *verify.Poller
	cfg     config.TrapConfig
	copp    *swssdb.Table // APPL_DB COPP_TABLE
	flexCfg *swssdb.Table // CONFIG_DB FLEX_COUNTER_TABLE
}

// NewChecker creates a Checker for the trap group described by cfg
func NewChecker(dev *dvs.Device, poller *verify.Poller, cfg config.TrapConfig) *Checker {
	return &Checker{
		dev:     dev,
		poller:  poller,
		cfg:     cfg,
		copp:    swssdb.NewTable(dev.AppDB(), swssdb.ApplDB, CoppTable),
		flexCfg: swssdb.NewTable(dev.ConfigDB(), swssdb.ConfigDB, FlexCounterTable),
	}
}

// GroupKey returns the FLEX_COUNTER_DB key of the flex counter group under test
func (c *Checker) GroupKey() string {
	return swssdb.JoinKey(swssdb.DefaultSeparator, FlexCounterGroupTable, c.cfg.StatFamily)
}

// Add configures the COPP group with every configured trap, enables the flex
// counter group and waits until each trap has a populated counter.
func (c *Checker) Add(ctx context.Context) (verify.CounterGroupMap, error) {
	traps := append([]string(nil), c.cfg.Traps...)
	if err := c.copp.CreateEntry(ctx, c.cfg.CoppGroup, map[string]string{
		FieldTrapIDs: strings.Join(traps, ","),
	}); err != nil {
		return nil, err
	}

	if err := c.flexCfg.UpdateEntry(ctx, c.cfg.FlexGroup, map[string]string{
		FieldStatus: StatusEnable,
	}); err != nil {
		return nil, err
	}

	// Counters are registered asynchronously once the group is enabled
	if _, err := c.poller.WaitForCounterMap(ctx, c.cfg.NameMap, "all traps registered", func(m verify.CounterGroupMap) bool {
		for _, trap := range traps {
			if _, ok := lookup(m, trap); !ok {
				return false
			}
		}
		return true
	}); err != nil {
		return nil, err
	}

	return c.poller.VerifyFlexCountersPopulated(ctx, c.cfg.NameMap, c.cfg.StatFamily)
}

// Remove drops trap from the COPP group and waits until its counter and id list are gone
func (c *Checker) Remove(ctx context.Context, trap string) error {
	counters, err := c.poller.ReadCounterMap(ctx, c.cfg.NameMap)
	if err != nil {
		return err
	}
	name, ok := lookup(counters, trap)
	if !ok {
		return fmt.Errorf("trap %s in %s: %w", trap, c.cfg.NameMap, verify.ErrNotFound)
	}
	oid := counters[name]

	entry, err := c.copp.GetEntry(ctx, c.cfg.CoppGroup)
	if err != nil {
		return err
	}
	var remaining []string
	for _, t := range strings.Split(entry[FieldTrapIDs], ",") {
		if t != "" && !strings.EqualFold(t, trap) {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) == 0 {
		err = c.copp.DeleteEntry(ctx, c.cfg.CoppGroup)
	} else {
		err = c.copp.UpdateEntry(ctx, c.cfg.CoppGroup, map[string]string{
			FieldTrapIDs: strings.Join(remaining, ","),
		})
	}
	if err != nil {
		return err
	}

	if _, err := c.poller.WaitForCounterMap(ctx, c.cfg.NameMap, name+" unregistered", func(m verify.CounterGroupMap) bool {
		_, present := m[name]
		return !present
	}); err != nil {
		return err
	}
	return c.poller.WaitForIDListRemoved(ctx, c.cfg.StatFamily, name, oid)
}

// UpdateStatus enables or disables the flex counter group and waits for the switch to apply it
func (c *Checker) UpdateStatus(ctx context.Context, enable bool) error {
	status := StatusDisable
	if enable {
		status = StatusEnable
	}
	if err := c.flexCfg.UpdateEntry(ctx, c.cfg.FlexGroup, map[string]string{FieldStatus: status}); err != nil {
		return err
	}
	return c.poller.WaitForField(ctx, c.dev.FlexDB(), c.GroupKey(), FieldStatus, status)
}

// UpdateInterval sets the counter poll interval of the group and waits for the switch to apply it
func (c *Checker) UpdateInterval(ctx context.Context, ms int) error {
	if ms <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", ms)
	}
	value := strconv.Itoa(ms)
	if err := c.flexCfg.UpdateEntry(ctx, c.cfg.FlexGroup, map[string]string{FieldPollInterval: value}); err != nil {
		return err
	}
	return c.poller.WaitForField(ctx, c.dev.FlexDB(), c.GroupKey(), FieldPollInterval, value)
}

// Cleanup removes the COPP group and leaves the flex counter group enabled
func (c *Checker) Cleanup(ctx context.Context) error {
	if err := c.copp.DeleteEntry(ctx, c.cfg.CoppGroup); err != nil {
		return err
	}
	return c.flexCfg.UpdateEntry(ctx, c.cfg.FlexGroup, map[string]string{FieldStatus: StatusEnable})
}

// Run executes the selected checks in order and returns one result per executed check.
// An empty selection runs every check. The add check always runs first because the
// others depend on its configuration, and cleanup always runs last. A failed add
// skips the remaining checks.
func (c *Checker) Run(ctx context.Context, selected []string) []state.Result {
	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[s] = true
	}
	enabled := func(name string) bool { return len(want) == 0 || want[name] }

	var results []state.Result
	record := func(name string, counters int, start time.Time, err error) state.Result {
		r := state.Result{
			Check:    name,
			Stat:     c.cfg.StatFamily,
			Counters: counters,
			Duration: time.Since(start),
			Err:      err,
			Time:     time.Now(),
		}
		l := log.With().Str("check", name).Str("stat", c.cfg.StatFamily).Logger()
		if err != nil {
			l.Error().Err(err).Dur("duration", r.Duration).Msg("Trap counter check failed")
		} else {
			l.Info().Int("counters", counters).Dur("duration", r.Duration).Msg("Trap counter check passed")
		}
		results = append(results, r)
		return r
	}

	start := time.Now()
	counters, err := c.Add(ctx)
	added := record(CheckAdd, len(counters), start, err)

	if added.OK() {
		if enabled(CheckInterval) {
			start = time.Now()
			record(CheckInterval, len(counters), start, c.UpdateInterval(ctx, c.cfg.PollIntervalMs))
		}
		if enabled(CheckStatus) {
			start = time.Now()
			err := c.UpdateStatus(ctx, false)
			if err == nil {
				err = c.UpdateStatus(ctx, true)
			}
			record(CheckStatus, len(counters), start, err)
		}
		if enabled(CheckRemove) {
			start = time.Now()
			record(CheckRemove, len(counters)-1, start, c.Remove(ctx, c.cfg.Traps[0]))
		}
	}

	// Cleanup must run even when ctx was cancelled mid-check
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	start = time.Now()
	record(CheckCleanup, 0, start, c.Cleanup(cleanupCtx))

	return results
}

// ValidateChecks rejects unknown check names
func ValidateChecks(selected []string) error {
	for _, s := range selected {
		known := false
		for _, c := range Checks {
			if s == c {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown check %q (valid: %s)", s, strings.Join(Checks, ", "))
		}
	}
	return nil
}

// lookup finds the counter name matching trap, ignoring case
func lookup(m verify.CounterGroupMap, trap string) (string, bool) {
	if _, ok := m[trap]; ok {
		return trap, true
	}
	for name := range m {
		if strings.EqualFold(name, trap) {
			return name, true
		}
	}
	return "", false
}
