// Package verify confirms that counters registered by the switch's
// flexible counter subsystem show up in its databases.
//
// Every wait is a bounded loop: the first query runs at once, later
// queries are spaced by Options.Interval, and after Options.MaxAttempts
// queries the wait fails with a *TimeoutError. The poller never writes.
package verify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/config"
	"github.com/Junchao-Mellanox/sonic-swss/internal/swssdb"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultInterval    = 1 * time.Second
	DefaultMaxAttempts = 20

	// FlexCounterTable prefixes id-list keys in FLEX_COUNTER_DB
	FlexCounterTable = "FLEX_COUNTER_TABLE"
)

// CounterGroupMap maps counter names to the oids of their counter objects
type CounterGroupMap map[string]string

// Names returns the counter names in sorted order
func (m CounterGroupMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options bounds every wait of a Poller
type Options struct {
	Interval    time.Duration // pause between queries; zero polls back to back
	MaxAttempts int           // queries per wait; <= 0 selects DefaultMaxAttempts
	Limiter     *rate.Limiter // optional cap on queries per second across waits
}

// DefaultOptions returns a 1s interval with 20 attempts and no query rate cap
func DefaultOptions() Options {
	return Options{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts}
}

// OptionsFromConfig builds Options from the poll section of the configuration
func OptionsFromConfig(pc config.PollConfig) Options {
	opts := Options{Interval: pc.Interval, MaxAttempts: pc.MaxAttempts}
	if pc.MaxQueriesPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(pc.MaxQueriesPerSecond), 1)
	}
	return opts
}

// Poller waits for counter state to appear in the counters and flex counter databases
type Poller struct {
	counters    swssdb.Store
	flex        swssdb.Store
	interval    time.Duration
	maxAttempts int
	limiter     *rate.Limiter
}

// New creates a Poller reading name maps from counters and id lists from flex
func New(counters, flex swssdb.Store, opts Options) *Poller {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Interval < 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Poller{
		counters:    counters,
		flex:        flex,
		interval:    opts.Interval,
		maxAttempts: opts.MaxAttempts,
		limiter:     opts.Limiter,
	}
}

// IDListKey returns the FLEX_COUNTER_DB key holding the id list of oid in stat
func IDListKey(stat, oid string) string {
	return swssdb.JoinKey(swssdb.DefaultSeparator, FlexCounterTable, stat, oid)
}

// ReadCounterMap reads the name -> oid map at mapKey from COUNTERS_DB.
// A missing or empty map fails with ErrNotFound.
func (p *Poller) ReadCounterMap(ctx context.Context, mapKey string) (CounterGroupMap, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	fields, err := p.counters.GetAll(ctx, mapKey)
	if err != nil {
		return nil, fmt.Errorf("read counter map %s: %w", mapKey, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("counter map %s: %w", mapKey, ErrNotFound)
	}
	return CounterGroupMap(fields), nil
}

// VerifyFlexCountersPopulated reads the counter map at mapKey and waits until
// every (name, oid) entry has a populated id list under stat. Entries are
// checked in name order and the first failure is returned. An empty map is
// an ErrNotFound failure, not a vacuous success.
func (p *Poller) VerifyFlexCountersPopulated(ctx context.Context, mapKey, stat string) (CounterGroupMap, error) {
	counters, err := p.ReadCounterMap(ctx, mapKey)
	if err != nil {
		return nil, err
	}

	for _, name := range counters.Names() {
		if err := p.WaitForIDList(ctx, stat, name, counters[name]); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("map", mapKey).
		Str("stat", stat).
		Int("counters", len(counters)).
		Msg("Flex counters populated")
	return counters, nil
}

// WaitForIDList waits until the id list of oid under stat is non-empty
func (p *Poller) WaitForIDList(ctx context.Context, stat, name, oid string) error {
	key := IDListKey(stat, oid)
	return p.waitForKey(ctx, p.flex, key, name, oid, "id list populated", func(fields map[string]string) bool {
		return len(fields) > 0
	})
}

// WaitForIDListRemoved waits until the id list of oid under stat is gone
func (p *Poller) WaitForIDListRemoved(ctx context.Context, stat, name, oid string) error {
	key := IDListKey(stat, oid)
	return p.waitForKey(ctx, p.flex, key, name, oid, "id list removed", func(fields map[string]string) bool {
		return len(fields) == 0
	})
}

// WaitForField waits until field of the hash at key in store equals want
func (p *Poller) WaitForField(ctx context.Context, store swssdb.Store, key, field, want string) error {
	cond := fmt.Sprintf("%s == %q", field, want)
	return p.waitForKey(ctx, store, key, "", "", cond, func(fields map[string]string) bool {
		return fields[field] == want
	})
}

// WaitForCounterMap waits until the counter map at mapKey satisfies ready and returns it.
// Unlike ReadCounterMap an empty map is handed to ready rather than failing.
func (p *Poller) WaitForCounterMap(ctx context.Context, mapKey, condition string, ready func(CounterGroupMap) bool) (CounterGroupMap, error) {
	var last CounterGroupMap
	attempts, ok, err := p.poll(ctx, func(ctx context.Context) (bool, error) {
		fields, err := p.counters.GetAll(ctx, mapKey)
		if err != nil {
			return false, err
		}
		last = CounterGroupMap(fields)
		return ready(last), nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for %s at %s: %w", condition, mapKey, err)
	}
	if !ok {
		return nil, &TimeoutError{
			Condition: condition,
			Key:       mapKey,
			Attempts:  attempts,
			Interval:  p.interval,
		}
	}
	return last, nil
}

func (p *Poller) waitForKey(ctx context.Context, store swssdb.Store, key, name, oid, condition string, done func(map[string]string) bool) error {
	attempts, ok, err := p.poll(ctx, func(ctx context.Context) (bool, error) {
		fields, err := store.GetAll(ctx, key)
		if err != nil {
			return false, err
		}
		return done(fields), nil
	})
	if err != nil {
		if name != "" {
			return fmt.Errorf("wait for %s of %s (%s): %w", condition, name, oid, err)
		}
		return fmt.Errorf("wait for %s at %s: %w", condition, key, err)
	}
	if !ok {
		return &TimeoutError{
			Condition: condition,
			Name:      name,
			OID:       oid,
			Key:       key,
			Attempts:  attempts,
			Interval:  p.interval,
		}
	}

	log.Debug().
		Str("key", key).
		Str("name", name).
		Int("attempts", attempts).
		Msgf("Condition met: %s", condition)
	return nil
}

// poll runs check until it reports done, it errors, ctx ends or maxAttempts queries were made.
// ok is false only when the attempts ran out.
func (p *Poller) poll(ctx context.Context, check func(context.Context) (bool, error)) (attempts int, ok bool, err error) {
	// First query fires at once, later ones after interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return attempts, false, ctx.Err()
		case <-timer.C:
			if err := p.limiter.Wait(ctx); err != nil {
				return attempts, false, err
			}

			attempts++
			done, err := check(ctx)
			if err != nil {
				return attempts, false, err
			}
			if done {
				return attempts, true, nil
			}
			if attempts >= p.maxAttempts {
				return attempts, false, nil
			}

			log.Debug().
				Int("attempt", attempts).
				Int("max_attempts", p.maxAttempts).
				Dur("interval", p.interval).
				Msg("Condition not met yet, retrying")

			// Interval is time BETWEEN queries, not a fixed schedule
			timer.Reset(p.interval)
		}
	}
}
