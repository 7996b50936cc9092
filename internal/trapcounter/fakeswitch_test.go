package trapcounter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Junchao-Mellanox/sonic-swss/internal/config"
	"github.com/Junchao-Mellanox/sonic-swss/internal/dvs"
	"github.com/Junchao-Mellanox/sonic-swss/internal/swssdb"
	"github.com/Junchao-Mellanox/sonic-swss/internal/verify"
)

// fakeSwitch plays the part of the orchagent and flex counter subsystem: it
// watches the COPP and flex counter configuration and reflects it into
// COUNTERS_DB and FLEX_COUNTER_DB.
type fakeSwitch struct {
	app, cfg, counters, flex *swssdb.MemStore
	trap                     config.TrapConfig

	mu      sync.Mutex
	oids    map[string]string // trap -> oid, stable across re-adds
	nextOID int
	frozen  bool // stop reflecting configuration changes
}

func newFakeSwitch(trap config.TrapConfig) *fakeSwitch {
	return &fakeSwitch{
		app:      swssdb.NewMemStore(),
		cfg:      swssdb.NewMemStore(),
		counters: swssdb.NewMemStore(),
		flex:     swssdb.NewMemStore(),
		trap:     trap,
		oids:     make(map[string]string),
	}
}

func (s *fakeSwitch) device() *dvs.Device {
	return dvs.New(s.app, s.cfg, s.counters, s.flex)
}

func (s *fakeSwitch) freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// run reflects configuration every tick until ctx is done
func (s *fakeSwitch) run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile()
		}
	}
}

func (s *fakeSwitch) reconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return
	}
	ctx := context.Background()

	group, _ := s.cfg.GetAll(ctx, FlexCounterTable+"|"+s.trap.FlexGroup)
	groupKey := FlexCounterGroupTable + ":" + s.trap.StatFamily
	if len(group) > 0 {
		_ = s.flex.SetFields(ctx, groupKey, group)
	}
	if group[FieldStatus] != StatusEnable && group[FieldStatus] != StatusDisable {
		return
	}

	copp, _ := s.app.GetAll(ctx, CoppTable+":"+s.trap.CoppGroup)
	wanted := make(map[string]bool)
	for _, t := range strings.Split(copp[FieldTrapIDs], ",") {
		if t != "" {
			wanted[t] = true
		}
	}

	current, _ := s.counters.GetAll(ctx, s.trap.NameMap)
	for name, oid := range current {
		if !wanted[name] {
			s.counters.DeleteField(s.trap.NameMap, name)
			_ = s.flex.Delete(ctx, verify.IDListKey(s.trap.StatFamily, oid))
		}
	}
	for t := range wanted {
		oid, ok := s.oids[t]
		if !ok {
			s.nextOID++
			oid = fmt.Sprintf("oid:0x%x", s.nextOID)
			s.oids[t] = oid
		}
		_ = s.counters.SetFields(ctx, s.trap.NameMap, map[string]string{t: oid})
		_ = s.flex.SetFields(ctx, verify.IDListKey(s.trap.StatFamily, oid), map[string]string{
			"FLOW_COUNTER_ID_LIST": oid,
		})
	}
}
