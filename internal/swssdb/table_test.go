package swssdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSeparatorFor(t *testing.T) {
	tests := []struct {
		name string
		db   int
		want string
	}{
		{"APPL_DB", ApplDB, ":"},
		{"COUNTERS_DB", CountersDB, ":"},
		{"CONFIG_DB", ConfigDB, "|"},
		{"FLEX_COUNTER_DB", FlexCounterDB, ":"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeparatorFor(tt.db); got != tt.want {
				t.Errorf("SeparatorFor(%d) = %q, want %q", tt.db, got, tt.want)
			}
		})
	}
}

func TestTableKey(t *testing.T) {
	store := NewMemStore()
	cfg := NewTable(store, ConfigDB, "FLEX_COUNTER_TABLE")
	if got := cfg.Key("FLOW_CNT_TRAP"); got != "FLEX_COUNTER_TABLE|FLOW_CNT_TRAP" {
		t.Errorf("config key = %q", got)
	}
	app := NewTable(store, ApplDB, "COPP_TABLE")
	if got := app.Key("group1"); got != "COPP_TABLE:group1" {
		t.Errorf("app key = %q", got)
	}
}

func TestTableCreateWritesFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	tbl := NewTable(store, ApplDB, "COPP_TABLE")

	if err := tbl.CreateEntry(ctx, "group1", map[string]string{"trap_ids": "arp,dhcp", "queue": "4"}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.CreateEntry(ctx, "group1", map[string]string{"trap_ids": "arp"}); err != nil {
		t.Fatal(err)
	}

	got, err := tbl.GetEntry(ctx, "group1")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"trap_ids": "arp", "queue": "4"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestTableUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	tbl := NewTable(store, ConfigDB, "FLEX_COUNTER_TABLE")

	if err := tbl.UpdateEntry(ctx, "FLOW_CNT_TRAP", map[string]string{"FLEX_COUNTER_STATUS": "enable"}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.UpdateEntry(ctx, "FLOW_CNT_TRAP", map[string]string{"POLL_INTERVAL": "2000"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetAll(ctx, "FLEX_COUNTER_TABLE|FLOW_CNT_TRAP")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"FLEX_COUNTER_STATUS": "enable", "POLL_INTERVAL": "2000"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestTableDeleteAndMissingEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	tbl := NewTable(store, ApplDB, "COPP_TABLE")

	if err := tbl.CreateEntry(ctx, "group1", map[string]string{"trap_ids": "arp"}); err != nil {
		t.Fatal(err)
	}
	if err := tbl.DeleteEntry(ctx, "group1"); err != nil {
		t.Fatal(err)
	}
	if store.Exists("COPP_TABLE:group1") {
		t.Errorf("expected entry to be deleted")
	}

	got, err := tbl.GetEntry(ctx, "group1")
	if err != nil {
		t.Fatalf("missing entry should not be an error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty entry, got %v", got)
	}
}

func TestTableConnectionErrorWrapped(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	store.SetDown(true)
	tbl := NewTable(store, ApplDB, "COPP_TABLE")

	_, err := tbl.GetEntry(ctx, "group1")
	if !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
	if err := tbl.UpdateEntry(ctx, "group1", map[string]string{"a": "b"}); !errors.Is(err, ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestMemStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	if err := store.SetFields(ctx, "k", map[string]string{"f": "v"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetAll(ctx, "k")
	got["f"] = "mutated"

	again, _ := store.GetAll(ctx, "k")
	if again["f"] != "v" {
		t.Errorf("store was mutated through returned map")
	}
	if store.Calls("k") != 2 {
		t.Errorf("expected 2 reads, got %d", store.Calls("k"))
	}
}

func TestMemStoreDeleteField(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	_ = store.SetFields(ctx, "map", map[string]string{"ARP": "oid:0x1", "DHCP": "oid:0x2"})

	store.DeleteField("map", "ARP")
	if !store.Exists("map") {
		t.Fatalf("expected key to remain with one field")
	}
	store.DeleteField("map", "DHCP")
	if store.Exists("map") {
		t.Errorf("expected key to be dropped once empty")
	}
}
