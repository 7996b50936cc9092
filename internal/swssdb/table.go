package swssdb

import (
	"context"
	"fmt"
)

// Table addresses entries of one table in one database
type Table struct {
	conn Conn
	name string
	sep  string
}

// NewTable binds a table name to a connection using the separator of db
func NewTable(conn Conn, db int, name string) *Table {
	return &Table{conn: conn, name: name, sep: SeparatorFor(db)}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Key returns the full store key of entry
func (t *Table) Key(entry string) string {
	return JoinKey(t.sep, t.name, entry)
}

// CreateEntry writes fields to entry with a single HSET. Fields already on the
// entry and absent from fields are kept, so the key never disappears.
func (t *Table) CreateEntry(ctx context.Context, entry string, fields map[string]string) error {
	key := t.Key(entry)
	if err := t.conn.SetFields(ctx, key, fields); err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	return nil
}

// UpdateEntry merges fields into entry, creating it if needed
func (t *Table) UpdateEntry(ctx context.Context, entry string, fields map[string]string) error {
	key := t.Key(entry)
	if err := t.conn.SetFields(ctx, key, fields); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// DeleteEntry removes entry
func (t *Table) DeleteEntry(ctx context.Context, entry string) error {
	key := t.Key(entry)
	if err := t.conn.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// GetEntry returns the fields of entry, empty when it does not exist
func (t *Table) GetEntry(ctx context.Context, entry string) (map[string]string, error) {
	key := t.Key(entry)
	fields, err := t.conn.GetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return fields, nil
}
