package swssdb

import (
	"context"
	"errors"
	"strings"
)

// Redis database numbers used by the switch
const (
	ApplDB        = 0
	CountersDB    = 2
	ConfigDB      = 4
	FlexCounterDB = 5
)

// Key separators. CONFIG_DB uses "|", every other database uses ":".
const (
	DefaultSeparator = ":"
	ConfigSeparator  = "|"
)

// ErrConnection is wrapped by every error caused by an unreachable or failing store
var ErrConnection = errors.New("switch database connection error")

// Store is the read capability the verification poller depends on
type Store interface {
	// GetAll returns every field of the hash at key. A missing key yields an empty map.
	GetAll(ctx context.Context, key string) (map[string]string, error)
}

// Writer mutates hashes in a store
type Writer interface {
	SetFields(ctx context.Context, key string, fields map[string]string) error
	Delete(ctx context.Context, key string) error
}

// Conn is a full connection to one switch database
type Conn interface {
	Store
	Writer
	Ping(ctx context.Context) error
	Close() error
}

// SeparatorFor returns the key separator used by the given database number
func SeparatorFor(db int) string {
	if db == ConfigDB {
		return ConfigSeparator
	}
	return DefaultSeparator
}

// JoinKey joins key parts with sep
func JoinKey(sep string, parts ...string) string {
	return strings.Join(parts, sep)
}
