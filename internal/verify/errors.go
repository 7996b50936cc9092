package verify

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by every *TimeoutError
	ErrTimeout = errors.New("timed out waiting for counters")
	// ErrNotFound means a counter map is missing or has no entries
	ErrNotFound = errors.New("counter map not found")
)

// TimeoutError reports a condition that never held within the poll bound
type TimeoutError struct {
	Condition string        // what was awaited, e.g. "id list populated"
	Name      string        // counter name, empty for map level waits
	OID       string        // counter oid, empty for map level waits
	Key       string        // store key that was polled
	Attempts  int           // queries issued
	Interval  time.Duration // pause between queries
}

func (e *TimeoutError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("timeout: %s for %s (%s) at %s not met after %d attempts (interval %v)",
			e.Condition, e.Name, e.OID, e.Key, e.Attempts, e.Interval)
	}
	return fmt.Sprintf("timeout: %s at %s not met after %d attempts (interval %v)",
		e.Condition, e.Key, e.Attempts, e.Interval)
}

// Is lets errors.Is(err, ErrTimeout) match
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
