package state

import (
	"sort"
	"sync"
	"time"
)

// Result is the outcome of one trap counter check
type Result struct {
	Check    string        // check name, e.g. "add"
	Stat     string        // stat family the check verified
	Counters int           // counters observed in the name map
	Duration time.Duration // wall time of the check including all poll attempts
	Err      error         // nil on success
	Time     time.Time     // completion time
}

// OK reports whether the check passed
func (r Result) OK() bool {
	return r.Err == nil
}

// Manager keeps the latest result of every check, safe for concurrent use
type Manager struct {
	results map[string]*Result // Map check names to their last result
	mu      sync.RWMutex       // Protects concurrent access to results map
}

// NewManager creates an empty result registry
func NewManager() *Manager {
	return &Manager{
		results: make(map[string]*Result),
	}
}

// Record stores r as the latest result of its check
func (m *Manager) Record(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	m.results[r.Check] = &r
}

// Get returns the latest result of check
func (m *Manager) Get(check string) (Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, exists := m.results[check]
	if !exists {
		return Result{}, false
	}
	return *r, true
}

// GetAll returns a copy of every latest result ordered by check name
func (m *Manager) GetAll() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Check < result[j].Check })
	return result
}

// Failing returns the names of checks whose latest result is a failure
func (m *Manager) Failing() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var failing []string
	for name, r := range m.results {
		if !r.OK() {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)
	return failing
}

// Count returns the number of checks with a recorded result
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.results)
}
