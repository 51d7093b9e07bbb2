package event

import (
	"context"
	"sync"
)

// StaticSource holds the most recently reported system-state snapshot. The
// host (or an API client standing in for it) pushes snapshots; the runtime
// only ever reads the latest one.
type StaticSource struct {
	mu    sync.RWMutex
	state State
}

// NewStaticSource creates a source with a full battery and no asserted tags.
func NewStaticSource() *StaticSource {
	return &StaticSource{state: State{BatteryLevel: 100}}
}

// Set replaces the current snapshot.
func (s *StaticSource) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// Snapshot returns the latest snapshot.
func (s *StaticSource) Snapshot(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}
