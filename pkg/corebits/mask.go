// Package corebits holds the process-wide worker-core mask.
//
// The original dataplane derived a raw uint64 lcore_mask from the netif
// layer once at startup and tested it with `lcore_mask & (1L << cid)`
// guarded by a hard-coded `cid > 63` bound. Per the redesign flag in the
// specification, Mask is authoritative on its own: it is built from
// whatever the network layer reports enabled and callers range over it
// with Cores(), so a mask wider or narrower than 64 bits' worth of cores
// never needs a magic constant to stay correct.
package corebits

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Mask is the immutable set of worker cores the dataplane schedules
// packet-processing on. It is published once during initialization and
// read-only thereafter, so no synchronization is required after Set.
type Mask struct {
	mu    sync.RWMutex
	cores sets.Int
}

// Global is the process-wide EnabledCoreMask.
var Global = &Mask{}

// Set publishes the enabled core ids. Intended to be called exactly once
// during process startup, before any worker or control-plane goroutine
// reads it.
func (m *Mask) Set(cores []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cores = sets.NewInt(cores...)
}

// Enabled reports whether core is a worker core eligible to own
// LocalAddress entries and SA-pool sub-pools.
func (m *Mask) Enabled(core int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cores.Has(core)
}

// Cores returns the enabled core ids in ascending order.
func (m *Mask) Cores() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cores.List()
}

// Len returns the number of enabled worker cores.
func (m *Mask) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cores.Len()
}

func (m *Mask) String() string {
	return fmt.Sprintf("%v", m.Cores())
}
