/*
Copyright 2026 The Allocator Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package laddr

import "math/rand"

// stepSize decides how many positions pick_laddr advances the cursor by.
//
// In port-mode, a deterministic one-step advance can synchronize with a
// round-robin (or weighted round-robin) real-server scheduler, so each
// real server ends up reached through predominantly one local IP -- which
// hurts per-RS fan-out. A small random perturbation breaks that
// resonance: 5% of selections advance by two instead of one. Addr-mode
// pins each address to one core, so no such resonance can arise and the
// step is always one.
func stepSize(mode PoolMode, rrLikeScheduler bool) int {
	if mode != PortLcoreMapping || !rrLikeScheduler {
		return 1
	}
	if rand.Intn(100) < 5 {
		return 2
	}
	return 1
}

// pickLaddr selects one LocalAddress from the pool for core, returning nil
// if the relevant list (the shared list in port-mode, this core's list in
// addr-mode) is empty. On a non-nil return, the entry's refcnt has already
// been incremented. Caller must already hold whatever lock guards pool
// structure -- Bind takes the service write lock before calling this.
func (p *ServiceLocalPool) pickLaddr(core int) *LocalAddress {
	if p.mode == PortLcoreMapping {
		step := stepSize(p.mode, p.RRLikeScheduler)
		return p.shared.pick(step)
	}

	l, ok := p.perCore[core]
	if !ok {
		return nil
	}
	return l.pick(1)
}

// putLaddr releases the reference pickLaddr took out, without touching
// conn_counts: it is used to back out of a trial that failed to fetch an
// lport, or that found itself on an address not currently assigned to this
// core.
func putLaddr(la *LocalAddress) {
	la.refcnt.Add(-1)
}
