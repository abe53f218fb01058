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

import (
	"container/list"
	"net"
	"sync"

	"github.com/weiyanhua100/dpvs/pkg/corebits"
)

// addrList is one doubly-linked list of LocalAddress entries plus the
// round-robin cursor into it. It is the direct analogue of the source's
// intrusive svc->laddr_list / svc->laddr_curr pair -- container/list gives
// us the same "cursor survives unrelated inserts/removes" property an
// intrusive list has, without hand-rolling pointer plumbing.
//
// addrList carries no lock of its own: every field here is structural
// state protected by the single write lock on the owning ServiceLocalPool,
// the same way one rwlock on dp_vs_service guards every per-core pre_list
// in the source.
type addrList struct {
	l      *list.List
	cursor *list.Element
	num    int
}

func newAddrList() *addrList {
	return &addrList{l: list.New()}
}

// advance moves the cursor forward by one position, wrapping at the
// sentinel end of the list back to the front.
func (a *addrList) advance() {
	if a.cursor == nil {
		a.cursor = a.l.Front()
	} else {
		a.cursor = a.cursor.Next()
	}
	if a.cursor == nil {
		a.cursor = a.l.Front()
	}
}

// pick advances the cursor by step positions and returns the LocalAddress
// now under it with refcnt pre-incremented. Returns nil if the list is
// empty.
func (a *addrList) pick(step int) *LocalAddress {
	if a.l.Len() == 0 {
		return nil
	}
	for i := 0; i < step; i++ {
		a.advance()
	}
	la := a.cursor.Value.(*LocalAddress)
	la.refcnt.Add(1)
	return la
}

// find returns the element holding the LocalAddress matching (family,
// addr), or nil.
func (a *addrList) find(family Family, addr net.IP) *list.Element {
	for e := a.l.Front(); e != nil; e = e.Next() {
		la := e.Value.(*LocalAddress)
		if la.sameAddr(family, addr) {
			return e
		}
	}
	return nil
}

// insert appends new to the list and bumps num.
func (a *addrList) insert(new *LocalAddress) {
	a.l.PushBack(new)
	a.num++
}

// removeElem unlinks e, fixing up the cursor first if it pointed at e, per
// the cursor-fixup invariant: advance the cursor to the successor before
// unlinking, never after, or a pointer-based implementation would be left
// referencing freed memory.
func (a *addrList) removeElem(e *list.Element) {
	if a.cursor == e {
		next := e.Next()
		if next == nil {
			next = a.l.Front()
			if next == e {
				next = nil
			}
		}
		a.cursor = next
	}
	a.l.Remove(e)
	a.num--
}

// ServiceLocalPool is the per-service container of LocalAddress entries,
// shaped according to the process-global PoolMode: a single shared list in
// port-mode, or one list per worker core in addr-mode.
//
// One write lock protects list membership, cursor(s) and count(s) for the
// whole pool, in either shape -- selection is a write because it mutates
// the cursor, so the read side of the lock is never taken (see the
// concurrency notes in the specification). refcnt/connCount on individual
// entries are atomics mutated without this lock.
type ServiceLocalPool struct {
	mu sync.Mutex

	mode PoolMode

	// RRLikeScheduler reports whether the virtual service this pool
	// belongs to uses a round-robin family scheduler (rr/wrr) for real
	// servers. pick_laddr in port-mode only perturbs its step for such
	// schedulers, to avoid resonating with their selection order.
	RRLikeScheduler bool

	shared  *addrList         // port-mode
	perCore map[int]*addrList // addr-mode, keyed by core id
}

// NewServiceLocalPool creates an empty pool shaped for the process-wide
// PoolMode.
func NewServiceLocalPool() *ServiceLocalPool {
	p := &ServiceLocalPool{mode: GetPoolMode()}
	if p.mode == PortLcoreMapping {
		p.shared = newAddrList()
	} else {
		p.perCore = map[int]*addrList{}
	}
	return p
}

// coreList returns (creating if absent) the addr-mode list for core. Only
// valid in addr-mode. Caller must hold p.mu.
func (p *ServiceLocalPool) coreList(core int) *addrList {
	l, ok := p.perCore[core]
	if !ok {
		l = newAddrList()
		p.perCore[core] = l
	}
	return l
}

// numLaddrsLocked returns the address count relevant to core. Caller must
// hold p.mu.
func (p *ServiceLocalPool) numLaddrsLocked(core int) int {
	if p.mode == PortLcoreMapping {
		return p.shared.num
	}
	l, ok := p.perCore[core]
	if !ok {
		return 0
	}
	return l.num
}

// NumLaddrs returns the address count relevant to core: the single shared
// count in port-mode, or this core's own count in addr-mode.
func (p *ServiceLocalPool) NumLaddrs(core int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numLaddrsLocked(core)
}

// EnumerateEntry is a snapshot of one LocalAddress as returned by
// laddr_getall: the wire-visible fields only.
type EnumerateEntry struct {
	Family Family
	Addr   net.IP
	NConns int32
	// NPortConflict is always zero today; it is kept in the wire format
	// as a reserved field (see DESIGN.md).
	NPortConflict int32
}

// GetAll materializes a snapshot of every LocalAddress in the pool. In
// addr-mode, per-core lists are concatenated in ascending core-id order.
// Held under the write lock: per the open question in the specification,
// get-all is read-only but is promoted to the write lock anyway to
// serialize against cursor advance in port-mode.
func (p *ServiceLocalPool) GetAll() []EnumerateEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == PortLcoreMapping {
		return collectEntries(p.shared)
	}

	var out []EnumerateEntry
	for _, core := range corebits.Global.Cores() {
		l, ok := p.perCore[core]
		if !ok {
			continue
		}
		out = append(out, collectEntries(l)...)
	}
	return out
}

func collectEntries(a *addrList) []EnumerateEntry {
	out := make([]EnumerateEntry, 0, a.l.Len())
	for e := a.l.Front(); e != nil; e = e.Next() {
		la := e.Value.(*LocalAddress)
		out = append(out, EnumerateEntry{
			Family: la.Family,
			Addr:   append(net.IP(nil), la.Addr...),
			NConns: la.ConnCount(),
		})
	}
	return out
}
