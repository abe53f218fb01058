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
	"net"

	"k8s.io/klog/v2"

	"github.com/weiyanhua100/dpvs/pkg/corebits"
	"github.com/weiyanhua100/dpvs/pkg/iface"
	"github.com/weiyanhua100/dpvs/pkg/sapool"
)

// Add creates a new LocalAddress bound to ifname and inserts it into p.
//
// In port-mode the entry is appended to the single shared list after a
// duplicate check. In addr-mode the duplicate check scans every per-core
// list first; on success one per-core record is inserted into the list of
// every enabled core for which dir reports an SA sub-pool configured under
// addr -- each such record is independently owned, per the no-cross-core-
// sharing rule in the data model.
func (p *ServiceLocalPool) Add(reg *iface.Registry, dir sapool.AddressDirectory, family Family, addr net.IP, ifname string) Status {
	h, ok := reg.Lookup(ifname)
	if !ok {
		return StatusNotExist
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == PortLcoreMapping {
		if p.shared.find(family, addr) != nil {
			return StatusExists
		}
		p.shared.insert(&LocalAddress{Family: family, Addr: addr, Iface: h})
		return StatusOK
	}

	for _, core := range corebits.Global.Cores() {
		if l, ok := p.perCore[core]; ok && l.find(family, addr) != nil {
			return StatusExists
		}
	}

	if dir == nil {
		klog.V(2).InfoS("laddr: add in addr-mode with no address directory, nothing inserted",
			"addr", addr.String(), "ifname", ifname)
		return StatusOK
	}

	for _, core := range corebits.Global.Cores() {
		if !dir.HasSubPool(familyOf(family), h.Index, addr, core) {
			continue
		}
		l := p.coreList(core)
		l.insert(&LocalAddress{Family: family, Addr: addr, Iface: h, core: core})
	}
	return StatusOK
}

// Delete removes the LocalAddress matching (family, addr) from p, provided
// its refcnt is zero. In addr-mode every per-core list is searched; a core
// whose matching entry is still referenced reports Busy for that core but
// does not stop the loop over the others, so cores on which the address is
// idle are still cleaned up on this call.
func (p *ServiceLocalPool) Delete(family Family, addr net.IP) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == PortLcoreMapping {
		e := p.shared.find(family, addr)
		if e == nil {
			return StatusNotExist
		}
		la := e.Value.(*LocalAddress)
		if la.Refcnt() > 0 {
			return StatusBusy
		}
		p.shared.removeElem(e)
		return StatusOK
	}

	found := false
	busy := false
	for _, core := range corebits.Global.Cores() {
		l, ok := p.perCore[core]
		if !ok {
			continue
		}
		e := l.find(family, addr)
		if e == nil {
			continue
		}
		found = true
		la := e.Value.(*LocalAddress)
		if la.Refcnt() > 0 {
			busy = true
			continue
		}
		l.removeElem(e)
	}

	if !found {
		return StatusNotExist
	}
	if busy {
		return StatusBusy
	}
	return StatusOK
}

// Flush removes every idle (refcnt == 0) entry from every list in p. Busy
// entries are left in place and the call reports StatusBusy to summarize
// that the pool was not fully emptied; it still removes everything it can
// in the same pass rather than aborting at the first busy entry.
func (p *ServiceLocalPool) Flush() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy := false
	if p.mode == PortLcoreMapping {
		busy = flushList(p.shared)
	} else {
		for _, core := range corebits.Global.Cores() {
			l, ok := p.perCore[core]
			if !ok {
				continue
			}
			if flushList(l) {
				busy = true
			}
		}
	}

	if busy {
		return StatusBusy
	}
	return StatusOK
}

// flushList removes every idle entry of l, reporting whether any entry was
// left behind because it was still referenced.
func flushList(l *addrList) bool {
	busy := false
	for e := l.l.Front(); e != nil; {
		next := e.Next()
		la := e.Value.(*LocalAddress)
		if la.Refcnt() == 0 {
			l.removeElem(e)
		} else {
			busy = true
		}
		e = next
	}
	return busy
}
