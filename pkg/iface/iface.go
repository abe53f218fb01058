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

// Package iface resolves the interface names the control plane passes to
// laddr_add into stable handles the allocator can carry around on a
// LocalAddress without repeating name lookups on every packet.
package iface

import (
	"fmt"
	"sync"

	"github.com/vishvananda/netlink"
)

// Handle is the network interface a LocalAddress is configured on.
type Handle struct {
	Name  string
	Index int
	link  netlink.Link
}

// linkByName is injectable so tests can resolve interfaces without a real
// netlink-backed host, the same way the kernel-handler code in the ipvs
// backend abstracts sysctl access behind an interface.
type linkByNameFunc func(name string) (netlink.Link, error)

// Registry resolves interface names to Handles, caching netlink lookups.
type Registry struct {
	mu         sync.Mutex
	byName     map[string]*Handle
	linkByName linkByNameFunc
}

// NewRegistry returns an empty Registry backed by netlink.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Handle{}, linkByName: netlink.LinkByName}
}

// NewFakeRegistry returns a Registry backed by the given lookup function,
// for use in tests that should not depend on host network state.
func NewFakeRegistry(linkByName linkByNameFunc) *Registry {
	return &Registry{byName: map[string]*Handle{}, linkByName: linkByName}
}

// Lookup resolves ifname, returning (nil, false) if the interface does not
// exist on the host. A successful lookup is cached: laddr_add calls this on
// the control-plane path, not the fast path, but services reload often
// enough that repeated netlink round-trips for the same name are wasted
// work.
func (r *Registry) Lookup(ifname string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.byName[ifname]; ok {
		return h, true
	}

	link, err := r.linkByName(ifname)
	if err != nil {
		return nil, false
	}

	h := &Handle{Name: ifname, Index: link.Attrs().Index, link: link}
	r.byName[ifname] = h
	return h, true
}

// Invalidate drops ifname from the cache, forcing the next Lookup to
// re-resolve it. Used by the control plane when an interface is known to
// have been recreated (e.g. flapped) since it was last resolved.
func (r *Registry) Invalidate(ifname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byName, ifname)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s[%d]", h.Name, h.Index)
}
