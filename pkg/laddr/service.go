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
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/weiyanhua100/dpvs/pkg/iface"
	"github.com/weiyanhua100/dpvs/pkg/sapool"
)

// ServiceKey identifies a virtual service the way the control-plane request
// channel addresses one: address family, protocol, virtual endpoint,
// firewall mark and an optional match filter narrowing which traffic the
// service accepts. It carries no pool state of its own; Registry maps a
// ServiceKey to the ServiceLocalPool that owns it.
type ServiceKey struct {
	AF     Family
	Proto  Protocol
	VAddr  net.IP
	VPort  uint16
	FWMark uint32
	Match  string
}

func (k ServiceKey) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "af=%d/proto=%d/%s:%d/fwmark=%d", k.AF, k.Proto, k.VAddr, k.VPort, k.FWMark)
	if k.Match != "" {
		fmt.Fprintf(&b, "/match=%s", k.Match)
	}
	return b.String()
}

// ParseMatchFilter validates the raw match-filter text carried on a
// ServiceKey. The filter selects a subset of traffic for the service (by
// source/dest CIDR and inbound/outbound interface, in the source design)
// but evaluating it against traffic is out of scope here -- the allocator
// only needs to reject a malformed filter up front with StatusInvalid, the
// same way the sockopt handler it is modeled on does before ever reaching
// the service table.
//
// An empty string is valid and means "no filter". A non-empty filter must
// be a semicolon-separated list of key=value clauses; anything else fails.
func ParseMatchFilter(raw string) error {
	if raw == "" {
		return nil
	}
	for _, clause := range strings.Split(raw, ";") {
		if clause == "" {
			return fmt.Errorf("laddr: empty clause in match filter %q", raw)
		}
		kv := strings.SplitN(clause, "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return fmt.Errorf("laddr: malformed clause %q in match filter %q", clause, raw)
		}
	}
	return nil
}

// Registry maps ServiceKeys to the ServiceLocalPool each virtual service
// owns. It is populated by whatever owns virtual-service lifecycle
// (out of scope here); this package only looks entries up by key.
type Registry struct {
	mu       sync.RWMutex
	services map[string]*ServiceLocalPool
}

// NewRegistry returns an empty service Registry.
func NewRegistry() *Registry {
	return &Registry{services: map[string]*ServiceLocalPool{}}
}

// Register associates key with pool, replacing any prior association.
func (r *Registry) Register(key ServiceKey, pool *ServiceLocalPool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[key.String()] = pool
}

// Unregister drops key's association, if any.
func (r *Registry) Unregister(key ServiceKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, key.String())
}

// Lookup resolves key to its ServiceLocalPool.
func (r *Registry) Lookup(key ServiceKey) (*ServiceLocalPool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.services[key.String()]
	return p, ok
}

// Dispatcher implements the control-plane message set of §6: Add, Delete,
// Flush and GetAll, each keyed by resolving a ServiceKey through Services
// before touching the pool. The transport that frames requests and replies
// over the wire is supplied by the host and is not this type's concern.
type Dispatcher struct {
	Services   *Registry
	Interfaces *iface.Registry
	Directory  sapool.AddressDirectory
}

// NewDispatcher wires a Dispatcher against the given collaborators.
func NewDispatcher(services *Registry, interfaces *iface.Registry, dir sapool.AddressDirectory) *Dispatcher {
	return &Dispatcher{Services: services, Interfaces: interfaces, Directory: dir}
}

// AddRequest is the wire-independent form of the "Add LocalAddress" request.
type AddRequest struct {
	Key    ServiceKey
	Family Family
	Addr   net.IP
	IfName string
}

// Add resolves req.Key and, on a hit, creates the LocalAddress it
// describes.
func (d *Dispatcher) Add(req AddRequest) Status {
	if err := ParseMatchFilter(req.Key.Match); err != nil {
		return StatusInvalid
	}
	svc, ok := d.Services.Lookup(req.Key)
	if !ok {
		return StatusNoService
	}
	return svc.Add(d.Interfaces, d.Directory, req.Family, req.Addr, req.IfName)
}

// DeleteRequest is the wire-independent form of the "Delete LocalAddress"
// request.
type DeleteRequest struct {
	Key    ServiceKey
	Family Family
	Addr   net.IP
}

// Delete resolves req.Key and, on a hit, deletes the LocalAddress it
// describes.
func (d *Dispatcher) Delete(req DeleteRequest) Status {
	if err := ParseMatchFilter(req.Key.Match); err != nil {
		return StatusInvalid
	}
	svc, ok := d.Services.Lookup(req.Key)
	if !ok {
		return StatusNoService
	}
	return svc.Delete(req.Family, req.Addr)
}

// FlushRequest is the wire-independent form of the "Flush LocalAddresses"
// request.
type FlushRequest struct {
	Key ServiceKey
}

// Flush resolves req.Key and, on a hit, flushes its pool.
func (d *Dispatcher) Flush(req FlushRequest) Status {
	if err := ParseMatchFilter(req.Key.Match); err != nil {
		return StatusInvalid
	}
	svc, ok := d.Services.Lookup(req.Key)
	if !ok {
		return StatusNoService
	}
	return svc.Flush()
}

// GetAllRequest is the wire-independent form of the "Get all" request.
type GetAllRequest struct {
	Key ServiceKey
}

// GetAllReply echoes the resolved service key alongside the snapshot
// laddr_getall produces, or a non-OK Status if resolution failed.
type GetAllReply struct {
	Key     ServiceKey
	Entries []EnumerateEntry
	Status  Status
}

// GetAll resolves req.Key and, on a hit, snapshots its pool.
func (d *Dispatcher) GetAll(req GetAllRequest) GetAllReply {
	if err := ParseMatchFilter(req.Key.Match); err != nil {
		return GetAllReply{Key: req.Key, Status: StatusInvalid}
	}
	svc, ok := d.Services.Lookup(req.Key)
	if !ok {
		return GetAllReply{Key: req.Key, Status: StatusNoService}
	}
	return GetAllReply{Key: req.Key, Entries: svc.GetAll(), Status: StatusOK}
}
