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

// Package laddr implements the local-address and local-port (LIP/lport)
// allocator of a Full-NAT dataplane: per-service pools of LocalAddress
// entries that Bind/Unbind draw from on the packet fast path, and the
// Add/Delete/Flush/Enumerate control operations and reload reconciler that
// manage those pools from the control plane.
package laddr

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/weiyanhua100/dpvs/pkg/iface"
)

// Family mirrors sapool.Family so callers of this package don't need to
// import sapool just to build a LocalAddress.
type Family int

const (
	FamilyV4 Family = 4
	FamilyV6 Family = 6
)

// Protocol is the transport protocol of a Connection. Only TCP and UDP are
// allocation-eligible; anything else makes Bind return StatusNotSupported.
type Protocol int

const (
	ProtoTCP Protocol = iota
	ProtoUDP
	ProtoOther
)

// LocalAddress is the per-address record the allocator hands out of a
// service pool. refcnt and connCount are mutated with atomic operations
// without the pool's lock, per the concurrency model in the specification:
// refcnt is a deferred-free guard, never extended lifetime autonomously,
// and entries with refcnt > 0 must not be freed.
type LocalAddress struct {
	Family Family
	Addr   net.IP
	Iface  *iface.Handle

	refcnt    atomic.Int32
	connCount atomic.Int32

	// core is set for addr-mode per-core entries; it identifies which
	// core's list this particular record belongs to. Unused (zero) in
	// port-mode, where one record is shared by the whole service.
	core int
}

// Refcnt returns the current reference count: in-flight bind attempts plus
// successful holders referencing this entry.
func (l *LocalAddress) Refcnt() int32 { return l.refcnt.Load() }

// ConnCount returns the number of currently bound live connections using
// this address. Observable to operators; not an ownership signal.
func (l *LocalAddress) ConnCount() int32 { return l.connCount.Load() }

func (l *LocalAddress) sameAddr(family Family, addr net.IP) bool {
	return l.Family == family && l.Addr.Equal(addr)
}

// Connection is the subset of a dataplane flow's state the allocator reads
// and writes. The packet pipeline owns the rest.
type Connection struct {
	Proto      Protocol
	IsTemplate bool

	// DAddr/DPort identify the destination (real server) endpoint this
	// connection is being bound towards.
	DAddr net.IP
	DPort uint16

	// LAddr/LPort are written by Bind on success: the synthesized local
	// endpoint.
	LAddr net.IP
	LPort uint16

	// Core is the id of the worker core processing this connection. Only
	// consulted in addr-mode, where address lists are per-core.
	Core int

	// local is the LocalAddress this connection currently holds a
	// reference on, or nil if unbound.
	local *LocalAddress
}

// Local returns the LocalAddress this connection is currently bound to, or
// nil.
func (c *Connection) Local() *LocalAddress { return c.local }

// PoolMode is the process-global, immutable-after-init choice between the
// two address/lcore mapping disciplines.
type PoolMode int

const (
	// PortLcoreMapping: FDIR keys on low bits of lport; every core draws
	// from one shared list of addresses.
	PortLcoreMapping PoolMode = iota
	// AddrLcoreMapping: FDIR keys on the address; each core owns a
	// disjoint subset of addresses.
	AddrLcoreMapping
)

// MaxTrials bounds how many addresses Bind will try before giving up with
// StatusResource.
const MaxTrials = 16

var (
	modeMu sync.RWMutex
	mode   = PortLcoreMapping
)

// SetPoolMode publishes the process-wide PoolMode. Like EnabledCoreMask,
// this is meant to be called exactly once during startup, before any
// service pool is created.
func SetPoolMode(m PoolMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	mode = m
}

// GetPoolMode returns the process-wide PoolMode.
func GetPoolMode() PoolMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return mode
}
