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

// Package sapool declares the boundary the laddr allocator consumes to
// reserve and release ephemeral (lip, lport) endpoints.
//
// The socket-address pool itself -- the ephemeral port bitmap and the
// hardware flow-director programming that steers return traffic back to
// the core that issued the fetch -- is out of scope for this module. This
// package only pins down the interface the allocator's fast path is
// written against, plus the address-family helpers needed to build the
// socket-storage values that interface expects.
package sapool

import (
	"errors"
	"net"
)

// Family distinguishes the two address families the allocator supports.
type Family int

const (
	FamilyV4 Family = 4
	FamilyV6 Family = 6
)

// ErrExhausted is returned by Fetch when no free lport exists under src's
// local address for the requested destination on this core.
var ErrExhausted = errors.New("sapool: exhausted")

// Endpoint is a source or destination socket address. For a Fetch source
// endpoint, Port is zero on input and is filled in by the pool on success.
type Endpoint struct {
	Addr net.IP
	Port uint16
}

// Pool is the boundary between the allocator and the module that owns the
// ephemeral port space and programs flow-director filters. It is
// addressable per interface and, implicitly, per calling core: an
// implementation is expected to serve fetches issued by different cores
// from disjoint port ranges so that return traffic lands back on the core
// that issued the fetch.
type Pool interface {
	// Fetch reserves a source port under src.Addr for a flow to dst,
	// filling in src.Port on success. ifaceIndex identifies which interface's
	// sub-pool to draw from. Returns ErrExhausted if no port is free.
	Fetch(family Family, ifaceIndex int, dst Endpoint, src *Endpoint) error

	// Release returns the (iface, dst, src) tuple previously obtained from
	// Fetch to the pool.
	Release(ifaceIndex int, dst, src Endpoint)
}

// AddressDirectory answers, for a given interface address, which cores
// currently have an SA sub-pool allocated under it. In addr-mode the
// allocator consults this before spending a fetch attempt on an address
// that is not actually assigned to the calling core.
//
// This corresponds to inet_addr_ifa_get(family, iface, addr).sa_pools[core]
// in the source design.
type AddressDirectory interface {
	HasSubPool(family Family, ifaceIndex int, addr net.IP, core int) bool
}
