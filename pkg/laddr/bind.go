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
	"k8s.io/klog/v2"

	"github.com/weiyanhua100/dpvs/pkg/sapool"
)

// Allocator ties a ServiceLocalPool to the external collaborators Bind and
// Unbind need: the SA-pool facade and, in addr-mode, the interface-address
// directory that says which cores currently have a sub-pool under a given
// address.
type Allocator struct {
	Pool sapool.Pool
	Dir  sapool.AddressDirectory

	metrics *Metrics
}

// NewAllocator wires a ServiceLocalPool's fast path to a concrete SA-pool.
// dir may be nil in port-mode, where it is never consulted.
func NewAllocator(pool sapool.Pool, dir sapool.AddressDirectory) *Allocator {
	return &Allocator{Pool: pool, Dir: dir, metrics: globalMetrics}
}

func familyOf(af Family) sapool.Family {
	if af == FamilyV6 {
		return sapool.FamilyV6
	}
	return sapool.FamilyV4
}

// Bind synthesizes a fresh source endpoint for conn against svc's pool,
// writing the result into conn on success.
//
// The preconditions are checked on conn alone, before any lock is taken.
// The whole trial loop then runs under svc's write lock: selection advances
// the cursor (a write) and the trial count depends on svc's address count,
// so both must be read and acted on atomically with respect to concurrent
// Add/Delete/Flush.
func (a *Allocator) Bind(conn *Connection, svc *ServiceLocalPool) Status {
	if conn == nil || svc == nil || conn.DAddr == nil {
		return StatusInvalid
	}
	if conn.Proto != ProtoTCP && conn.Proto != ProtoUDP {
		return StatusNotSupported
	}
	if conn.IsTemplate {
		return StatusOK
	}

	svc.mu.Lock()
	laddr, src, status := a.tryBind(conn, svc)
	svc.mu.Unlock()

	if status != StatusOK {
		if laddr != nil {
			putLaddr(laddr)
		}
		if a.metrics != nil {
			a.metrics.BindFailures.Inc()
		}
		return status
	}

	laddr.connCount.Add(1)
	conn.LAddr = src.Addr
	conn.LPort = src.Port
	conn.local = laddr

	if a.metrics != nil {
		a.metrics.BindSuccess.Inc()
		a.metrics.ConnCounts.WithLabelValues(laddr.Addr.String()).Set(float64(laddr.ConnCount()))
	}
	return StatusOK
}

// tryBind runs the MAX_TRIALS selection loop. Caller must hold svc.mu.
// Returns the winning LocalAddress (with its net refcnt still held) and the
// fetched endpoints on success; on failure it returns a nil LocalAddress
// and a non-OK status, every reference taken during the trials having
// already been released.
func (a *Allocator) tryBind(conn *Connection, svc *ServiceLocalPool) (laddr *LocalAddress, src sapool.Endpoint, status Status) {
	n := svc.numLaddrsLocked(conn.Core)
	trials := MaxTrials
	if n < trials {
		trials = n
	}

	for i := 0; i < trials; i++ {
		la := svc.pickLaddr(conn.Core)
		if la == nil {
			return nil, src, StatusResource
		}

		if svc.mode == AddrLcoreMapping && a.Dir != nil {
			if !a.Dir.HasSubPool(familyOf(la.Family), la.Iface.Index, la.Addr, conn.Core) {
				putLaddr(la)
				continue
			}
		}

		dst := sapool.Endpoint{Addr: conn.DAddr, Port: conn.DPort}
		src = sapool.Endpoint{Addr: la.Addr}

		if err := a.Pool.Fetch(familyOf(la.Family), la.Iface.Index, dst, &src); err != nil {
			klog.V(4).InfoS("laddr: fetch failed, trying next address",
				"addr", la.Addr.String(), "dst", conn.DAddr.String(), "err", err)
			putLaddr(la)
			continue
		}

		return la, src, StatusOK
	}

	return nil, src, StatusResource
}

// Unbind releases the endpoint conn holds back to the SA-pool and clears
// conn's local-address reference. A no-op for template connections or
// connections that never bound (conn.local == nil).
func (a *Allocator) Unbind(conn *Connection) Status {
	if conn.IsTemplate || conn.local == nil {
		return StatusOK
	}

	la := conn.local
	dst := sapool.Endpoint{Addr: conn.DAddr, Port: conn.DPort}
	src := sapool.Endpoint{Addr: conn.LAddr, Port: conn.LPort}

	a.Pool.Release(la.Iface.Index, dst, src)

	la.connCount.Add(-1)
	putLaddr(la)
	conn.local = nil

	if a.metrics != nil {
		a.metrics.UnbindTotal.Inc()
		a.metrics.ConnCounts.WithLabelValues(la.Addr.String()).Set(float64(la.ConnCount()))
	}
	return StatusOK
}
