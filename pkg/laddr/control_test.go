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
	"testing"

	"github.com/weiyanhua100/dpvs/pkg/corebits"
	"github.com/weiyanhua100/dpvs/pkg/sapool"
)

func TestAddPortModeRejectsDuplicate(t *testing.T) {
	SetPoolMode(PortLcoreMapping)
	reg := fakeIfaceRegistry("eth0")
	svc := NewServiceLocalPool()

	if status := svc.Add(reg, nil, FamilyV4, net.ParseIP("10.0.0.1"), "eth0"); status != StatusOK {
		t.Fatalf("first Add() = %v, want Ok", status)
	}
	if status := svc.Add(reg, nil, FamilyV4, net.ParseIP("10.0.0.1"), "eth0"); status != StatusExists {
		t.Fatalf("duplicate Add() = %v, want Exists", status)
	}
	if n := svc.NumLaddrs(0); n != 1 {
		t.Fatalf("NumLaddrs() = %d, want 1", n)
	}
}

func TestAddUnknownInterfaceFails(t *testing.T) {
	SetPoolMode(PortLcoreMapping)
	reg := fakeIfaceRegistry("eth0")
	svc := NewServiceLocalPool()

	if status := svc.Add(reg, nil, FamilyV4, net.ParseIP("10.0.0.1"), "eth9"); status != StatusNotExist {
		t.Fatalf("Add() with unknown ifname = %v, want NotExist", status)
	}
}

func TestAddAddrModeInsertsOnlyAssignedCores(t *testing.T) {
	SetPoolMode(AddrLcoreMapping)
	defer SetPoolMode(PortLcoreMapping)

	corebits.Global.Set([]int{1, 2, 3})
	reg := fakeIfaceRegistry("eth0")
	h := mustIface(t, reg, "eth0")

	svc := NewServiceLocalPool()
	addr := net.ParseIP("10.0.0.1")
	dir := sapool.NewFakeDirectory()
	dir.Assign(h.Index, addr, 1)
	dir.Assign(h.Index, addr, 3)

	if status := svc.Add(reg, dir, FamilyV4, addr, "eth0"); status != StatusOK {
		t.Fatalf("Add() = %v, want Ok", status)
	}

	if n := svc.NumLaddrs(1); n != 1 {
		t.Fatalf("core 1 NumLaddrs() = %d, want 1", n)
	}
	if n := svc.NumLaddrs(2); n != 0 {
		t.Fatalf("core 2 NumLaddrs() = %d, want 0", n)
	}
	if n := svc.NumLaddrs(3); n != 1 {
		t.Fatalf("core 3 NumLaddrs() = %d, want 1", n)
	}
}

func TestFlushRemovesOnlyIdleEntries(t *testing.T) {
	SetPoolMode(PortLcoreMapping)
	reg := fakeIfaceRegistry("eth0")
	svc := NewServiceLocalPool()

	svc.Add(reg, nil, FamilyV4, net.ParseIP("10.0.0.1"), "eth0")
	svc.Add(reg, nil, FamilyV4, net.ParseIP("10.0.0.2"), "eth0")

	busyEntry := svc.shared.find(FamilyV4, net.ParseIP("10.0.0.1")).Value.(*LocalAddress)
	busyEntry.refcnt.Add(1)

	if status := svc.Flush(); status != StatusBusy {
		t.Fatalf("Flush() = %v, want Busy", status)
	}
	if n := svc.NumLaddrs(0); n != 1 {
		t.Fatalf("NumLaddrs() after flush = %d, want 1", n)
	}

	busyEntry.refcnt.Add(-1)
	if status := svc.Flush(); status != StatusOK {
		t.Fatalf("second Flush() = %v, want Ok", status)
	}
	if n := svc.NumLaddrs(0); n != 0 {
		t.Fatalf("NumLaddrs() after second flush = %d, want 0", n)
	}

	// Idempotence of flush: a third call on an already-empty pool is a
	// no-op and still reports Ok.
	if status := svc.Flush(); status != StatusOK {
		t.Fatalf("third Flush() = %v, want Ok", status)
	}
}

func TestDispatcherAddDeleteFlushGetAll(t *testing.T) {
	SetPoolMode(PortLcoreMapping)
	reg := fakeIfaceRegistry("eth0")
	svc := NewServiceLocalPool()

	services := NewRegistry()
	key := ServiceKey{AF: FamilyV4, Proto: ProtoTCP, VAddr: net.ParseIP("198.51.100.1"), VPort: 80}
	services.Register(key, svc)

	d := NewDispatcher(services, reg, nil)

	if status := d.Add(AddRequest{Key: key, Family: FamilyV4, Addr: net.ParseIP("10.0.0.1"), IfName: "eth0"}); status != StatusOK {
		t.Fatalf("Dispatcher.Add() = %v, want Ok", status)
	}

	reply := d.GetAll(GetAllRequest{Key: key})
	if reply.Status != StatusOK || len(reply.Entries) != 1 {
		t.Fatalf("Dispatcher.GetAll() = %+v, want one entry with Ok", reply)
	}

	if status := d.Delete(DeleteRequest{Key: key, Family: FamilyV4, Addr: net.ParseIP("10.0.0.1")}); status != StatusOK {
		t.Fatalf("Dispatcher.Delete() = %v, want Ok", status)
	}

	missingKey := ServiceKey{AF: FamilyV4, Proto: ProtoTCP, VAddr: net.ParseIP("203.0.113.1"), VPort: 443}
	if status := d.Flush(FlushRequest{Key: missingKey}); status != StatusNoService {
		t.Fatalf("Dispatcher.Flush() on unknown service = %v, want NoService", status)
	}

	badKey := key
	badKey.Match = "malformed"
	if status := d.Add(AddRequest{Key: badKey, Family: FamilyV4, Addr: net.ParseIP("10.0.0.2"), IfName: "eth0"}); status != StatusInvalid {
		t.Fatalf("Dispatcher.Add() with malformed match = %v, want Invalid", status)
	}
}
