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
)

// TestReconcileDiff is scenario S6: old group {A, B, C}, new group {B, C,
// D}; the reconciler deletes A, adds nothing (D is lazily added on first
// use), and B/C survive with their runtime status and Reloaded=true.
func TestReconcileDiff(t *testing.T) {
	SetPoolMode(PortLcoreMapping)
	reg := fakeIfaceRegistry("eth0")
	svc := NewServiceLocalPool()

	addrA := net.ParseIP("10.0.0.1")
	addrB := net.ParseIP("10.0.0.2")
	addrC := net.ParseIP("10.0.0.3")
	addrD := net.ParseIP("10.0.0.4")

	for _, a := range []net.IP{addrA, addrB, addrC} {
		if status := svc.Add(reg, nil, FamilyV4, a, "eth0"); status != StatusOK {
			t.Fatalf("Add(%v) = %v, want Ok", a, status)
		}
	}

	bLaddr := svc.shared.find(FamilyV4, addrB).Value.(*LocalAddress)
	bLaddr.connCount.Add(5)

	old := []AddressRecord{
		{Family: FamilyV4, Addr: addrA, IfName: "eth0", Alive: true, Weight: 1},
		{Family: FamilyV4, Addr: addrB, IfName: "eth0", Alive: true, Weight: 2},
		{Family: FamilyV4, Addr: addrC, IfName: "eth0", Alive: false, Weight: 3},
	}
	newGroup := []AddressRecord{
		{Family: FamilyV4, Addr: addrB, IfName: "eth0"},
		{Family: FamilyV4, Addr: addrC, IfName: "eth0"},
		{Family: FamilyV4, Addr: addrD, IfName: "eth0"},
	}

	result := Reconcile(svc, old, newGroup)

	if len(result.Deleted) != 1 || !result.Deleted[0].Addr.Equal(addrA) {
		t.Fatalf("Deleted = %+v, want exactly A", result.Deleted)
	}
	if len(result.Pending) != 1 || !result.Pending[0].Addr.Equal(addrD) {
		t.Fatalf("Pending = %+v, want exactly D", result.Pending)
	}
	if len(result.Survived) != 2 {
		t.Fatalf("Survived = %+v, want B and C", result.Survived)
	}
	for _, r := range result.Survived {
		if !r.Reloaded {
			t.Fatalf("survivor %v not marked Reloaded", r.Addr)
		}
		switch {
		case r.Addr.Equal(addrB):
			if !r.Alive || r.Weight != 2 {
				t.Fatalf("B status not preserved: %+v", r)
			}
		case r.Addr.Equal(addrC):
			if r.Alive || r.Weight != 3 {
				t.Fatalf("C status not preserved: %+v", r)
			}
		default:
			t.Fatalf("unexpected survivor %v", r.Addr)
		}
	}

	if svc.shared.find(FamilyV4, addrA) != nil {
		t.Fatal("A should have been removed from the pool")
	}
	survivingB := svc.shared.find(FamilyV4, addrB).Value.(*LocalAddress)
	if got := survivingB.ConnCount(); got != 5 {
		t.Fatalf("B's live pool entry conn_counts = %d, want preserved 5", got)
	}
	if svc.shared.find(FamilyV4, addrD) != nil {
		t.Fatal("D should not yet be present in the pool (lazy add)")
	}
}
