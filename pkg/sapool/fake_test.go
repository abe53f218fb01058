package sapool

import (
	"net"
	"testing"
)

func TestFakePoolFetchReleaseRoundTrip(t *testing.T) {
	p := NewFakePool()
	addr := net.ParseIP("10.0.0.1")

	dst := Endpoint{Addr: net.ParseIP("192.0.2.7"), Port: 80}
	src := Endpoint{Addr: addr}

	if err := p.Fetch(FamilyV4, 2, dst, &src); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if src.Port == 0 {
		t.Fatal("expected Fetch to fill in a port")
	}

	port := src.Port
	p.Release(2, dst, src)

	// the port should be available again immediately after release.
	var src2 Endpoint
	src2.Addr = addr
	found := false
	for i := 0; i < fakePortRetry+1; i++ {
		if err := p.Fetch(FamilyV4, 2, dst, &src2); err != nil {
			t.Fatalf("Fetch after release: %v", err)
		}
		if src2.Port == port {
			found = true
			break
		}
		p.Release(2, dst, src2)
	}
	if !found {
		t.Fatal("released port never became available again")
	}
}

func TestFakePoolAlwaysExhausted(t *testing.T) {
	p := NewFakePool()
	p.AlwaysExhausted = true

	dst := Endpoint{Addr: net.ParseIP("192.0.2.7"), Port: 80}
	src := Endpoint{Addr: net.ParseIP("10.0.0.1")}

	if err := p.Fetch(FamilyV4, 1, dst, &src); err != ErrExhausted {
		t.Fatalf("Fetch = %v, want ErrExhausted", err)
	}
}

func TestFakeDirectoryAssignWithdraw(t *testing.T) {
	d := NewFakeDirectory()
	addr := net.ParseIP("10.0.0.1")

	if d.HasSubPool(FamilyV4, 1, addr, 0) {
		t.Fatal("expected no sub-pool before Assign")
	}

	d.Assign(1, addr, 0)
	if !d.HasSubPool(FamilyV4, 1, addr, 0) {
		t.Fatal("expected sub-pool after Assign")
	}

	d.Withdraw(1, addr, 0)
	if d.HasSubPool(FamilyV4, 1, addr, 0) {
		t.Fatal("expected no sub-pool after Withdraw")
	}
}
