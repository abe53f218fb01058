package iface

import (
	"errors"
	"testing"

	"github.com/vishvananda/netlink"
)

func TestRegistryLookupCaches(t *testing.T) {
	calls := 0
	reg := NewFakeRegistry(func(name string) (netlink.Link, error) {
		calls++
		if name != "eth0" {
			return nil, errors.New("no such network interface")
		}
		attrs := netlink.NewLinkAttrs()
		attrs.Name = name
		attrs.Index = 3
		return &netlink.Dummy{LinkAttrs: attrs}, nil
	})

	h, ok := reg.Lookup("eth0")
	if !ok || h.Index != 3 {
		t.Fatalf("Lookup(eth0) = %v, %v", h, ok)
	}

	if _, ok := reg.Lookup("eth0"); !ok || calls != 1 {
		t.Fatalf("expected cached lookup, calls=%d", calls)
	}

	if _, ok := reg.Lookup("eth1"); ok {
		t.Fatal("expected miss for unknown interface")
	}

	reg.Invalidate("eth0")
	if _, ok := reg.Lookup("eth0"); !ok || calls != 2 {
		t.Fatalf("expected re-resolution after Invalidate, calls=%d", calls)
	}
}
