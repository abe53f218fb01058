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

	"k8s.io/klog/v2"

	"github.com/weiyanhua100/dpvs/pkg/diffstore"
)

// AddressRecord is one local-address entry as the health-checker daemon's
// configuration holds it: wide enough to carry the runtime status fields
// (Alive, Set, Weight, Pweight) that a reload must preserve across a
// surviving entry, in addition to the identity fields that decide whether
// an entry survives at all.
type AddressRecord struct {
	Family Family
	Addr   net.IP
	Range  string // optional address-range suffix, e.g. a CIDR or "-N" span; "" for a single address
	IfName string

	Alive    bool
	Set      bool
	Weight   int
	Pweight  int
	Reloaded bool
}

// key is the equality the reconciler diffs old against new on: (addr,
// range, ifname).
func (r AddressRecord) key() string {
	return fmt.Sprintf("%s/%s/%s", r.Addr, r.Range, r.IfName)
}

// ReloadResult summarizes what a Reconcile call did, for logging and
// testing -- it is not itself consumed by any further step.
type ReloadResult struct {
	Deleted  []AddressRecord
	Survived []AddressRecord
	Pending  []AddressRecord
}

// neverEqual always reports two AddressRecords as different. Reconcile only
// runs the diffstore across exactly two fill cycles (old, then new) to
// classify each key as deleted/survived/pending by presence alone -- it
// never relies on Store suppressing an "unchanged" update, so there is no
// real content-equality to compute here.
func neverEqual(AddressRecord, AddressRecord) bool { return false }

// Reconcile diffs old against new for the same virtual service and applies
// the minimal set of pool mutations: entries dropped from new are deleted
// from pool outright; entries present in both carry their runtime status
// forward onto the new record and are marked Reloaded; entries present
// only in new are left for the ordinary Add path to pick up lazily on
// first use and are returned in Pending without touching pool.
//
// old and new are run through a diffstore.Store as two consecutive fill
// cycles -- the same mechanism the rest of this codebase uses to diff
// snapshots -- so deleted/survived/pending falls out of Item.Deleted() and
// Item.Created() instead of a bespoke pair of key sets.
func Reconcile(pool *ServiceLocalPool, old, new []AddressRecord) ReloadResult {
	oldByKey := make(map[string]AddressRecord, len(old))
	for _, r := range old {
		oldByKey[r.key()] = r
	}

	store := diffstore.NewAnyStore[string, AddressRecord](neverEqual)
	for _, r := range old {
		store.Get(r.key()).Set(r)
	}
	store.Done()
	store.Reset()
	for _, r := range new {
		store.Get(r.key()).Set(r)
	}
	store.Done()

	var result ReloadResult

	for _, item := range store.Deleted() {
		r := item.Value().Get()
		status := pool.Delete(r.Family, r.Addr)
		if status != StatusOK {
			klog.V(2).InfoS("laddr: reload delete of dropped address did not complete",
				"addr", r.Addr.String(), "ifname", r.IfName, "status", status.String())
		}
		result.Deleted = append(result.Deleted, r)
	}

	for _, item := range store.List() {
		r := item.Value().Get()
		if item.Created() {
			result.Pending = append(result.Pending, r)
			continue
		}
		oldRec := oldByKey[item.Key()]
		merged := r
		merged.Alive = oldRec.Alive
		merged.Set = oldRec.Set
		merged.Weight = oldRec.Weight
		merged.Pweight = oldRec.Pweight
		merged.Reloaded = true
		result.Survived = append(result.Survived, merged)
	}

	return result
}
