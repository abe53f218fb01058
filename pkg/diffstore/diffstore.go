// Package diffstore provides a generic ordered key/value store that tracks
// which entries were added, updated or removed between two fill cycles.
//
// The local-address reload reconciler uses it to diff an old service's
// address group against a new one without writing a bespoke comparator for
// every caller: entries are keyed by their (addr, range, ifname) identity,
// and after a fill cycle Deleted() tells the reconciler exactly which
// dp_vs_laddr_del calls to issue, while List() together with
// Item.Created() separates the surviving entries it carries status forward
// on from the entries that are new.
package diffstore

import (
	"cmp"

	"github.com/google/btree"
)

// Leaf is a value stored in a Store. Reset prepares the leaf to be filled
// again; Hash must change whenever the logical content changes so the store
// can tell Created/Updated/Deleted apart without a full equality check.
type Leaf interface {
	Reset()
	Hash() uint64
}

// Store is a btree-ordered map from K to V, where V tracks its own diff
// state across fill cycles.
type Store[K cmp.Ordered, V Leaf] struct {
	data     *btree.BTree
	newValue func() V

	done    bool
	touched int
}

// New creates an empty store. newValue must return a fresh, zeroed V.
func New[K cmp.Ordered, V Leaf](newValue func() V) *Store[K, V] {
	return &Store[K, V]{
		data:     btree.New(4),
		newValue: newValue,
	}
}

// Get returns (creating if necessary) the value for key and marks it
// touched for this fill cycle.
func (s *Store[K, V]) Get(key K) V {
	return s.GetItem(key).v
}

// GetItem is like Get but returns the wrapping Item, useful when the
// caller also needs Key()/Created()/Updated() on the same entry.
func (s *Store[K, V]) GetItem(key K) *Item[K, V] {
	var item *Item[K, V]

	i := s.data.Get(&Item[K, V]{k: key})
	if i == nil {
		item = &Item[K, V]{k: key, v: s.newValue()}
		s.data.ReplaceOrInsert(item)
	} else {
		item = i.(*Item[K, V])
	}

	if !item.touched {
		item.touched = true
		s.touched++
	}

	return item
}

// Done closes the current fill cycle, computing hashes so Deleted/Changed
// become valid to call.
func (s *Store[K, V]) Done() {
	s.data.Ascend(func(i btree.Item) bool {
		item := i.(*Item[K, V])
		if item.touched {
			item.currentHash = item.v.Hash()
		}
		return true
	})
	s.done = true
}

// Deleted returns entries present in the previous cycle but not touched in
// this one.
func (s *Store[K, V]) Deleted() (ret []*Item[K, V]) {
	if !s.done {
		panic("diffstore: Done() not called")
	}

	s.data.Ascend(func(i btree.Item) bool {
		item := i.(*Item[K, V])
		if item.Deleted() {
			ret = append(ret, item)
		}
		return true
	})
	return
}

// Changed returns entries that were created or updated in this cycle.
func (s *Store[K, V]) Changed() (ret []*Item[K, V]) {
	if !s.done {
		panic("diffstore: Done() not called")
	}

	s.data.Ascend(func(i btree.Item) bool {
		item := i.(*Item[K, V])
		if item.Changed() {
			ret = append(ret, item)
		}
		return true
	})
	return
}

// List returns every entry touched in this cycle, in key order.
func (s *Store[K, V]) List() (ret []*Item[K, V]) {
	ret = make([]*Item[K, V], 0, s.touched)
	s.data.Ascend(func(i btree.Item) bool {
		item := i.(*Item[K, V])
		if item.touched {
			ret = append(ret, item)
		}
		return true
	})
	return
}

// Reset starts a new fill cycle. Entries untouched across two consecutive
// resets are pruned from the tree entirely.
func (s *Store[K, V]) Reset() {
	var toDel []*Item[K, V]

	s.data.Ascend(func(i btree.Item) bool {
		item := i.(*Item[K, V])

		if item.previousHash == 0 && !item.touched {
			toDel = append(toDel, item)
			return true
		}

		item.previousHash = item.currentHash
		item.currentHash = 0
		item.touched = false
		item.v.Reset()
		return true
	})

	for _, item := range toDel {
		s.data.Delete(item)
	}

	s.done = false
	s.touched = 0
}
