package diffstore

import (
	"cmp"

	"github.com/google/btree"
)

// Item wraps a value with the bookkeeping the Store needs to compute diffs.
type Item[K cmp.Ordered, V Leaf] struct {
	k K
	v V

	touched      bool
	previousHash uint64
	currentHash  uint64
}

func (i1 *Item[K, V]) Less(other btree.Item) bool {
	return i1.k < other.(*Item[K, V]).k
}

func (i *Item[K, V]) Key() K { return i.k }
func (i *Item[K, V]) Value() V { return i.v }

func (i *Item[K, V]) Created() bool {
	return i.touched && i.previousHash == 0
}

func (i *Item[K, V]) Updated() bool {
	return i.touched && i.previousHash != 0 && i.previousHash != i.currentHash
}

func (i *Item[K, V]) Changed() bool {
	return i.touched && i.previousHash != i.currentHash
}

func (i *Item[K, V]) Deleted() bool {
	return !i.touched && i.previousHash != 0
}
