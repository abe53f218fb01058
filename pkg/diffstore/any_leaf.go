package diffstore

import "cmp"

// AnyLeaf wraps a snapshot value of any type as a diffstore Leaf, comparing
// values with a caller-supplied equality function.
type AnyLeaf[T any] struct {
	equal func(a, b T) bool
	value T
	hash  uint64
}

// NewAnyStore creates a Store of AnyLeaf values, comparing successive
// Set() calls with equal to decide whether the hash should advance.
func NewAnyStore[K cmp.Ordered, T any](equal func(a, b T) bool) *Store[K, *AnyLeaf[T]] {
	return New[K](func() *AnyLeaf[T] { return &AnyLeaf[T]{equal: equal, hash: 1} })
}

func (l *AnyLeaf[T]) Reset() {}

func (l *AnyLeaf[T]) Hash() uint64 { return l.hash }

func (l *AnyLeaf[T]) Get() T { return l.value }

func (l *AnyLeaf[T]) Set(v T) {
	if !l.equal(l.value, v) {
		l.hash++
	}
	l.value = v
}
