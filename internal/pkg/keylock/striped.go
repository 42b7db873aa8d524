// Package keylock provides mutual exclusion scoped to a string key.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultStripes is the stripe count used when NewStriped receives a non-positive value.
const DefaultStripes = 256

// Striped maps every key onto one of a fixed set of mutexes. Two callers holding
// the same key are always serialized; different keys may share a stripe, which
// only costs throughput, never correctness.
type Striped struct {
	stripes []sync.Mutex
}

// NewStriped creates a lock with n stripes.
func NewStriped(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

// Lock blocks until key's stripe is held and returns the function releasing it.
//
// Example:
//
//	unlock := locks.Lock(orderID.String())
//	defer unlock()
func (s *Striped) Lock(key string) func() {
	m := &s.stripes[s.index(key)]
	m.Lock()
	return m.Unlock
}

func (s *Striped) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(s.stripes)))
}
