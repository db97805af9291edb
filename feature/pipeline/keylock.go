package pipeline

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// keyLocks provides per-key mutual exclusion via lock striping. Two keys may
// share a stripe (harmless extra serialization); one key never spans two, so
// compare-and-write on a key is always serialized even across runs that share
// the reconciler.
type keyLocks struct {
	stripes []sync.Mutex
}

func newKeyLocks(n int) *keyLocks {
	if n <= 0 {
		n = 64
	}
	return &keyLocks{stripes: make([]sync.Mutex, n)}
}

func (k *keyLocks) lock(key string) *sync.Mutex {
	idx := murmur3.Sum64([]byte(key)) % uint64(len(k.stripes))
	mu := &k.stripes[idx]
	mu.Lock()
	return mu
}
