package limiter

import (
	"sync/atomic"
)

// New
// upperbound 小于 1 时不限制。
func New(upperbound int64) *Bucket {
	if upperbound < 1 {
		upperbound = 0
	}
	return &Bucket{
		upperbound: upperbound,
	}
}

type Bucket struct {
	upperbound int64
	tokens     atomic.Int64
}

func (bucket *Bucket) TryAcquire() bool {
	n := bucket.tokens.Add(1)
	if !bucket.ok() || n <= bucket.upperbound {
		return true
	}
	bucket.tokens.Add(-1)
	return false
}

func (bucket *Bucket) Revert() {
	bucket.tokens.Add(-1)
}

func (bucket *Bucket) Used() int64 {
	return bucket.tokens.Load()
}

func (bucket *Bucket) ok() bool {
	return bucket.upperbound > 0
}
