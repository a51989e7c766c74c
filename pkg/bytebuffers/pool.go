package bytebuffers

import (
	"github.com/brickingsoft/errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
)

const (
	minBitSize = 6
	steps      = 20

	minSize = 1 << minBitSize
	maxSize = 1 << (minBitSize + steps - 1)
)

var (
	ErrTooLarge  = errors.Define("bytebuffers: allocation exceeds limit")
	ErrExhausted = errors.Define("bytebuffers: allocator budget exhausted")
)

func IsAllocateFailed(err error) bool {
	return errors.Is(err, ErrTooLarge) || errors.Is(err, ErrExhausted)
}

// Allocator supplies destination buffers for owned reads.
type Allocator interface {
	Allocate(size int) (p []byte, err error)
	Free(p []byte)
}

var defaultPool = NewPool(0)

func Default() *Pool { return defaultPool }

// NewPool
// 创建按容量分级的缓冲池。limit 为同时在用字节数上限，0 表示不限。
func NewPool(limit int64) *Pool {
	if limit < 1 {
		limit = 0
	}
	return &Pool{limit: limit}
}

// Pool recycles buffers in power-of-two size classes from 64B to 32MB.
// Larger buffers are allocated directly and left to the collector.
type Pool struct {
	limit   int64
	inUse   atomic.Int64
	classes [steps]sync.Pool
}

func (p *Pool) Allocate(size int) (b []byte, err error) {
	if size < 0 || size > math.MaxInt32 {
		err = errors.From(ErrTooLarge, errors.WithMeta("size", strconv.Itoa(size)))
		return
	}
	if size == 0 {
		size = 1
	}
	if p.limit > 0 {
		if n := p.inUse.Add(int64(size)); n > p.limit {
			p.inUse.Add(-int64(size))
			err = ErrExhausted
			return
		}
	}
	if size > maxSize {
		b = make([]byte, size)
		return
	}
	idx := index(size)
	if v := p.classes[idx].Get(); v != nil {
		b = (*(v.(*[]byte)))[:size]
		return
	}
	b = make([]byte, size, minSize<<idx)
	return
}

func (p *Pool) Free(b []byte) {
	if b == nil {
		return
	}
	if p.limit > 0 {
		p.inUse.Add(-int64(len(b)))
	}
	c := cap(b)
	if c < minSize || c > maxSize {
		return
	}
	idx := index(c)
	if minSize<<idx != c {
		return
	}
	b = b[:0]
	p.classes[idx].Put(&b)
}

func (p *Pool) InUse() int64 {
	return p.inUse.Load()
}

func index(n int) int {
	n--
	n >>= minBitSize
	idx := 0
	for n > 0 {
		n >>= 1
		idx++
	}
	if idx >= steps {
		idx = steps - 1
	}
	return idx
}
