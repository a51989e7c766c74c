package asyncio

import (
	"github.com/brickingsoft/asyncio/pkg/reference"
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"github.com/brickingsoft/errors"
	"io"
	"math"
	"sync/atomic"
)

const backoffStepMillis = 25

type readResult int

const (
	readDone readResult = iota
	readProgress
	readDeferred
)

// Operation is one asynchronous read of a file into a destination buffer.
//
// The worker goroutine owns the scheduling fields; Name, Size, Tell, Bytes
// and Status may be polled from any goroutine and report eventually
// consistent progress.
type Operation struct {
	link link
	sys  *Subsystem
	seq  uint64

	file  vfs.File
	name  string
	dst   []byte
	owned bool
	total int

	transferred atomic.Int64
	status      atomic.Int32
	refs        reference.Counter

	sink       Sink
	conf       ReadConfig
	needConfig bool
	priority   int64
	retries    int
	retryAt    int64
}

func newOperation(sys *Subsystem, file vfs.File, name string, dst []byte, bytes int, sink Sink) (op *Operation, err error) {
	op = &Operation{
		sys:        sys,
		name:       name,
		sink:       sink,
		needConfig: true,
	}
	op.refs.Init(1)
	if dst == nil {
		remaining := file.Size() - file.Tell()
		if remaining < 0 {
			remaining = 0
		}
		if remaining > math.MaxInt32 {
			sys.log().Warn("asyncio: file too large, read truncated", "name", name, "remaining", remaining)
			remaining = math.MaxInt32
		}
		total := int(remaining)
		if bytes > 0 && bytes < total {
			total = bytes
		}
		size := max(total, 1)
		buf, allocErr := sys.allocator.Allocate(size)
		if allocErr != nil {
			op = nil
			err = errors.From(
				ErrAllocate,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpSubmit),
				errors.WithMeta(errMetaNameKey, name),
				errors.WithWrap(allocErr),
			)
			return
		}
		buf = buf[:size]
		buf[size-1] = 0
		op.dst = buf
		op.owned = true
		op.total = total
	} else {
		total := len(dst)
		if bytes > 0 && bytes < total {
			total = bytes
		}
		op.dst = dst
		op.total = total
	}
	file.Grab()
	op.file = file
	return
}

func (op *Operation) Name() string {
	return op.name
}

// Size returns the number of bytes this operation will transfer at most.
func (op *Operation) Size() int {
	return op.total
}

// Tell returns the number of bytes transferred so far.
func (op *Operation) Tell() int {
	return int(op.transferred.Load())
}

// Bytes returns the destination buffer. Only the first Tell() bytes are
// meaningful until the operation succeeds.
func (op *Operation) Bytes() []byte {
	return op.dst
}

func (op *Operation) Status() Status {
	return Status(op.status.Load())
}

// Cancel
// 取消读取。已成功的操作不会被改写。
func (op *Operation) Cancel() {
	if op.status.CompareAndSwap(int32(Pending), int32(Aborted)) {
		op.sys.stats.aborted.Add(1)
	}
}

func (op *Operation) Grab() {
	op.refs.Grab()
}

// Drop releases one reference. The last one hands the operation to the
// trash list; it is destroyed on the next Step or at Fini.
func (op *Operation) Drop() {
	if op.refs.Drop() {
		op.sys.trash(op)
	}
}

func (op *Operation) finish(status Status) {
	if op.status.CompareAndSwap(int32(Pending), int32(status)) {
		switch status {
		case Success:
			op.sys.stats.completed.Add(1)
		case Failure:
			op.sys.stats.failed.Add(1)
		default:
		}
	}
}

func (op *Operation) notify(n int, status Status) {
	if op.sink != nil {
		op.sink.IONotify(n, status)
	}
}

func (op *Operation) span() int {
	span := op.conf.RequestBytes
	if align := op.file.AlignReqs(); align > 1 {
		span = (span + align - 1) / align * align
	}
	if span > op.conf.MaxBytes {
		span = op.conf.MaxBytes
	}
	if remain := op.total - op.Tell(); span > remain {
		span = remain
	}
	if span < 0 {
		span = 0
	}
	return span
}

// read performs one scheduling quantum.
func (op *Operation) read() readResult {
	if op.Status() != Pending {
		return readDone
	}
	sys := op.sys
	if op.retries > 0 && sys.clock() < op.retryAt {
		return readDeferred
	}
	op.updateConfig()

	transferred := op.Tell()
	span := op.span()
	n, err := op.file.Read(op.dst[transferred : transferred+span])
	sys.stats.reads.Add(1)

	if n > 0 {
		op.transferred.Add(int64(n))
		sys.stats.bytes.Add(uint64(n))
		op.retries = 0
		op.needConfig = true
		op.notify(n, op.Status())
		return readProgress
	}

	if errors.Is(err, io.EOF) || op.file.IsEnd() || transferred >= op.total {
		clear(op.dst[transferred:op.total])
		op.finish(Success)
		op.notify(0, op.Status())
		return readDone
	}

	op.retries++
	if op.retries <= sys.retryCeiling {
		sys.stats.retries.Add(1)
		delay := int64(backoffStepMillis * op.retries * op.retries)
		op.retryAt = sys.clock() + delay
		sys.log().Debug("asyncio: read stalled, retrying",
			"name", op.name, "retries", op.retries, "delay_ms", delay, "error", err)
		return readDeferred
	}
	sys.log().Warn("asyncio: read failed, retry ceiling exceeded",
		"name", op.name, "retries", op.retries, "transferred", transferred, "error", err)
	op.finish(Failure)
	op.notify(0, op.Status())
	return readDone
}

func (op *Operation) destroy() {
	_ = op.file.Drop()
	if op.owned {
		op.sys.allocator.Free(op.dst)
	}
	op.dst = nil
	op.sys.limiter.Revert()
	op.sys.stats.live.Add(-1)
}
