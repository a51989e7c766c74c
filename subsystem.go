package asyncio

import (
	"cmp"
	"context"
	"github.com/brickingsoft/asyncio/pkg/bytebuffers"
	"github.com/brickingsoft/asyncio/pkg/rate/limiter"
	"github.com/brickingsoft/asyncio/pkg/semaphores"
	"github.com/brickingsoft/asyncio/pkg/vfs"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// New
// 创建异步读取子系统，调用 Init 后开始工作。
func New(options ...Option) (sys *Subsystem, err error) {
	opt := Options{
		RetryCeiling:        DefaultRetryCeiling,
		DefaultRequestBytes: DefaultRequestBytes,
		IdleTimeout:         DefaultIdleTimeout,
		BackoffPollInterval: DefaultBackoffPollInterval,
	}
	for _, option := range options {
		if err = option(&opt); err != nil {
			return
		}
	}
	if opt.Allocator == nil {
		opt.Allocator = bytebuffers.Default()
	}
	if opt.Clock == nil {
		opt.Clock = monotonicClock()
	}
	sys = &Subsystem{
		retryCeiling:        opt.RetryCeiling,
		defaultRequestBytes: opt.DefaultRequestBytes,
		idleTimeout:         opt.IdleTimeout,
		backoffPoll:         opt.BackoffPollInterval,
		allocator:           opt.Allocator,
		limiter:             limiter.New(opt.MaxOperations),
		executors:           opt.Executors,
		logger:              opt.Logger,
		clock:               opt.Clock,
		submit:              newOpList(listSubmit),
		trashList:           newOpList(listTrash),
		live:                make(map[*Operation]struct{}),
		stopped:             true,
		closed:              true,
	}
	return
}

// Subsystem schedules asynchronous reads on one worker goroutine.
//
// Callers submit with ReadFile and poll the returned operations. Step is
// expected once per frame from the owning goroutine: it reclaims released
// operations and advances the frame id used for priorities.
type Subsystem struct {
	retryCeiling        int
	defaultRequestBytes int
	idleTimeout         time.Duration
	backoffPoll         time.Duration
	allocator           bytebuffers.Allocator
	limiter             *limiter.Bucket
	executors           rxp.Executors
	ownedExecutors      bool
	logger              *slog.Logger
	clock               Clock

	running atomic.Bool
	quit    atomic.Bool
	sem     *semaphores.Semaphore
	done    chan struct{}
	frame   atomic.Int64

	submitMu sync.Mutex
	submit   opList
	closed   bool

	trashMu   sync.Mutex
	trashList opList
	stopped   bool

	liveMu sync.Mutex
	live   map[*Operation]struct{}
	seq    uint64

	trackMu sync.Mutex
	tracked []*Operation

	stats stats
}

func (sys *Subsystem) log() *slog.Logger {
	if sys.logger != nil {
		return sys.logger
	}
	return Logger()
}

// Init
// 启动工作协程。
func (sys *Subsystem) Init() (err error) {
	if !sys.running.CompareAndSwap(false, true) {
		err = ErrAlreadyRunning
		return
	}
	sem, semErr := semaphores.New(sys.idleTimeout)
	if semErr != nil {
		sys.running.Store(false)
		err = errors.From(
			ErrStartup,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpInit),
			errors.WithWrap(semErr),
		)
		sys.log().Error("asyncio: create semaphore failed", "error", semErr)
		return
	}
	sys.sem = sem
	sys.quit.Store(false)
	sys.done = make(chan struct{})

	sys.submitMu.Lock()
	sys.closed = false
	sys.submitMu.Unlock()
	sys.trashMu.Lock()
	sys.stopped = false
	sys.trashMu.Unlock()

	executors := sys.executors
	if executors == nil {
		var newErr error
		if executors, newErr = rxp.New(); newErr != nil {
			sys.log().Error("asyncio: create executors failed", "error", newErr)
			sys.abortInit(sem)
			err = errors.From(
				ErrStartup,
				errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
				errors.WithMeta(errMetaOpKey, errMetaOpInit),
				errors.WithWrap(newErr),
			)
			return
		}
		sys.ownedExecutors = true
	}
	task := workerTask{w: newWorker(sys)}
	if execErr := executors.Execute(context.Background(), task); execErr != nil {
		sys.log().Error("asyncio: start worker failed", "error", execErr)
		if sys.ownedExecutors {
			_ = executors.Close()
			sys.ownedExecutors = false
		}
		sys.abortInit(sem)
		err = errors.From(
			ErrStartup,
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpInit),
			errors.WithWrap(execErr),
		)
		return
	}
	sys.executors = executors
	return
}

func (sys *Subsystem) abortInit(sem *semaphores.Semaphore) {
	_ = sem.Close()
	sys.submitMu.Lock()
	sys.closed = true
	sys.submitMu.Unlock()
	sys.trashMu.Lock()
	sys.stopped = true
	sys.trashMu.Unlock()
	sys.running.Store(false)
}

// Fini
// 停止工作协程，未完成的操作被取消，回收所有已释放的操作。
func (sys *Subsystem) Fini() (err error) {
	if !sys.running.CompareAndSwap(true, false) {
		err = ErrNotRunning
		return
	}
	sys.quit.Store(true)
	sys.sem.Signal()
	<-sys.done
	_ = sys.sem.Close()
	if sys.ownedExecutors {
		err = sys.executors.Close()
		sys.executors = nil
		sys.ownedExecutors = false
	}

	sys.trackMu.Lock()
	tracked := sys.tracked
	sys.tracked = nil
	sys.trackMu.Unlock()
	for _, op := range tracked {
		sys.Close(op)
	}

	sys.trashMu.Lock()
	sys.stopped = true
	ops := sys.takeTrash()
	sys.trashMu.Unlock()
	for _, op := range ops {
		op.destroy()
	}
	return
}

func (sys *Subsystem) Running() bool {
	return sys.running.Load()
}

// Step
// 每帧调用一次：关闭已结束的托管操作，回收垃圾，帧号加一。
func (sys *Subsystem) Step() {
	sys.trackMu.Lock()
	kept := sys.tracked[:0]
	var finished []*Operation
	for _, op := range sys.tracked {
		if op.Status() != Pending {
			finished = append(finished, op)
			continue
		}
		kept = append(kept, op)
	}
	clear(sys.tracked[len(kept):])
	sys.tracked = kept
	sys.trackMu.Unlock()
	for _, op := range finished {
		sys.Close(op)
	}
	sys.purge()
	sys.frame.Add(1)
}

// Frame returns the current frame id.
func (sys *Subsystem) Frame() int64 {
	return sys.frame.Load()
}

// ReadFile
// 提交一次异步读取。
//
// dst 为 nil 时由子系统分配缓冲，大小为文件当前位置到末尾的字节数，bytes > 0 时取较小者。
// dst 非 nil 时读取 bytes（不超过 len(dst)）个字节，bytes <= 0 表示 len(dst)。
// sink 可为 nil。返回的操作持有一个引用，使用 Close 释放。
func (sys *Subsystem) ReadFile(file vfs.File, name string, dst []byte, bytes int, sink Sink) (op *Operation, err error) {
	if file == nil {
		err = ErrNilFile
		return
	}
	if !sys.running.Load() {
		err = ErrNotRunning
		return
	}
	if !sys.limiter.TryAcquire() {
		sys.log().Warn("asyncio: too many operations", "name", name, "live", sys.limiter.Used())
		err = ErrBusy
		return
	}
	op, err = newOperation(sys, file, name, dst, bytes, sink)
	if err != nil {
		sys.limiter.Revert()
		sys.log().Error("asyncio: create operation failed", "name", name, "error", err)
		return
	}
	sys.stats.live.Add(1)
	sys.register(op)
	// reference held by the worker while the operation is scheduled
	op.Grab()

	sys.submitMu.Lock()
	if sys.closed {
		sys.submitMu.Unlock()
		sys.unregister(op)
		op.destroy()
		op = nil
		err = ErrNotRunning
		return
	}
	sys.submit.pushBack(op)
	sys.submitMu.Unlock()
	sys.sem.Signal()
	return
}

// Close
// 取消并释放操作，op 为 nil 时无操作。
func (sys *Subsystem) Close(op *Operation) {
	if op == nil {
		return
	}
	op.Cancel()
	op.Drop()
}

// Track hands the caller's reference of op to the subsystem. Step closes
// it once it is no longer pending.
func (sys *Subsystem) Track(op *Operation) {
	if op == nil {
		return
	}
	sys.trackMu.Lock()
	sys.tracked = append(sys.tracked, op)
	sys.trackMu.Unlock()
}

// EnumPending
// 按提交顺序遍历尚未结束的操作，fn 返回 false 时停止。
// 遍历期间每个操作都被持有引用，fn 不应阻塞。
func (sys *Subsystem) EnumPending(fn func(op *Operation) bool) {
	sys.liveMu.Lock()
	ops := make([]*Operation, 0, len(sys.live))
	for op := range sys.live {
		op.Grab()
		ops = append(ops, op)
	}
	sys.liveMu.Unlock()
	slices.SortFunc(ops, func(a, b *Operation) int {
		return cmp.Compare(a.seq, b.seq)
	})
	stop := false
	for _, op := range ops {
		if !stop && op.Status() == Pending {
			stop = !fn(op)
		}
		op.Drop()
	}
}

func (sys *Subsystem) register(op *Operation) {
	sys.liveMu.Lock()
	sys.seq++
	op.seq = sys.seq
	sys.live[op] = struct{}{}
	sys.liveMu.Unlock()
}

func (sys *Subsystem) unregister(op *Operation) {
	sys.liveMu.Lock()
	delete(sys.live, op)
	sys.liveMu.Unlock()
}

func (sys *Subsystem) trash(op *Operation) {
	sys.trashMu.Lock()
	if sys.stopped {
		sys.trashMu.Unlock()
		op.destroy()
		return
	}
	sys.trashList.pushBack(op)
	sys.trashMu.Unlock()
}

// takeTrash must be called with trashMu held.
func (sys *Subsystem) takeTrash() []*Operation {
	ops := make([]*Operation, 0, sys.trashList.len)
	for op := sys.trashList.popFront(); op != nil; op = sys.trashList.popFront() {
		ops = append(ops, op)
	}
	return ops
}

func (sys *Subsystem) purge() {
	sys.trashMu.Lock()
	ops := sys.takeTrash()
	sys.trashMu.Unlock()
	for _, op := range ops {
		op.destroy()
	}
}
