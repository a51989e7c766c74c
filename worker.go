package asyncio

import (
	"context"
	"time"
)

// worker drains the submit queue and services operations round-robin
// in priority order. The pending list is touched by the worker goroutine only.
type worker struct {
	sys       *Subsystem
	pending   opList
	lastFrame int64
	deferred  int
}

func newWorker(sys *Subsystem) *worker {
	return &worker{
		sys:       sys,
		pending:   newOpList(listPending),
		lastFrame: -1,
	}
}

// workerTask runs the worker loop on an rxp executor.
type workerTask struct {
	w *worker
}

func (t workerTask) Handle(_ context.Context) {
	t.w.run()
}

func (w *worker) run() {
	sys := w.sys
	defer close(sys.done)
	for {
		w.wait()
		if sys.quit.Load() {
			break
		}
		w.drain()
		w.reprioritize()
		w.service()
	}
	w.shutdown()
}

func (w *worker) wait() {
	sem := w.sys.sem
	switch {
	case w.pending.empty():
		_ = sem.WaitTimeout(context.Background(), w.sys.idleTimeout)
	case w.deferred >= w.pending.len:
		// every pending operation sits in a backoff window
		_ = sem.WaitTimeout(context.Background(), w.backoffDelay())
		w.deferred = 0
	default:
		sem.TryWait()
	}
}

// backoffDelay is the time left until the earliest retry among the pending
// operations, never shorter than the backoff poll interval.
func (w *worker) backoffDelay() time.Duration {
	earliest := int64(-1)
	for op := w.pending.head; op != nil; op = op.link.next {
		if op.retries == 0 {
			return w.sys.backoffPoll
		}
		if earliest < 0 || op.retryAt < earliest {
			earliest = op.retryAt
		}
	}
	if earliest < 0 {
		return w.sys.backoffPoll
	}
	delay := time.Duration(earliest-w.sys.clock()) * time.Millisecond
	if delay < w.sys.backoffPoll {
		delay = w.sys.backoffPoll
	}
	return delay
}

func (w *worker) drain() {
	sys := w.sys
	sys.submitMu.Lock()
	n := w.pending.spliceFrom(&sys.submit)
	sys.submitMu.Unlock()
	if n > 0 {
		w.deferred = 0
	}
}

func (w *worker) reprioritize() {
	frame := w.sys.frame.Load()
	if frame == w.lastFrame {
		return
	}
	w.lastFrame = frame
	if w.pending.empty() {
		return
	}
	ops := w.pending.slice()
	for _, op := range ops {
		op.updateConfig()
		op.calcPriority(frame)
	}
	sortByPriority(ops)
	w.pending.reorder(ops)
}

func (w *worker) service() {
	op := w.pending.popFront()
	if op == nil {
		return
	}
	switch op.read() {
	case readProgress:
		w.pending.pushBack(op)
		w.deferred = 0
	case readDeferred:
		w.pending.pushBack(op)
		w.deferred++
	default:
		w.retire(op)
	}
}

func (w *worker) retire(op *Operation) {
	w.sys.unregister(op)
	op.Drop()
}

func (w *worker) shutdown() {
	sys := w.sys
	sys.submitMu.Lock()
	sys.closed = true
	w.pending.spliceFrom(&sys.submit)
	sys.submitMu.Unlock()
	for op := w.pending.popFront(); op != nil; op = w.pending.popFront() {
		op.Cancel()
		w.retire(op)
	}
}
