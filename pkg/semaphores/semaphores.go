package semaphores

import (
	"context"
	"github.com/brickingsoft/errors"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTimeout = errors.Define("semaphores: invalid timeout")
	ErrClosed         = errors.Define("semaphores: closed")
)

func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// New
// 创建计数信号量，timeout 为 Wait 的默认等待上限。
func New(timeout time.Duration) (v *Semaphore, err error) {
	if timeout < 1 {
		err = ErrInvalidTimeout
		return
	}
	v = &Semaphore{
		timeout: timeout,
		timer:   time.NewTimer(timeout),
		ch:      make(chan struct{}, 1),
	}
	v.timer.Stop()
	return
}

// Semaphore is a counting semaphore with a single waiter.
// Signal never blocks; tokens accumulate until taken by TryWait or Wait.
type Semaphore struct {
	timeout time.Duration
	timer   *time.Timer
	ch      chan struct{}
	count   atomic.Int64
	closed  atomic.Bool
}

func (s *Semaphore) Signal() {
	if s.closed.Load() {
		return
	}
	s.count.Add(1)
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *Semaphore) TryWait() bool {
	for {
		n := s.count.Load()
		if n < 1 {
			return false
		}
		if s.count.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (s *Semaphore) Count() int64 {
	return s.count.Load()
}

func (s *Semaphore) Wait(ctx context.Context) (err error) {
	err = s.WaitTimeout(ctx, s.timeout)
	return
}

// WaitTimeout
// 等待一个信号，超时返回 context.DeadlineExceeded。
func (s *Semaphore) WaitTimeout(ctx context.Context, timeout time.Duration) (err error) {
	if timeout < 1 {
		timeout = s.timeout
	}
	s.timer.Reset(timeout)
	defer s.timer.Stop()
	for {
		if s.TryWait() {
			return
		}
		if s.closed.Load() {
			err = ErrClosed
			return
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case <-s.timer.C:
			if s.TryWait() {
				return
			}
			err = context.DeadlineExceeded
			return
		case <-s.ch:
		}
	}
}

func (s *Semaphore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.timer.Stop()
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
	return nil
}
