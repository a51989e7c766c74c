package asyncio

import (
	"github.com/brickingsoft/asyncio/pkg/bytebuffers"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"log/slog"
	"time"
)

const (
	DefaultRetryCeiling        = 10
	DefaultRequestBytes        = 512 * 1024
	DefaultIdleTimeout         = 500 * time.Millisecond
	DefaultBackoffPollInterval = time.Millisecond
)

type Options struct {
	RetryCeiling        int
	DefaultRequestBytes int
	IdleTimeout         time.Duration
	BackoffPollInterval time.Duration
	MaxOperations       int64
	Allocator           bytebuffers.Allocator
	Executors           rxp.Executors
	Logger              *slog.Logger
	Clock               Clock
}

type Option func(options *Options) (err error)

// WithRetryCeiling
// 设置零字节读取的最大重试次数，默认 10。超过后操作失败。
func WithRetryCeiling(n int) Option {
	return func(options *Options) (err error) {
		if n < 0 {
			err = errors.New("retry ceiling must not be negative", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.RetryCeiling = n
		return
	}
}

// WithDefaultRequestBytes
// 设置未指定时每次读取的字节数，默认 512KB。
func WithDefaultRequestBytes(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			err = errors.New("default request bytes must great than 0", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.DefaultRequestBytes = n
		return
	}
}

// WithIdleTimeout
// 设置工作协程空闲时的等待上限。
func WithIdleTimeout(d time.Duration) Option {
	return func(options *Options) (err error) {
		if d > 0 {
			options.IdleTimeout = d
		}
		return
	}
}

// WithBackoffPollInterval
// 设置所有操作都处于退避期时的最短等待间隔，工作协程等待到最早的重试时间。
func WithBackoffPollInterval(d time.Duration) Option {
	return func(options *Options) (err error) {
		if d > 0 {
			options.BackoffPollInterval = d
		}
		return
	}
}

// WithMaxOperations
// 设置同时存活的操作数上限，默认为0即无上限。
func WithMaxOperations(n int64) Option {
	return func(options *Options) (err error) {
		if n > 0 {
			options.MaxOperations = n
		}
		return
	}
}

// WithAllocator
// 设置目标缓冲分配器，默认为 bytebuffers.Default()。
func WithAllocator(allocator bytebuffers.Allocator) Option {
	return func(options *Options) (err error) {
		if allocator == nil {
			err = errors.New("allocator is nil", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.Allocator = allocator
		return
	}
}

// WithExecutors
// 使用外部执行器运行工作协程，Fini 不会关闭它。
func WithExecutors(executors rxp.Executors) Option {
	return func(options *Options) (err error) {
		options.Executors = executors
		return
	}
}

// WithLogger
// 设置日志，默认使用 Logger()。
func WithLogger(logger *slog.Logger) Option {
	return func(options *Options) (err error) {
		options.Logger = logger
		return
	}
}

// WithClock
// 设置毫秒时钟，用于重试退避。
func WithClock(clock Clock) Option {
	return func(options *Options) (err error) {
		if clock == nil {
			err = errors.New("clock is nil", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.Clock = clock
		return
	}
}
