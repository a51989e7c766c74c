package asyncio

// Sink receives progress of one operation and may steer its scheduling.
//
// Both methods are called from the worker goroutine only, serially, in the
// order the reads happened. IOConfig returning false selects the defaults.
type Sink interface {
	IOConfig(conf *ReadConfig) bool
	IONotify(n int, status Status)
}
