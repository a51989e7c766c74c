package asyncio

import "time"

// Clock returns milliseconds on a monotonic scale.
type Clock func() int64

func monotonicClock() Clock {
	start := time.Now()
	return func() int64 {
		return time.Since(start).Milliseconds()
	}
}
