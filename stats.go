package asyncio

import "sync/atomic"

type stats struct {
	reads     atomic.Uint64
	bytes     atomic.Uint64
	retries   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	aborted   atomic.Uint64
	live      atomic.Int64
}

// Stats is a snapshot of subsystem counters. Retries counts scheduled
// retries only; a stall past the retry ceiling counts as Failed. Live counts
// operations that have been submitted and not yet destroyed.
type Stats struct {
	Reads     uint64
	Bytes     uint64
	Retries   uint64
	Completed uint64
	Failed    uint64
	Aborted   uint64
	Live      int64
}

func (sys *Subsystem) Stats() Stats {
	return Stats{
		Reads:     sys.stats.reads.Load(),
		Bytes:     sys.stats.bytes.Load(),
		Retries:   sys.stats.retries.Load(),
		Completed: sys.stats.completed.Load(),
		Failed:    sys.stats.failed.Load(),
		Aborted:   sys.stats.aborted.Load(),
		Live:      sys.stats.live.Load(),
	}
}
