// internal/stats/lockstats.go
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// LockStats is a mutex instrumented with contention counters. Every
// acquisition is counted; an acquisition that does not succeed immediately
// counts as contended and accrues wait time.
type LockStats struct {
	mu sync.Mutex

	attempts  atomic.Uint64
	contended atomic.Uint64
	waitNanos atomic.Int64
	holdNanos atomic.Int64
	holdMax   atomic.Int64

	lockedAt time.Time // valid while held
}

// LockCounters is a point-in-time copy of the contention counters.
type LockCounters struct {
	Attempts  uint64
	Contended uint64
	WaitTotal time.Duration
	HoldTotal time.Duration
	HoldMax   time.Duration
}

func (ls *LockStats) Lock() {
	ls.attempts.Add(1)

	if !ls.mu.TryLock() {
		ls.contended.Add(1)
		start := time.Now()
		ls.mu.Lock()
		ls.waitNanos.Add(int64(time.Since(start)))
	}

	ls.lockedAt = time.Now()
}

func (ls *LockStats) Unlock() {
	held := int64(time.Since(ls.lockedAt))
	ls.holdNanos.Add(held)
	for {
		max := ls.holdMax.Load()
		if held <= max || ls.holdMax.CompareAndSwap(max, held) {
			break
		}
	}
	ls.mu.Unlock()
}

// Counters returns a copy of the current contention counters.
func (ls *LockStats) Counters() LockCounters {
	return LockCounters{
		Attempts:  ls.attempts.Load(),
		Contended: ls.contended.Load(),
		WaitTotal: time.Duration(ls.waitNanos.Load()),
		HoldTotal: time.Duration(ls.holdNanos.Load()),
		HoldMax:   time.Duration(ls.holdMax.Load()),
	}
}
