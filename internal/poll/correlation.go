// internal/poll/correlation.go
package poll

import (
	"time"

	"github.com/jmceleney/et112-proxy/internal/stats"
)

const (
	// TableCapacity bounds the number of in-flight correlation entries.
	TableCapacity = 200

	// StaleAfter is the age past which an entry is purged regardless of
	// whether its response ever arrived.
	StaleAfter = 4 * time.Second
)

// Entry records one outbound read request awaiting its response.
type Entry struct {
	Start  uint16
	Count  uint16
	Issued time.Time
}

// Correlation maps request tokens to in-flight read requests. The token map
// and the insertion-order queue are guarded by a single instrumented mutex
// and are never updated independently.
type Correlation struct {
	lock     *stats.LockStats
	entries  map[uint32]Entry
	order    []uint32 // insertion order, oldest first
	next     uint32   // next token; wraps at 32 bits
	capacity int
}

// NewCorrelation builds a table with the given capacity, instrumenting its
// critical section with ls.
func NewCorrelation(capacity int, ls *stats.LockStats) *Correlation {
	if ls == nil {
		ls = &stats.LockStats{}
	}
	return &Correlation{
		lock:     ls,
		entries:  make(map[uint32]Entry),
		capacity: capacity,
	}
}

// Issue allocates the next token and records the request. If the table is at
// capacity the oldest-inserted entry is evicted first.
func (c *Correlation) Issue(start, count uint16, now time.Time) uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	token := c.next
	c.next++

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[token] = Entry{Start: start, Count: count, Issued: now}
	c.order = append(c.order, token)
	return token
}

// NextToken allocates a token without recording an entry, for fire-and-forget
// requests whose responses are not correlated.
func (c *Correlation) NextToken() uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	token := c.next
	c.next++
	return token
}

// Complete removes and returns the entry for token, then opportunistically
// sweeps entries older than StaleAfter.
func (c *Correlation) Complete(token uint32, now time.Time) (Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	e, ok := c.entries[token]
	if ok {
		c.remove(token)
	}
	c.sweep(now)
	return e, ok
}

// Sweep removes every entry older than StaleAfter.
func (c *Correlation) Sweep(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sweep(now)
}

// sweep removes stale entries. Caller holds the lock.
func (c *Correlation) sweep(now time.Time) {
	for token, e := range c.entries {
		if now.Sub(e.Issued) > StaleAfter {
			c.remove(token)
		}
	}
}

// remove deletes token from both the map and the queue. Caller holds the lock.
func (c *Correlation) remove(token uint32) {
	delete(c.entries, token)
	for i, t := range c.order {
		if t == token {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len is the number of in-flight entries.
func (c *Correlation) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}
