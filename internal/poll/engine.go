// internal/poll/engine.go
package poll

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmceleney/et112-proxy/internal/cache"
	"github.com/jmceleney/et112-proxy/internal/catalog"
	"github.com/jmceleney/et112-proxy/internal/stats"
)

const (
	// maxOutstanding is the backpressure threshold: a tick issues nothing
	// while more than this many requests are unresolved.
	maxOutstanding = 2

	// maxRangeRegisters caps how many registers one batched read may span.
	maxRangeRegisters = 100

	// operationalSlack is added to the tick interval when judging how
	// recently a successful response must have arrived.
	operationalSlack = 6 * time.Second
)

// Client is the remote transport the engine issues requests through.
// Requests are fire-and-forget; responses come back on the callback path.
type Client interface {
	AddRequest(start, count uint16, token uint32) error
	WriteSingle(addr, value uint16, token uint32) error
}

// Engine owns the polling scheduler, the correlation table and the response
// ingestion path. One Engine polls one remote device into one store.
type Engine struct {
	cat     *catalog.Catalog
	store   *cache.Store
	client  Client
	corr    *Correlation
	latency *stats.Latency
	tick    time.Duration

	mu             sync.Mutex
	fetchedStatic  map[uint16]struct{}
	fetchedDynamic map[uint16]struct{}

	staticDone  atomic.Bool
	dynamicDone atomic.Bool
	operational atomic.Bool
	lastSuccess atomic.Int64 // unix nanos; 0 until the first response

	now func() time.Time
}

// Config carries the engine's construction parameters.
type Config struct {
	Catalog  *catalog.Catalog
	Store    *cache.Store
	Client   Client
	Interval time.Duration

	// TableLock, when set, instruments the correlation table's critical
	// section. Optional.
	TableLock *stats.LockStats
}

// New builds an engine. The catalog, store and client are required.
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil || cfg.Store == nil || cfg.Client == nil {
		return nil, errors.New("poll: catalog, store and client required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poll: interval must be > 0")
	}

	e := &Engine{
		cat:            cfg.Catalog,
		store:          cfg.Store,
		client:         cfg.Client,
		corr:           NewCorrelation(TableCapacity, cfg.TableLock),
		latency:        &stats.Latency{},
		tick:           cfg.Interval,
		fetchedStatic:  make(map[uint16]struct{}),
		fetchedDynamic: make(map[uint16]struct{}),
		now:            time.Now,
	}

	// An empty address set is vacuously fetched; the completion flags
	// otherwise latch only on response ingestion and would never fire.
	if len(cfg.Catalog.StaticAddresses()) == 0 {
		e.staticDone.Store(true)
	}
	if len(cfg.Catalog.DynamicAddresses()) == 0 {
		e.dynamicDone.Store(true)
	}

	return e, nil
}

// Run drives the tick loop until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick performs one scheduler pass: apply backpressure, choose the static or
// dynamic address set, issue one batched read per contiguous run, and
// recompute the operational flag.
func (e *Engine) Tick() {
	if e.corr.Len() > maxOutstanding {
		e.updateOperational()
		return
	}

	addrs := e.cat.DynamicAddresses()
	if !e.staticDone.Load() {
		addrs = e.cat.StaticAddresses()
	}

	now := e.now()
	for _, r := range contiguousRanges(addrs, e.cat, maxRangeRegisters) {
		token := e.corr.Issue(r.start, r.count, now)
		if err := e.client.AddRequest(r.start, r.count, token); err != nil {
			log.Printf("poll: request %d+%d token=%d dropped: %v", r.start, r.count, token, err)
		}
	}

	e.updateOperational()
}

// regRange is one contiguous run of registers satisfiable by a single read.
type regRange struct {
	start uint16
	count uint16
}

// contiguousRanges partitions a sorted address set into maximal contiguous
// runs, accounting for 32-bit registers occupying two addresses. A run is
// flushed on a gap, when it reaches the register cap, or at the end.
func contiguousRanges(addrs []uint16, cat *catalog.Catalog, limit uint16) []regRange {
	var out []regRange
	var cur regRange
	var next uint16 // address expected to continue the current run
	open := false

	for _, addr := range addrs {
		words := cat.Words(addr)
		if words == 0 {
			words = 1
		}

		if open && addr == next && cur.count+words <= limit {
			cur.count += words
			next = addr + words
			continue
		}

		if open {
			out = append(out, cur)
		}
		cur = regRange{start: addr, count: words}
		next = addr + words
		open = true
	}

	if open {
		out = append(out, cur)
	}
	return out
}

// updateOperational recomputes the derived health flag: both fetch cycles
// complete and a successful response within the recency window.
func (e *Engine) updateOperational() {
	last := e.lastSuccess.Load()
	fresh := last != 0 && e.now().Sub(time.Unix(0, last)) <= e.tick+operationalSlack

	e.operational.Store(fresh && e.staticDone.Load() && e.dynamicDone.Load())
}

// Operational reports whether the cache is being refreshed within policy.
// Responders answer nothing while this is false.
func (e *Engine) Operational() bool { return e.operational.Load() }

// StaticFetched reports whether every static register has been fetched.
func (e *Engine) StaticFetched() bool { return e.staticDone.Load() }

// DynamicFetched reports whether every dynamic register has been fetched at
// least once.
func (e *Engine) DynamicFetched() bool { return e.dynamicDone.Load() }

// Outstanding is the number of unresolved requests.
func (e *Engine) Outstanding() int { return e.corr.Len() }

// Latency exposes the round-trip statistics window.
func (e *Engine) Latency() *stats.Latency { return e.latency }

// ForwardWrite sends a single-register write to the remote device and
// optimistically mirrors it into the local store, subject to the sanity
// filter. The response is not correlated.
func (e *Engine) ForwardWrite(addr, value uint16) {
	token := e.corr.NextToken()
	if err := e.client.WriteSingle(addr, value, token); err != nil {
		log.Printf("poll: forwarded write addr=%d token=%d failed: %v", addr, token, err)
	}
	e.store.Write(addr, uint32(value), false)
}

// SetBaudRate writes the ET112 RS485 baud rate configuration register.
// Valid codes are 1 (9.6 kbps) through 5 (115.2 kbps).
func (e *Engine) SetBaudRate(code uint16) error {
	if code < 1 || code > 5 {
		return errors.New("poll: baud rate code out of range")
	}
	e.ForwardWrite(catalog.BaudRateRegister, code)
	return nil
}
