// internal/poll/engine_test.go
package poll

import (
	"math"
	"testing"
	"time"

	"github.com/jmceleney/et112-proxy/internal/cache"
	"github.com/jmceleney/et112-proxy/internal/catalog"
)

// ---- fake remote client ----

type readCall struct {
	start uint16
	count uint16
	token uint32
}

type writeCall struct {
	addr  uint16
	value uint16
	token uint32
}

type fakeClient struct {
	reads  []readCall
	writes []writeCall
}

func (f *fakeClient) AddRequest(start, count uint16, token uint32) error {
	f.reads = append(f.reads, readCall{start, count, token})
	return nil
}

func (f *fakeClient) WriteSingle(addr, value uint16, token uint32) error {
	f.writes = append(f.writes, writeCall{addr, value, token})
	return nil
}

// ---- helpers ----

func def32(addr uint16) catalog.Definition {
	return catalog.Definition{Address: addr, Type: catalog.Int32, Description: "test"}
}

func newEngine(t *testing.T, dynamic, static []catalog.Definition) (*Engine, *fakeClient) {
	t.Helper()

	cat, err := catalog.New(dynamic, static)
	if err != nil {
		t.Fatalf("catalog.New() err=%v", err)
	}

	cli := &fakeClient{}
	e, err := New(Config{
		Catalog:  cat,
		Store:    cache.New(cat),
		Client:   cli,
		Interval: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return e, cli
}

// ---- tests ----

func TestTick_BatchesContiguous32BitRuns(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0), def32(2), def32(4), def32(6)}, nil)

	e.Tick()

	if len(cli.reads) != 1 {
		t.Fatalf("expected 1 request, got %d: %+v", len(cli.reads), cli.reads)
	}
	if cli.reads[0].start != 0 || cli.reads[0].count != 8 {
		t.Fatalf("request=%+v want start=0 count=8", cli.reads[0])
	}
}

func TestTick_SplitsOnGap(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0), def32(2), def32(4), def32(10)}, nil)

	e.Tick()

	if len(cli.reads) != 2 {
		t.Fatalf("expected 2 requests, got %d: %+v", len(cli.reads), cli.reads)
	}
	if cli.reads[0].start != 0 || cli.reads[0].count != 6 {
		t.Fatalf("first request=%+v want start=0 count=6", cli.reads[0])
	}
	if cli.reads[1].start != 10 || cli.reads[1].count != 2 {
		t.Fatalf("second request=%+v want start=10 count=2", cli.reads[1])
	}
}

func TestTick_RangeCapFlush(t *testing.T) {
	// 75 contiguous 32-bit registers = 150 words; the 100-register cap
	// forces a flush mid-run.
	var defs []catalog.Definition
	for a := uint16(0); a < 150; a += 2 {
		defs = append(defs, def32(a))
	}
	e, cli := newEngine(t, defs, nil)

	e.Tick()

	if len(cli.reads) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(cli.reads))
	}
	if cli.reads[0].start != 0 || cli.reads[0].count != 100 {
		t.Fatalf("first request=%+v want start=0 count=100", cli.reads[0])
	}
	if cli.reads[1].start != 100 || cli.reads[1].count != 50 {
		t.Fatalf("second request=%+v want start=100 count=50", cli.reads[1])
	}
}

func TestTick_Backpressure(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0)}, nil)

	now := time.Now()
	e.corr.Issue(0, 2, now)
	e.corr.Issue(2, 2, now)
	e.corr.Issue(4, 2, now)

	e.Tick()

	if len(cli.reads) != 0 {
		t.Fatalf("tick with 3 outstanding requests must issue nothing, got %+v", cli.reads)
	}
}

func TestTick_StaticFirstThenDynamic(t *testing.T) {
	dynamic := []catalog.Definition{def32(0)}
	static := []catalog.Definition{{Address: 770, Type: catalog.Uint16}}
	e, cli := newEngine(t, dynamic, static)

	e.Tick()
	if len(cli.reads) != 1 || cli.reads[0].start != 770 {
		t.Fatalf("first tick should poll static registers, got %+v", cli.reads)
	}

	// Respond to the static read; completion switches to dynamic polling.
	e.OnData([]byte{0x00, 0x07}, cli.reads[0].token)
	if !e.StaticFetched() {
		t.Fatalf("static set should be complete")
	}

	cli.reads = nil
	e.Tick()
	if len(cli.reads) != 1 || cli.reads[0].start != 0 {
		t.Fatalf("second tick should poll dynamic registers, got %+v", cli.reads)
	}
}

func TestNew_EmptyStaticSetPollsDynamicImmediately(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0)}, nil)

	if !e.StaticFetched() {
		t.Fatalf("empty static set should count as fetched")
	}

	// Repeated ticks with responses fed back must keep refreshing the
	// dynamic set rather than idling on the empty static one.
	for i := 0; i < 5; i++ {
		cli.reads = nil
		e.Tick()
		if len(cli.reads) != 1 || cli.reads[0].start != 0 {
			t.Fatalf("tick %d: dynamic registers not polled, reads=%+v", i, cli.reads)
		}
		e.OnData([]byte{0x00, 0x01, 0x00, 0x00}, cli.reads[0].token)
	}

	if !e.Operational() {
		t.Fatalf("engine should be operational with dynamic responses arriving")
	}
}

func TestNew_EmptyDynamicSetVacuouslyFetched(t *testing.T) {
	e, cli := newEngine(t, nil, []catalog.Definition{{Address: 770, Type: catalog.Uint16}})

	if !e.DynamicFetched() {
		t.Fatalf("empty dynamic set should count as fetched")
	}

	e.Tick()
	if len(cli.reads) != 1 || cli.reads[0].start != 770 {
		t.Fatalf("static registers not polled, reads=%+v", cli.reads)
	}

	e.OnData([]byte{0x00, 0x07}, cli.reads[0].token)
	if !e.Operational() {
		t.Fatalf("engine should be operational once the static set is fetched")
	}
}

func TestOnData_ByteOrderAndFetchTracking(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0)}, nil)

	e.Tick()
	if len(cli.reads) != 1 {
		t.Fatalf("expected 1 request, got %d", len(cli.reads))
	}

	// Value 0x00030001: low word 0x0001 transmitted first, then high word
	// 0x0003, each big-endian on the wire.
	e.OnData([]byte{0x00, 0x01, 0x00, 0x03}, cli.reads[0].token)

	if got := e.store.Read32(0); got != 0x00030001 {
		t.Fatalf("Read32(0)=%#x want=0x30001", got)
	}
	if !e.DynamicFetched() {
		t.Fatalf("dynamic set should be complete after full response")
	}
	if e.Outstanding() != 0 {
		t.Fatalf("Outstanding()=%d want=0", e.Outstanding())
	}
}

func TestOnData_UnknownTokenDiscarded(t *testing.T) {
	e, _ := newEngine(t, []catalog.Definition{def32(0)}, nil)

	e.OnData([]byte{0x00, 0x01, 0x00, 0x00}, 42)

	if got := e.store.Read32(0); got != 0 {
		t.Fatalf("unmatched response must not touch the store, got %#x", got)
	}
}

func TestOnError_RemovesEntryWithoutRetry(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0)}, nil)

	e.Tick()
	tok := cli.reads[0].token

	e.OnError(errTest, tok)
	if e.Outstanding() != 0 {
		t.Fatalf("Outstanding()=%d want=0 after error", e.Outstanding())
	}
	if len(cli.reads) != 1 {
		t.Fatalf("no retry may be synthesized, got %d requests", len(cli.reads))
	}
}

func TestOperationalTransitions(t *testing.T) {
	e, cli := newEngine(t,
		[]catalog.Definition{def32(0)},
		[]catalog.Definition{{Address: 770, Type: catalog.Uint16}})

	clock := time.Now()
	e.now = func() time.Time { return clock }

	// Static fetch.
	e.Tick()
	e.OnData([]byte{0x00, 0x07}, cli.reads[0].token)
	if e.Operational() {
		t.Fatalf("not operational until both sets are fetched")
	}

	// Dynamic fetch.
	cli.reads = nil
	e.Tick()
	e.OnData([]byte{0x00, 0x01, 0x00, 0x00}, cli.reads[0].token)
	if !e.Operational() {
		t.Fatalf("operational once both sets fetched and response is recent")
	}

	// Still inside the recency window.
	clock = clock.Add(e.tick + operationalSlack - time.Millisecond)
	e.Tick()
	if !e.Operational() {
		t.Fatalf("should remain operational inside the recency window")
	}

	// Window exceeded.
	clock = clock.Add(2 * time.Millisecond)
	e.Tick()
	if e.Operational() {
		t.Fatalf("should drop operational once the recency window is exceeded")
	}
}

func TestForwardWrite_MirrorsLocally(t *testing.T) {
	e, cli := newEngine(t, nil, []catalog.Definition{{Address: catalog.BaudRateRegister, Type: catalog.Uint16}})

	e.ForwardWrite(catalog.BaudRateRegister, 2)

	if len(cli.writes) != 1 {
		t.Fatalf("expected 1 forwarded write, got %d", len(cli.writes))
	}
	if cli.writes[0].addr != catalog.BaudRateRegister || cli.writes[0].value != 2 {
		t.Fatalf("write=%+v want addr=%d value=2", cli.writes[0], catalog.BaudRateRegister)
	}
	if got := e.store.Read16(catalog.BaudRateRegister); got != 2 {
		t.Fatalf("local mirror=%d want=2", got)
	}
	if e.Outstanding() != 0 {
		t.Fatalf("forwarded writes must not be correlated")
	}
}

func TestSetBaudRate_RejectsBadCode(t *testing.T) {
	e, cli := newEngine(t, nil, []catalog.Definition{{Address: catalog.BaudRateRegister, Type: catalog.Uint16}})

	if err := e.SetBaudRate(0); err == nil {
		t.Fatalf("code 0 should be rejected")
	}
	if err := e.SetBaudRate(6); err == nil {
		t.Fatalf("code 6 should be rejected")
	}
	if len(cli.writes) != 0 {
		t.Fatalf("rejected codes must not be forwarded")
	}

	if err := e.SetBaudRate(3); err != nil {
		t.Fatalf("SetBaudRate(3) err=%v", err)
	}
	if len(cli.writes) != 1 {
		t.Fatalf("expected 1 forwarded write, got %d", len(cli.writes))
	}
}

func TestLatencyObservedOnCompletion(t *testing.T) {
	e, cli := newEngine(t, []catalog.Definition{def32(0)}, nil)

	clock := time.Now()
	e.now = func() time.Time { return clock }

	e.Tick()
	clock = clock.Add(30 * time.Millisecond)
	e.OnData([]byte{0x00, 0x01, 0x00, 0x00}, cli.reads[0].token)

	if got := e.Latency().Max(); math.Abs(got-30) > 0.001 {
		t.Fatalf("latency=%vms want=30ms", got)
	}
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "test error" }
