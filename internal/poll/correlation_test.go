// internal/poll/correlation_test.go
package poll

import (
	"testing"
	"time"
)

func TestCorrelation_IssueAndComplete(t *testing.T) {
	c := NewCorrelation(TableCapacity, nil)
	now := time.Now()

	tok := c.Issue(100, 6, now)
	e, ok := c.Complete(tok, now.Add(25*time.Millisecond))
	if !ok {
		t.Fatalf("Complete() should find the entry")
	}
	if e.Start != 100 || e.Count != 6 {
		t.Fatalf("entry=%+v want start=100 count=6", e)
	}
	if c.Len() != 0 {
		t.Fatalf("Len()=%d want=0 after completion", c.Len())
	}

	// Completing again must miss.
	if _, ok := c.Complete(tok, now); ok {
		t.Fatalf("second Complete() should miss")
	}
}

func TestCorrelation_CapacityBoundFIFO(t *testing.T) {
	c := NewCorrelation(5, nil)
	now := time.Now()

	var tokens []uint32
	for i := 0; i < 8; i++ {
		tokens = append(tokens, c.Issue(uint16(i), 1, now))
	}

	if c.Len() != 5 {
		t.Fatalf("Len()=%d want=5", c.Len())
	}

	// Tokens 0..2 were evicted oldest-first; 3..7 remain.
	for _, tok := range tokens[:3] {
		if _, ok := c.Complete(tok, now); ok {
			t.Fatalf("token %d should have been evicted", tok)
		}
	}
	if _, ok := c.Complete(tokens[3], now); !ok {
		t.Fatalf("token %d should still be present", tokens[3])
	}
}

func TestCorrelation_SweepStaleEntries(t *testing.T) {
	c := NewCorrelation(TableCapacity, nil)
	start := time.Now()

	c.Issue(0, 2, start)
	fresh := c.Issue(10, 2, start.Add(StaleAfter))

	// Sweeping past the threshold drops only the old entry.
	c.Sweep(start.Add(StaleAfter + time.Millisecond))

	if c.Len() != 1 {
		t.Fatalf("Len()=%d want=1 after sweep", c.Len())
	}
	if _, ok := c.Complete(fresh, start.Add(StaleAfter)); !ok {
		t.Fatalf("fresh token should survive the sweep")
	}
}

func TestCorrelation_CompleteSweepsOpportunistically(t *testing.T) {
	c := NewCorrelation(TableCapacity, nil)
	start := time.Now()

	c.Issue(0, 2, start) // goes stale
	live := c.Issue(10, 2, start.Add(StaleAfter))

	if _, ok := c.Complete(live, start.Add(StaleAfter+time.Millisecond)); !ok {
		t.Fatalf("live token should complete")
	}
	if c.Len() != 0 {
		t.Fatalf("Len()=%d want=0: stale entry should be swept on completion", c.Len())
	}
}

func TestCorrelation_NextTokenDoesNotRecord(t *testing.T) {
	c := NewCorrelation(TableCapacity, nil)

	tok := c.NextToken()
	if c.Len() != 0 {
		t.Fatalf("NextToken() must not record an entry")
	}
	if _, ok := c.Complete(tok, time.Now()); ok {
		t.Fatalf("uncorrelated token should not complete")
	}
}
