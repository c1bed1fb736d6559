// internal/stats/latency.go
package stats

import (
	"math"
	"sync"
	"time"
)

// LatencyWindowSize is the number of recent round-trips tracked.
const LatencyWindowSize = 100

// Latency tracks request round-trip times over a sliding window.
type Latency struct {
	mu      sync.Mutex
	samples []float64 // milliseconds, oldest first
	sum     float64
	sumSq   float64
}

// Observe records one completed round-trip.
func (l *Latency) Observe(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.samples = append(l.samples, ms)
	l.sum += ms
	l.sumSq += ms * ms

	if len(l.samples) > LatencyWindowSize {
		old := l.samples[0]
		l.samples = l.samples[1:]
		l.sum -= old
		l.sumSq -= old * old
	}
}

// Min returns the smallest latency in the window, in milliseconds.
func (l *Latency) Min() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.samples) == 0 {
		return 0
	}
	min := l.samples[0]
	for _, v := range l.samples[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest latency in the window, in milliseconds.
func (l *Latency) Max() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var max float64
	for _, v := range l.samples {
		if v > max {
			max = v
		}
	}
	return max
}

// Average returns the mean latency over the window, in milliseconds.
func (l *Latency) Average() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.samples) == 0 {
		return 0
	}
	return l.sum / float64(len(l.samples))
}

// StdDev returns the standard deviation over the window, in milliseconds.
// Fewer than two samples yield zero.
func (l *Latency) StdDev() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := float64(len(l.samples))
	if n < 2 {
		return 0
	}
	mean := l.sum / n
	variance := l.sumSq/n - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// Count is the number of samples currently in the window.
func (l *Latency) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}
