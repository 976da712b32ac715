package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PositionLimiter caps the number of simulated positions open at once.
type PositionLimiter struct {
	mu    sync.Mutex
	max   int // 0 = unbounded
	open  int
	gauge prometheus.Gauge
}

// NewPositionLimiter creates a limiter. gauge may be nil.
func NewPositionLimiter(max int, gauge prometheus.Gauge) *PositionLimiter {
	return &PositionLimiter{max: max, gauge: gauge}
}

// TryAcquire reserves a slot. Returns false when the cap is reached.
func (l *PositionLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.open >= l.max {
		return false
	}
	l.open++
	l.set()
	return true
}

// Release frees a slot.
func (l *PositionLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open > 0 {
		l.open--
	}
	l.set()
}

// Open returns the number of reserved slots.
func (l *PositionLimiter) Open() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}

func (l *PositionLimiter) set() {
	if l.gauge != nil {
		l.gauge.Set(float64(l.open))
	}
}
