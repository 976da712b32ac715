package monitor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxRecentFailures = 50

// TaskFailure is a monitoring task that ended in ERRORED.
type TaskFailure struct {
	Mint  string    `json:"mint"`
	Err   string    `json:"error"`
	Stack string    `json:"-"`
	At    time.Time `json:"at"`
}

// FailureCollector receives failures from every monitoring task.
type FailureCollector struct {
	mu     sync.Mutex
	total  int64
	recent []TaskFailure
	logger *zap.Logger
}

// NewFailureCollector creates a collector.
func NewFailureCollector(logger *zap.Logger) *FailureCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureCollector{logger: logger}
}

// Report records a task failure.
func (c *FailureCollector) Report(f TaskFailure) {
	c.logger.Error("monitor task failed",
		zap.String("mint", f.Mint),
		zap.String("error", f.Err),
		zap.String("stack", f.Stack),
	)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	c.recent = append(c.recent, f)
	if len(c.recent) > maxRecentFailures {
		c.recent = c.recent[len(c.recent)-maxRecentFailures:]
	}
}

// Total returns the number of failures reported.
func (c *FailureCollector) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Recent returns the latest failures, oldest first.
func (c *FailureCollector) Recent() []TaskFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TaskFailure(nil), c.recent...)
}
