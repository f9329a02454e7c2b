package llm

import (
	"sync"
	"time"

	"github.com/Spotas/Ai-rewrite/internal/retry"
)

// MetricsSnapshot is a copy of the pipeline counters.
type MetricsSnapshot struct {
	TotalRequests       int64         `json:"totalRequests"`
	SuccessfulRequests  int64         `json:"successfulRequests"`
	FailedRequests      int64         `json:"failedRequests"`
	TotalAttempts       int64         `json:"totalAttempts"`
	AverageResponseTime time.Duration `json:"averageResponseTime"`
	LastError           string        `json:"lastError,omitempty"`
}

// Metrics aggregates pipeline outcomes.
type Metrics struct {
	mu        sync.Mutex
	snap      MetricsSnapshot
	totalTime time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Observe records one Execute call.
func (m *Metrics) Observe(r retry.RetryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.TotalRequests++
	m.snap.TotalAttempts += int64(r.Attempts)
	if r.Success {
		m.snap.SuccessfulRequests++
	} else {
		m.snap.FailedRequests++
		if r.LastError != nil {
			m.snap.LastError = r.LastError.Error()
		}
	}
	m.totalTime += r.TotalDuration
	m.snap.AverageResponseTime = m.totalTime / time.Duration(m.snap.TotalRequests)
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}
