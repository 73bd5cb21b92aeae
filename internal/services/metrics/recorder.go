// Package metrics records per-operation timings in a fixed-size ring
// buffer for the status endpoint and structured logs.
package metrics

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const defaultCapacity = 512

// Recorder keeps the most recent performance metrics in memory. Writes
// overwrite the oldest entry once the buffer is full.
type Recorder struct {
	mu     sync.Mutex
	buffer []models.PerformanceMetric
	next   int
	filled bool
	logger arbor.ILogger
}

var _ interfaces.MetricsRecorder = (*Recorder)(nil)

func NewRecorder(capacity int, logger arbor.ILogger) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{
		buffer: make([]models.PerformanceMetric, capacity),
		logger: logger,
	}
}

func (r *Recorder) Record(component, operation string, duration time.Duration, success bool, errKind string) {
	metric := models.PerformanceMetric{
		Component: component,
		Operation: operation,
		Duration:  duration,
		Success:   success,
		ErrorKind: errKind,
		At:        time.Now(),
	}

	r.mu.Lock()
	r.buffer[r.next] = metric
	r.next = (r.next + 1) % len(r.buffer)
	if r.next == 0 {
		r.filled = true
	}
	r.mu.Unlock()

	event := r.logger.Debug().
		Str("component", component).
		Str("operation", operation).
		Dur("duration", duration)
	if !success {
		event = event.Str("error_kind", errKind)
	}
	event.Msg("Operation recorded")
}

// Recent returns up to limit metrics, newest first.
func (r *Recorder) Recent(limit int) []models.PerformanceMetric {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.filled {
		size = len(r.buffer)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	metrics := make([]models.PerformanceMetric, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.buffer)) % len(r.buffer)
		metrics = append(metrics, r.buffer[idx])
	}
	return metrics
}
