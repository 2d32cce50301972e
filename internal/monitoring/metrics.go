// Package monitoring collects per-operation metrics for grouped operations.
package monitoring

import (
	"sync"
	"time"
)

// OperationMetrics describes one completed grouped operation
type OperationMetrics struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration"`
	Rows      int           `json:"rows"`
	Groups    int           `json:"groups"`
	Parallel  bool          `json:"parallel"`
}

// Collector stores operation metrics. It is safe for concurrent use and a
// nil *Collector discards everything.
type Collector struct {
	mu      sync.RWMutex
	metrics []OperationMetrics
	enabled bool
}

// NewCollector creates a collector
func NewCollector(enabled bool) *Collector {
	return &Collector{
		metrics: make([]OperationMetrics, 0),
		enabled: enabled,
	}
}

// IsEnabled reports whether Record stores anything
func (c *Collector) IsEnabled() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables collection
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Record appends m when collection is enabled
func (c *Collector) Record(m OperationMetrics) {
	if !c.IsEnabled() {
		return
	}
	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.mu.Unlock()
}

// Start begins timing an operation; the returned func records it
func (c *Collector) Start(operation string, rows, groups int, parallel bool) func() {
	if !c.IsEnabled() {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.Record(OperationMetrics{
			Operation: operation,
			Duration:  time.Since(start),
			Rows:      rows,
			Groups:    groups,
			Parallel:  parallel,
		})
	}
}

// Metrics returns a copy of the recorded metrics in completion order
func (c *Collector) Metrics() []OperationMetrics {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]OperationMetrics, len(c.metrics))
	copy(result, c.metrics)
	return result
}

// Clear removes all recorded metrics
func (c *Collector) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = c.metrics[:0]
}

// Summary aggregates the recorded metrics
func (c *Collector) Summary() Summary {
	if c == nil {
		return Summary{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.metrics) == 0 {
		return Summary{}
	}

	s := Summary{
		TotalOperations: len(c.metrics),
		OperationCounts: make(map[string]int),
	}
	for _, m := range c.metrics {
		s.TotalDuration += m.Duration
		s.TotalRows += m.Rows
		s.TotalGroups += m.Groups
		s.OperationCounts[m.Operation]++
		if m.Parallel {
			s.ParallelOperations++
		}
	}
	s.AverageDuration = s.TotalDuration / time.Duration(len(c.metrics))
	return s
}

// Summary provides aggregate statistics over recorded operations
type Summary struct {
	TotalOperations    int            `json:"total_operations"`
	TotalDuration      time.Duration  `json:"total_duration"`
	AverageDuration    time.Duration  `json:"average_duration"`
	TotalRows          int            `json:"total_rows"`
	TotalGroups        int            `json:"total_groups"`
	ParallelOperations int            `json:"parallel_operations"`
	OperationCounts    map[string]int `json:"operation_counts"`
}
