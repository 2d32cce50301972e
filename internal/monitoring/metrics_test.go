package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("disabled collector records nothing", func(t *testing.T) {
		c := NewCollector(false)
		assert.False(t, c.IsEnabled())

		c.Record(OperationMetrics{Operation: "CountBy"})
		c.Start("AggregateBy", 10, 2, false)()
		assert.Empty(t, c.Metrics())
		assert.Equal(t, Summary{}, c.Summary())
	})

	t.Run("nil collector is a no-op", func(t *testing.T) {
		var c *Collector
		c.SetEnabled(true)
		c.Clear()
		assert.False(t, c.IsEnabled())
		c.Record(OperationMetrics{Operation: "CountBy"})
		c.Start("CountBy", 1, 1, false)()
		assert.Nil(t, c.Metrics())
		assert.Equal(t, Summary{}, c.Summary())
	})

	t.Run("start records duration and shape", func(t *testing.T) {
		c := NewCollector(true)

		done := c.Start("HavingFilter", 31, 5, false)
		time.Sleep(time.Millisecond)
		done()

		metrics := c.Metrics()
		require.Len(t, metrics, 1)
		assert.Equal(t, "HavingFilter", metrics[0].Operation)
		assert.Equal(t, 31, metrics[0].Rows)
		assert.Equal(t, 5, metrics[0].Groups)
		assert.GreaterOrEqual(t, metrics[0].Duration, time.Millisecond)
	})

	t.Run("toggle and clear", func(t *testing.T) {
		c := NewCollector(true)
		c.Record(OperationMetrics{Operation: "CountBy"})
		c.SetEnabled(false)
		c.Record(OperationMetrics{Operation: "CountBy"})
		assert.Len(t, c.Metrics(), 1)

		c.Clear()
		assert.Empty(t, c.Metrics())
	})
}

func TestSummary(t *testing.T) {
	c := NewCollector(true)
	c.Record(OperationMetrics{Operation: "CountBy", Duration: 10 * time.Millisecond, Rows: 100, Groups: 3})
	c.Record(OperationMetrics{Operation: "CountBy", Duration: 20 * time.Millisecond, Rows: 100, Groups: 3, Parallel: true})
	c.Record(OperationMetrics{Operation: "AggregateBy", Duration: 30 * time.Millisecond, Rows: 50, Groups: 2})

	s := c.Summary()
	assert.Equal(t, 3, s.TotalOperations)
	assert.Equal(t, 60*time.Millisecond, s.TotalDuration)
	assert.Equal(t, 20*time.Millisecond, s.AverageDuration)
	assert.Equal(t, 250, s.TotalRows)
	assert.Equal(t, 8, s.TotalGroups)
	assert.Equal(t, 1, s.ParallelOperations)
	assert.Equal(t, map[string]int{"CountBy": 2, "AggregateBy": 1}, s.OperationCounts)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector(true)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				c.Start("CountBy", 1, 1, false)()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.Metrics(), 200)
}
