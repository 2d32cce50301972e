package parallel_test

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/paveg/grouper/internal/parallel"
	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool(t *testing.T) {
	pool := parallel.NewWorkerPool(0)
	defer pool.Close()
	assert.Equal(t, runtime.NumCPU(), pool.NumWorkers())

	pool2 := parallel.NewWorkerPool(4)
	defer pool2.Close()
	assert.Equal(t, 4, pool2.NumWorkers())

	pool3 := parallel.NewWorkerPool(-1)
	defer pool3.Close()
	assert.Equal(t, runtime.NumCPU(), pool3.NumWorkers())
}

func TestProcessIndexedPreservesOrder(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	input := make([]float64, 500)
	for i := range input {
		input[i] = float64(i) / 7
	}

	results := parallel.ProcessIndexed(pool, input, func(i int, v float64) float64 {
		return v*3 + float64(i)
	})

	assert.Len(t, results, len(input))
	for i, v := range input {
		assert.Equal(t, v*3+float64(i), results[i])
	}
}

func TestProcessIndexedEmpty(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	results := parallel.ProcessIndexed(pool, []int{}, func(_ int, x int) int { return x })
	assert.Nil(t, results)
}

func TestRange(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()

	var calls atomic.Int64
	results := parallel.Range(pool, 100, func(i int) int {
		calls.Add(1)
		return i * i
	})

	assert.Equal(t, int64(100), calls.Load())
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}
