package groupby

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/config"
	"github.com/paveg/grouper/internal/monitoring"
	"github.com/paveg/grouper/internal/parallel"
)

// Engine runs grouping operations with a fixed configuration, logger and
// allocator. An Engine holds no mutable state and may be shared.
type Engine struct {
	cfg     config.Config
	logger  *slog.Logger
	mem     memory.Allocator
	metrics *monitoring.Collector
}

// Option configures an Engine
type Option func(*Engine)

// WithConfig sets the engine configuration
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger operations write debug records to
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAllocator sets the Arrow allocator for result tables
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Engine) {
		e.mem = mem
	}
}

// WithMetrics records every operation in c
func WithMetrics(c *monitoring.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// NewEngine creates an engine. Without options it uses the global
// configuration, slog.Default and a Go allocator.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    config.GetGlobalConfig(),
		logger: slog.Default(),
		mem:    memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.cfg = e.cfg.WithDefaults()
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.mem == nil {
		e.mem = memory.NewGoAllocator()
	}
	return e, nil
}

// Default returns an engine built from the current global configuration
func Default() *Engine {
	e, err := NewEngine()
	if err != nil {
		// The global configuration was replaced with an invalid one; fall
		// back to the built-in defaults rather than failing every call.
		e, _ = NewEngine(WithConfig(config.NewConfig()))
	}
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() config.Config {
	return e.cfg
}

// reduceGroups applies r to arr for every group of g. Past the parallel
// threshold groups are spread over a worker pool; each group is still
// reduced in row order, so the output matches the sequential path exactly.
func (e *Engine) reduceGroups(g *Grouping, arr arrow.Array, r Reduction) []reduced {
	n := g.NumGroups()
	if n >= e.cfg.ParallelThreshold {
		pool := parallel.NewWorkerPool(e.cfg.WorkerPoolSize)
		defer pool.Close()
		return parallel.Range(pool, n, func(gid int) reduced {
			return reduceRows(arr, g.Rows(gid), r)
		})
	}

	out := make([]reduced, n)
	for gid := range out {
		out[gid] = reduceRows(arr, g.Rows(gid), r)
	}
	return out
}

// logOp logs the shape of an operation and starts its metrics record.
// Callers defer the returned func.
func (e *Engine) logOp(op string, t rowCounter, g *Grouping, attrs ...any) func() {
	isParallel := g.NumGroups() >= e.cfg.ParallelThreshold
	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		args := []any{"op", op, "rows", t.Len(), "by", g.by, "groups", g.NumGroups(), "parallel", isParallel}
		e.logger.Debug("grouped operation", append(args, attrs...)...)
	}
	return e.metrics.Start(op, t.Len(), g.NumGroups(), isParallel)
}

type rowCounter interface {
	Len() int
}
