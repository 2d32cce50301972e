// Package grouper provides grouped aggregation over in-memory tables.
// This package is the sole public API for the library.
//
// A Table is an ordered set of equally long, uniquely named columns backed
// by Apache Arrow arrays. The six operations (CountBy, AggregateBy,
// HavingFilter, GroupTransform, RelativeFraction and
// CrossColumnRatioByGroup) never modify their input; each returns a new
// Table that the caller releases.
package grouper

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/config"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/groupby"
	grouperio "github.com/paveg/grouper/internal/io"
	"github.com/paveg/grouper/internal/monitoring"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
)

// Table is an immutable collection of named columns
type Table = table.Table

// ISeries provides a type-erased interface for a column of any type
type ISeries = series.ISeries

// Reduction is a named function from a group's values to one value
type Reduction = groupby.Reduction

// Spec is an ordered list of (column, reductions) entries for AggregateBy
type Spec = groupby.Spec

// SpecEntry is the serialized form of one Spec entry
type SpecEntry = groupby.SpecEntry

// AggregateOptions controls AggregateBy output ordering
type AggregateOptions = groupby.AggregateOptions

// RatioOptions controls CrossColumnRatioByGroup
type RatioOptions = groupby.RatioOptions

// Predicate decides whether HavingFilter keeps a group
type Predicate = groupby.Predicate

// Engine runs operations with a fixed configuration, logger and allocator
type Engine = groupby.Engine

// Option configures an Engine
type Option = groupby.Option

// MetricsCollector records per-operation metrics of an Engine
type MetricsCollector = monitoring.Collector

// OperationMetrics describes one completed operation
type OperationMetrics = monitoring.OperationMetrics

// Config holds the engine configuration
type Config = config.Config

// DivisionByZeroPolicy selects how ratios treat a zero denominator
type DivisionByZeroPolicy = config.DivisionByZeroPolicy

// TableError is the error type returned by every operation
type TableError = errors.TableError

// Supported reductions
const (
	Sum     = groupby.Sum
	Mean    = groupby.Mean
	Median  = groupby.Median
	Count   = groupby.Count
	Min     = groupby.Min
	Max     = groupby.Max
	Std     = groupby.Std
	Var     = groupby.Var
	First   = groupby.First
	Last    = groupby.Last
	NUnique = groupby.NUnique
)

// Division by zero policies
const (
	DivisionByZeroMissing = config.DivisionByZeroMissing
	DivisionByZeroError   = config.DivisionByZeroError
)

// Output column names of CountBy and RelativeFraction
const (
	CountColumn     = groupby.CountColumn
	AggCountsColumn = groupby.AggCountsColumn
	FractionColumn  = groupby.FractionColumn
)

// Error kinds, for use with errors.Is
var (
	ErrInvalidInput     = errors.ErrInvalidInput
	ErrInvalidColumn    = errors.ErrInvalidColumn
	ErrUnknownReduction = errors.ErrUnknownReduction
	ErrInvalidHierarchy = errors.ErrInvalidHierarchy
	ErrDivisionByZero   = errors.ErrDivisionByZero
	ErrUnsupportedType  = errors.ErrUnsupportedType
)

// NewSeries creates a column with every value present. Supported element
// types are string, int64, int32, float64, float32 and bool.
func NewSeries[T any](name string, values []T, mem memory.Allocator) (ISeries, error) {
	s, err := series.NewSafe(name, values, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewNullableSeries creates a column where valid[i] == false marks a
// missing value
func NewNullableSeries[T any](name string, values []T, valid []bool, mem memory.Allocator) (ISeries, error) {
	s, err := series.NewNullable(name, values, valid, mem)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewTable creates a Table that takes ownership of cols
func NewTable(cols ...ISeries) (*Table, error) {
	return table.New(cols...)
}

// NewSpec creates an empty aggregate specification
func NewSpec() *Spec {
	return groupby.NewSpec()
}

// ParseSpec builds a specification from reduction names
func ParseSpec(entries ...SpecEntry) (*Spec, error) {
	return groupby.ParseSpec(entries...)
}

// LoadSpecYAML parses a YAML list of {column, reductions} entries
func LoadSpecYAML(data []byte) (*Spec, error) {
	return groupby.LoadSpecYAML(data)
}

// ParseReduction resolves a reduction by name
func ParseReduction(name string) (Reduction, error) {
	return groupby.ParseReduction(name)
}

// SizeGreaterThan keeps groups with more than n rows
func SizeGreaterThan(n int) Predicate {
	return groupby.SizeGreaterThan(n)
}

// SizeAtLeast keeps groups with at least n rows
func SizeAtLeast(n int) Predicate {
	return groupby.SizeAtLeast(n)
}

// Not inverts a predicate
func Not(p Predicate) Predicate {
	return groupby.Not(p)
}

// NewEngine creates an engine; without options it uses the global config
func NewEngine(opts ...Option) (*Engine, error) {
	return groupby.NewEngine(opts...)
}

// NewMetricsCollector creates a collector for WithMetrics
func NewMetricsCollector() *MetricsCollector {
	return monitoring.NewCollector(true)
}

// Engine options for NewEngine
var (
	WithConfig    = groupby.WithConfig
	WithLogger    = groupby.WithLogger
	WithAllocator = groupby.WithAllocator
	WithMetrics   = groupby.WithMetrics
)

// CountBy returns one row per group with the group size in column "n"
func CountBy(t *Table, by ...string) (*Table, error) {
	return groupby.Default().CountBy(t, by...)
}

// AggregateBy applies every (column, reduction) pair of spec to each group
func AggregateBy(t *Table, by []string, spec *Spec, opts AggregateOptions) (*Table, error) {
	return groupby.Default().AggregateBy(t, by, spec, opts)
}

// HavingFilter keeps the rows of the groups for which keep returns true
func HavingFilter(t *Table, by []string, keep Predicate) (*Table, error) {
	return groupby.Default().HavingFilter(t, by, keep)
}

// GroupTransform broadcasts a per-group reduction of each target column
// back onto the rows of the group
func GroupTransform(t *Table, by []string, targets []string, r Reduction) (*Table, error) {
	return groupby.Default().GroupTransform(t, by, targets, r)
}

// WithGroupTransform returns t with a broadcast reduction of target added
// as column name
func WithGroupTransform(t *Table, by []string, target string, r Reduction, name string) (*Table, error) {
	return groupby.Default().WithGroupTransform(t, by, target, r, name)
}

// RelativeFraction reports each fine group's share of its coarse group
func RelativeFraction(t *Table, fine, coarse []string) (*Table, error) {
	return groupby.Default().RelativeFraction(t, fine, coarse)
}

// CrossColumnRatioByGroup reduces the per-row ratio numerator/denominator
// within each group
func CrossColumnRatioByGroup(t *Table, by []string, numerator, denominator string, opts RatioOptions) (*Table, error) {
	return groupby.Default().CrossColumnRatioByGroup(t, by, numerator, denominator, opts)
}

// ReadCSV loads a CSV file; NA, NaN, null and empty cells are missing
func ReadCSV(path string, mem memory.Allocator) (*Table, error) {
	return grouperio.ReadCSVFile(path, mem)
}

// ReadParquet loads a Parquet file
func ReadParquet(path string, mem memory.Allocator) (*Table, error) {
	return grouperio.ReadParquetFile(path, mem)
}

// ReadFile loads a .csv or .parquet file
func ReadFile(path string, mem memory.Allocator) (*Table, error) {
	return grouperio.ReadFile(path, mem)
}

// WriteFile saves t as .csv or .parquet
func WriteFile(path string, t *Table) error {
	return grouperio.WriteFile(path, t)
}

// Print writes an aligned preview of at most maxRows rows; 0 prints all
func Print(w io.Writer, t *Table, maxRows int) error {
	opts := grouperio.DefaultPrintOptions()
	opts.MaxRows = maxRows
	return grouperio.Print(w, t, opts)
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return config.NewConfig()
}

// LoadConfig reads a .json, .yaml or .yml configuration file
func LoadConfig(path string) (Config, error) {
	return config.LoadFromFile(path)
}

// LoadConfigFromEnv reads GROUPER_* environment variables over the defaults
func LoadConfigFromEnv() Config {
	return config.LoadFromEnv()
}

// SetConfig replaces the global configuration used by the free functions
func SetConfig(cfg Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// GetConfig returns the global configuration
func GetConfig() Config {
	return config.GetGlobalConfig()
}
