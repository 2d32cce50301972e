// Package testutil provides common testing utilities shared by the table,
// groupby and io test suites.
//
// It consolidates:
// - Memory allocator setup and cleanup
// - The standard penguin test table
// - Common table assertions
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides a memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a checked memory allocator for tests. Release
// fails the test if any buffer allocated through it is still live, so it
// must run after every table built on the allocator has been released.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	checked := memory.NewCheckedAllocator(memory.NewGoAllocator())
	return &TestMemoryContext{
		Allocator: checked,
		cleanup: func() {
			tb.Helper()
			checked.AssertSize(tb, 0)
		},
	}
}

// TestTableOption configures penguin table creation.
type TestTableOption func(*testTableConfig)

type testTableConfig struct {
	includeNulls bool
	rowCount     int
}

// WithNulls blanks out the measurements of one Adelie row and the sex of
// the last Gentoo row, as in the real dataset.
func WithNulls() TestTableOption {
	return func(cfg *testTableConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount repeats the base rows cyclically up to count rows.
func WithRowCount(count int) TestTableOption {
	return func(cfg *testTableConfig) {
		cfg.rowCount = count
	}
}

type penguin struct {
	species, island string
	billLength      float64
	billDepth       float64
	flipperLength   int64
	bodyMass        int64
	sex             string
	year            int64
	missingMeasures bool
	missingSex      bool
}

var basePenguins = []penguin{
	{species: "Adelie", island: "Torgersen", billLength: 39.1, billDepth: 18.7, flipperLength: 181, bodyMass: 3750, sex: "male", year: 2007},
	{species: "Adelie", island: "Torgersen", billLength: 39.5, billDepth: 17.4, flipperLength: 186, bodyMass: 3800, sex: "female", year: 2007},
	{species: "Adelie", island: "Torgersen", billLength: 40.3, billDepth: 18.0, flipperLength: 195, bodyMass: 3250, sex: "female", year: 2007, missingMeasures: true, missingSex: true},
	{species: "Adelie", island: "Biscoe", billLength: 37.8, billDepth: 18.3, flipperLength: 174, bodyMass: 3400, sex: "female", year: 2007},
	{species: "Adelie", island: "Dream", billLength: 39.5, billDepth: 16.7, flipperLength: 178, bodyMass: 3250, sex: "female", year: 2007},
	{species: "Gentoo", island: "Biscoe", billLength: 46.1, billDepth: 13.2, flipperLength: 211, bodyMass: 4500, sex: "female", year: 2007},
	{species: "Gentoo", island: "Biscoe", billLength: 50.0, billDepth: 16.3, flipperLength: 230, bodyMass: 5700, sex: "male", year: 2007},
	{species: "Gentoo", island: "Biscoe", billLength: 48.7, billDepth: 14.1, flipperLength: 210, bodyMass: 4450, sex: "female", year: 2007},
	{species: "Chinstrap", island: "Dream", billLength: 46.5, billDepth: 17.9, flipperLength: 192, bodyMass: 3500, sex: "female", year: 2007},
	{species: "Chinstrap", island: "Dream", billLength: 50.0, billDepth: 19.5, flipperLength: 196, bodyMass: 3900, sex: "male", year: 2007},
	{species: "Chinstrap", island: "Dream", billLength: 51.3, billDepth: 19.2, flipperLength: 193, bodyMass: 3650, sex: "male", year: 2007},
	{species: "Gentoo", island: "Biscoe", billLength: 44.5, billDepth: 14.3, flipperLength: 216, bodyMass: 4100, sex: "female", year: 2008, missingSex: true},
}

// PenguinColumns lists the columns of CreatePenguinTable in order.
var PenguinColumns = []string{
	"species", "island", "bill_length_mm", "bill_depth_mm",
	"flipper_length_mm", "body_mass_g", "sex", "year",
}

// CreatePenguinTable creates the standard test table: a subset of the
// Palmer penguins data.
//
// Default table (12 rows, first appearance order Adelie, Gentoo, Chinstrap):
// - Adelie: 3 Torgersen, 1 Biscoe, 1 Dream
// - Gentoo: 4 Biscoe
// - Chinstrap: 3 Dream
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
//	tbl := testutil.CreatePenguinTable(mem.Allocator, testutil.WithNulls())
//	defer tbl.Release()
func CreatePenguinTable(allocator memory.Allocator, opts ...TestTableOption) *table.Table {
	cfg := &testTableConfig{rowCount: len(basePenguins)}
	for _, opt := range opts {
		opt(cfg)
	}

	n := cfg.rowCount
	species := make([]string, n)
	islands := make([]string, n)
	billLength := make([]float64, n)
	billDepth := make([]float64, n)
	flipper := make([]int64, n)
	mass := make([]int64, n)
	sex := make([]string, n)
	years := make([]int64, n)
	measured := make([]bool, n)
	sexed := make([]bool, n)

	for i := range n {
		p := basePenguins[i%len(basePenguins)]
		species[i] = p.species
		islands[i] = p.island
		billLength[i] = p.billLength
		billDepth[i] = p.billDepth
		flipper[i] = p.flipperLength
		mass[i] = p.bodyMass
		sex[i] = p.sex
		years[i] = p.year
		measured[i] = !(cfg.includeNulls && p.missingMeasures)
		sexed[i] = !(cfg.includeNulls && p.missingSex)
	}

	return table.MustNew(
		series.New("species", species, allocator),
		series.New("island", islands, allocator),
		mustNullable("bill_length_mm", billLength, measured, allocator),
		mustNullable("bill_depth_mm", billDepth, measured, allocator),
		mustNullable("flipper_length_mm", flipper, measured, allocator),
		mustNullable("body_mass_g", mass, measured, allocator),
		mustNullable("sex", sex, sexed, allocator),
		series.New("year", years, allocator),
	)
}

// CreateSimpleTestTable creates the three-row table used in small examples:
// g1 = [A, A, B], g2 = [X, X, Y], v = [1, 2, 3].
func CreateSimpleTestTable(allocator memory.Allocator) *table.Table {
	return table.MustNew(
		series.New("g1", []string{"A", "A", "B"}, allocator),
		series.New("g2", []string{"X", "X", "Y"}, allocator),
		series.New("v", []int64{1, 2, 3}, allocator),
	)
}

func mustNullable[T any](name string, values []T, valid []bool, allocator memory.Allocator) series.ISeries {
	s, err := series.NewNullable(name, values, valid, allocator)
	if err != nil {
		panic(err)
	}
	return s
}

// ColumnValues returns the values of column as Go values; nil marks a
// missing value.
func ColumnValues(t *testing.T, tbl *table.Table, column string) []any {
	t.Helper()

	require.True(t, tbl.HasColumn(column), "table should have column %s", column)
	out := make([]any, tbl.Len())
	for i := range out {
		v, err := tbl.Value(column, i)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

// AssertTableEqual compares two tables value by value.
func AssertTableEqual(t *testing.T, expected, actual *table.Table) {
	t.Helper()

	require.NotNil(t, expected, "expected table should not be nil")
	require.NotNil(t, actual, "actual table should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "table lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "table columns should match")

	for _, col := range expected.Columns() {
		if !actual.HasColumn(col) {
			continue
		}
		et, _ := expected.ColumnType(col)
		at, _ := actual.ColumnType(col)
		assert.Equal(t, et.ID(), at.ID(), "column %s type should match", col)
		assert.Equal(t, ColumnValues(t, expected, col), ColumnValues(t, actual, col),
			"column %s data should match", col)
	}
}

// AssertTableHasColumns verifies that a table has exactly the expected
// columns, in order.
func AssertTableHasColumns(t *testing.T, tbl *table.Table, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, tbl, "table should not be nil")
	assert.Equal(t, expectedColumns, tbl.Columns())
}

// AssertTableNotEmpty verifies that a table has rows and columns.
func AssertTableNotEmpty(t *testing.T, tbl *table.Table) {
	t.Helper()

	require.NotNil(t, tbl, "table should not be nil")
	assert.Positive(t, tbl.Len(), "table should not be empty")
	assert.Positive(t, tbl.Width(), "table should have columns")
}
