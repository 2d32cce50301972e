// Package table provides the in-memory table that grouping operations read
// from and produce. A Table is an ordered list of uniquely named, equally
// long columns. Every method that derives data returns a new Table; the
// receiver is never modified.
package table

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/validation"
)

// Table represents a table of data with typed columns
type Table struct {
	columns []series.ISeries
	index   map[string]int
	length  int
}

// New creates a Table from columns. Column names must be unique and all
// columns must have the same length. The table takes ownership of the
// columns; Release releases them.
func New(cols ...series.ISeries) (*Table, error) {
	t := &Table{
		columns: make([]series.ISeries, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}

	for i, s := range cols {
		if s == nil {
			return nil, errors.NewInvalidInputError("New", fmt.Sprintf("column %d is nil", i))
		}
		if _, dup := t.index[s.Name()]; dup {
			return nil, &errors.TableError{
				Op:      "New",
				Column:  s.Name(),
				Message: "duplicate column name",
				Kind:    errors.KindInvalidInput,
			}
		}
		if i == 0 {
			t.length = s.Len()
		} else if err := validation.ValidateLength(t.length, s.Len(), "New", "column "+s.Name()); err != nil {
			return nil, err
		}
		t.index[s.Name()] = len(t.columns)
		t.columns = append(t.columns, s)
	}

	return t, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(cols ...series.ISeries) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns the names of all columns in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, s := range t.columns {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.length
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.columns)
}

// Column returns the series for the given column name
func (t *Table) Column(name string) (series.ISeries, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn checks if a column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnType returns the Arrow type of a column
func (t *Table) ColumnType(name string) (arrow.DataType, bool) {
	s, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	return s.DataType(), true
}

// Value returns the value at row of column as a Go value; nil means missing
func (t *Table) Value(column string, row int) (any, error) {
	s, ok := t.Column(column)
	if !ok {
		return nil, errors.NewColumnNotFoundError("Value", column)
	}
	if row < 0 || row >= t.length {
		return nil, errors.NewInvalidInputError("Value", fmt.Sprintf("row %d out of bounds [0, %d)", row, t.length))
	}
	arr := s.Array()
	defer arr.Release()
	return series.ValueAt(arr, row), nil
}

// Select returns a new Table with only the specified columns, in the
// order given
func (t *Table) Select(names ...string) (*Table, error) {
	if err := validation.ValidateColumns(t, "Select", names...); err != nil {
		return nil, err
	}

	cols := make([]series.ISeries, 0, len(names))
	for _, name := range names {
		s, _ := t.Column(name)
		renamed, err := series.Rename(s, name)
		if err != nil {
			releaseAll(cols)
			return nil, errors.NewInternalError("Select", err)
		}
		cols = append(cols, renamed)
	}
	return New(cols...)
}

// WithColumn returns a new Table with col appended, or replacing the column
// of the same name in place. col must have the table's length; the caller
// keeps ownership of col.
func (t *Table) WithColumn(col series.ISeries) (*Table, error) {
	if t.Width() > 0 {
		if err := validation.ValidateLength(t.length, col.Len(), "WithColumn", "column "+col.Name()); err != nil {
			return nil, err
		}
	}

	cols := make([]series.ISeries, 0, len(t.columns)+1)
	replaced := false
	for _, s := range t.columns {
		src := s
		if s.Name() == col.Name() {
			src = col
			replaced = true
		}
		shared, err := series.Rename(src, src.Name())
		if err != nil {
			releaseAll(cols)
			return nil, errors.NewInternalError("WithColumn", err)
		}
		cols = append(cols, shared)
	}
	if !replaced {
		shared, err := series.Rename(col, col.Name())
		if err != nil {
			releaseAll(cols)
			return nil, errors.NewInternalError("WithColumn", err)
		}
		cols = append(cols, shared)
	}

	return New(cols...)
}

// Take returns a new Table made of the rows at indices, in that order
func (t *Table) Take(indices []int, mem memory.Allocator) (*Table, error) {
	cols := make([]series.ISeries, 0, len(t.columns))
	for _, s := range t.columns {
		taken, err := series.Take(s, indices, mem)
		if err != nil {
			releaseAll(cols)
			return nil, errors.NewInternalError("Take", err)
		}
		cols = append(cols, taken)
	}
	return New(cols...)
}

// String returns a string representation of the Table
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, s := range t.columns {
		parts = append(parts, fmt.Sprintf("  %s: %s", s.Name(), s.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (t *Table) Release() {
	releaseAll(t.columns)
}

func releaseAll(cols []series.ISeries) {
	for _, s := range cols {
		s.Release()
	}
}
