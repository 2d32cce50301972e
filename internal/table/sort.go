package table

import (
	"cmp"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
)

// SortBy returns a new Table ordered by column. The sort is stable, so rows
// that tie keep their current relative order. Missing values sort last in
// both directions.
func (t *Table) SortBy(column string, ascending bool, mem memory.Allocator) (*Table, error) {
	s, ok := t.Column(column)
	if !ok {
		return nil, errors.NewColumnNotFoundError("SortBy", column)
	}

	arr := s.Array()
	defer arr.Release()

	perm := make([]int, t.length)
	for i := range perm {
		perm[i] = i
	}

	less := rowComparator(arr)
	slices.SortStableFunc(perm, func(a, b int) int {
		aNull, bNull := isMissing(arr, a), isMissing(arr, b)
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			return 1
		case bNull:
			return -1
		}
		c := less(a, b)
		if !ascending {
			c = -c
		}
		return c
	})

	return t.Take(perm, mem)
}

func isMissing(arr arrow.Array, i int) bool {
	if arr.IsNull(i) {
		return true
	}
	if series.IsNumeric(arr.DataType()) {
		_, ok := series.Float64At(arr, i)
		return !ok
	}
	return false
}

// rowComparator returns a three-way comparison of two non-missing rows
func rowComparator(arr arrow.Array) func(a, b int) int {
	switch typedArr := arr.(type) {
	case *array.String:
		return func(a, b int) int {
			return cmp.Compare(typedArr.Value(a), typedArr.Value(b))
		}
	case *array.Boolean:
		return func(a, b int) int {
			return cmp.Compare(boolRank(typedArr.Value(a)), boolRank(typedArr.Value(b)))
		}
	default:
		return func(a, b int) int {
			av, _ := series.Float64At(arr, a)
			bv, _ := series.Float64At(arr, b)
			return cmp.Compare(av, bv)
		}
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
