package series

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type valueArray[T any] interface {
	IsNull(i int) bool
	Value(i int) T
}

type valueBuilder[T any] interface {
	Append(v T)
	AppendNull()
	Reserve(n int)
	NewArray() arrow.Array
	Release()
}

// takeTyped copies the rows at indices into a new array, keeping nulls
func takeTyped[T any](src valueArray[T], builder valueBuilder[T], indices []int) arrow.Array {
	defer builder.Release()
	builder.Reserve(len(indices))
	for _, idx := range indices {
		if src.IsNull(idx) {
			builder.AppendNull()
			continue
		}
		builder.Append(src.Value(idx))
	}
	return builder.NewArray()
}

// TakeArray gathers the rows at indices into a newly allocated array of the
// same type. Indices may repeat and need not be sorted.
func TakeArray(arr arrow.Array, indices []int, mem memory.Allocator) (arrow.Array, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	for _, idx := range indices {
		if idx < 0 || idx >= arr.Len() {
			return nil, fmt.Errorf("index %d out of bounds for length %d", idx, arr.Len())
		}
	}

	switch typedArr := arr.(type) {
	case *array.String:
		return takeTyped[string](typedArr, array.NewStringBuilder(mem), indices), nil
	case *array.Int64:
		return takeTyped[int64](typedArr, array.NewInt64Builder(mem), indices), nil
	case *array.Int32:
		return takeTyped[int32](typedArr, array.NewInt32Builder(mem), indices), nil
	case *array.Float64:
		return takeTyped[float64](typedArr, array.NewFloat64Builder(mem), indices), nil
	case *array.Float32:
		return takeTyped[float32](typedArr, array.NewFloat32Builder(mem), indices), nil
	case *array.Boolean:
		return takeTyped[bool](typedArr, array.NewBooleanBuilder(mem), indices), nil
	default:
		return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
	}
}

// Take returns a new series holding the rows at indices
func Take(s ISeries, indices []int, mem memory.Allocator) (ISeries, error) {
	arr := s.Array()
	defer arr.Release()

	taken, err := TakeArray(arr, indices, mem)
	if err != nil {
		return nil, fmt.Errorf("taking rows of column %s: %w", s.Name(), err)
	}
	defer taken.Release()

	return FromArray(s.Name(), taken)
}

// ValueAt returns the value at index as a Go value, or nil when missing
func ValueAt(arr arrow.Array, index int) any {
	if index < 0 || index >= arr.Len() || arr.IsNull(index) {
		return nil
	}

	switch typedArr := arr.(type) {
	case *array.String:
		return typedArr.Value(index)
	case *array.Int64:
		return typedArr.Value(index)
	case *array.Int32:
		return typedArr.Value(index)
	case *array.Float64:
		return typedArr.Value(index)
	case *array.Float32:
		return typedArr.Value(index)
	case *array.Boolean:
		return typedArr.Value(index)
	default:
		return nil
	}
}

// Float64At extracts a numeric value as float64. The second result is false
// for missing values, NaN and non-numeric arrays.
func Float64At(arr arrow.Array, index int) (float64, bool) {
	if index < 0 || index >= arr.Len() || arr.IsNull(index) {
		return 0, false
	}

	var v float64
	switch typedArr := arr.(type) {
	case *array.Int64:
		v = float64(typedArr.Value(index))
	case *array.Int32:
		v = float64(typedArr.Value(index))
	case *array.Float64:
		v = typedArr.Value(index)
	case *array.Float32:
		v = float64(typedArr.Value(index))
	default:
		return 0, false
	}

	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// IsNumeric reports whether the Arrow type holds numbers
func IsNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT64, arrow.INT32, arrow.FLOAT64, arrow.FLOAT32:
		return true
	default:
		return false
	}
}
