// Package series provides data structures for column operations
package series

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	NullN() int
	String() string
	Array() arrow.Array
	Release()
}

// Series represents a typed, nullable data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values. It panics on unsupported
// element types; use NewSafe when the type is not known statically.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewNullable(name, values, nil, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series and reports unsupported types as an error
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series where valid[i] == false marks values[i] as
// missing. A nil valid slice means every value is present.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, fmt.Errorf("validity mask length %d does not match %d values", len(valid), len(values))
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	var arr arrow.Array

	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		arr = builder.NewArray()
	default:
		return nil, fmt.Errorf("unsupported type: %T", values)
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}, nil
}

// FromArray wraps an existing Arrow array in a Series of the matching Go
// type. The array is retained; the caller keeps its own reference.
func FromArray(name string, arr arrow.Array) (ISeries, error) {
	if arr == nil {
		return nil, fmt.Errorf("nil array for column %s", name)
	}

	switch arr.(type) {
	case *array.String:
		arr.Retain()
		return &Series[string]{name: name, array: arr}, nil
	case *array.Int64:
		arr.Retain()
		return &Series[int64]{name: name, array: arr}, nil
	case *array.Int32:
		arr.Retain()
		return &Series[int32]{name: name, array: arr}, nil
	case *array.Float64:
		arr.Retain()
		return &Series[float64]{name: name, array: arr}, nil
	case *array.Float32:
		arr.Retain()
		return &Series[float32]{name: name, array: arr}, nil
	case *array.Boolean:
		arr.Retain()
		return &Series[bool]{name: name, array: arr}, nil
	default:
		return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
	}
}

// Rename returns a series with a new name sharing the same underlying data
func Rename(s ISeries, name string) (ISeries, error) {
	arr := s.Array()
	defer arr.Release()
	return FromArray(name, arr)
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullN returns the number of missing values
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// Values returns the data as a Go slice. Missing values come back as the
// zero value of T; use IsNull to tell them apart.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Get returns the value at index and whether it is present
func (s *Series[T]) Get(index int) (T, bool) {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		var zero T
		return zero, false
	}
	return s.Value(index), true
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var zero T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return zero
	}

	var result any
	switch arr := s.array.(type) {
	case *array.String:
		result = arr.Value(index)
	case *array.Int64:
		result = arr.Value(index)
	case *array.Int32:
		result = arr.Value(index)
	case *array.Float64:
		result = arr.Value(index)
	case *array.Float32:
		result = arr.Value(index)
	case *array.Boolean:
		result = arr.Value(index)
	}

	if v, ok := result.(T); ok {
		return v
	}
	return zero
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
