package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/paveg/grouper/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestTableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.TableError
		expected string
	}{
		{
			name:     "with column",
			err:      errors.NewColumnNotFoundError("CountBy", "sex"),
			expected: "CountBy operation failed on column 'sex': column does not exist",
		},
		{
			name:     "without column",
			err:      errors.NewUnknownReductionError("AggregateBy", "mode"),
			expected: `AggregateBy operation failed: unknown reduction "mode"`,
		},
		{
			name:     "with cause",
			err:      errors.NewInternalError("Take", stderrors.New("boom")),
			expected: "Take operation failed: internal error occurred: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTableError_IsSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid column", errors.NewColumnNotFoundError("Group", "x"), errors.ErrInvalidColumn},
		{"unknown reduction", errors.NewUnknownReductionError("ParseReduction", "mode"), errors.ErrUnknownReduction},
		{"invalid hierarchy", errors.NewInvalidHierarchyError("RelativeFraction", "sex", "not in fine key"), errors.ErrInvalidHierarchy},
		{"division by zero", errors.NewDivisionByZeroError("Ratio", "den", 3), errors.ErrDivisionByZero},
		{"unsupported type", errors.NewUnsupportedTypeError("AggregateBy", "species", "utf8"), errors.ErrUnsupportedType},
		{"invalid input", errors.NewInvalidInputError("New", "duplicate column"), errors.ErrInvalidInput},
	}

	all := []error{
		errors.ErrInvalidColumn, errors.ErrUnknownReduction, errors.ErrInvalidHierarchy,
		errors.ErrDivisionByZero, errors.ErrUnsupportedType, errors.ErrInvalidInput,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("running cell: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			for _, other := range all {
				if other == tt.sentinel {
					continue
				}
				assert.NotErrorIs(t, wrapped, other)
			}
		})
	}
}

func TestTableError_IsEquality(t *testing.T) {
	err1 := errors.NewColumnNotFoundError("CountBy", "sex")
	err2 := errors.NewColumnNotFoundError("CountBy", "sex")
	err3 := errors.NewColumnNotFoundError("CountBy", "year")

	assert.ErrorIs(t, err1, err2)
	assert.NotErrorIs(t, err1, err3)
}

func TestTableError_Unwrap(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := errors.NewInternalError("Take", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid hierarchy", errors.KindInvalidHierarchy.String())
	assert.Equal(t, "Kind(42)", errors.Kind(42).String())
}
