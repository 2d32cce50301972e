// Package validation provides input validation utilities for table and
// grouping operations. Validators run before any work is done so that
// misuse surfaces at the call that introduced it.
package validation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
	Len() int
}

// TypedColumnProvider also reports column types
type TypedColumnProvider interface {
	ColumnProvider
	ColumnType(name string) (arrow.DataType, bool)
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	t       ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(t ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		t:       t,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the table
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.t.HasColumn(column) {
			return errors.NewColumnNotFoundError(v.op, column)
		}
	}
	return nil
}

// KeyValidator validates a list of grouping key columns: it must be
// non-empty, free of duplicates, and every column must exist.
type KeyValidator struct {
	t    ColumnProvider
	keys []string
	op   string
}

// NewKeyValidator creates a validator for grouping keys
func NewKeyValidator(t ColumnProvider, op string, keys ...string) *KeyValidator {
	return &KeyValidator{t: t, keys: keys, op: op}
}

// Validate checks the key list
func (v *KeyValidator) Validate() error {
	if len(v.keys) == 0 {
		return &errors.TableError{
			Op:      v.op,
			Message: "at least one grouping column is required",
			Kind:    errors.KindInvalidColumn,
		}
	}

	seen := make(map[string]struct{}, len(v.keys))
	for _, key := range v.keys {
		if _, dup := seen[key]; dup {
			return &errors.TableError{
				Op:      v.op,
				Column:  key,
				Message: "grouping column listed more than once",
				Kind:    errors.KindInvalidColumn,
			}
		}
		seen[key] = struct{}{}
	}

	return NewColumnValidator(v.t, v.op, v.keys...).Validate()
}

// NumericValidator validates that columns hold numbers
type NumericValidator struct {
	t       TypedColumnProvider
	columns []string
	op      string
}

// NewNumericValidator creates a validator for numeric columns
func NewNumericValidator(t TypedColumnProvider, op string, columns ...string) *NumericValidator {
	return &NumericValidator{t: t, columns: columns, op: op}
}

// Validate checks that each column exists and is numeric
func (v *NumericValidator) Validate() error {
	for _, column := range v.columns {
		dt, ok := v.t.ColumnType(column)
		if !ok {
			return errors.NewColumnNotFoundError(v.op, column)
		}
		if !series.IsNumeric(dt) {
			return errors.NewUnsupportedTypeError(v.op, column, dt.String())
		}
	}
	return nil
}

// SubsetValidator validates that every coarse key column also appears in
// the fine key, which is what makes the coarse grouping derivable from it.
type SubsetValidator struct {
	fine   []string
	coarse []string
	op     string
}

// NewSubsetValidator creates a validator for nested grouping keys
func NewSubsetValidator(op string, fine, coarse []string) *SubsetValidator {
	return &SubsetValidator{fine: fine, coarse: coarse, op: op}
}

// Validate checks the hierarchy
func (v *SubsetValidator) Validate() error {
	if len(v.coarse) == 0 {
		return errors.NewInvalidHierarchyError(v.op, "", "coarse grouping needs at least one column")
	}

	fine := make(map[string]struct{}, len(v.fine))
	for _, f := range v.fine {
		fine[f] = struct{}{}
	}
	for _, c := range v.coarse {
		if _, ok := fine[c]; !ok {
			return errors.NewInvalidHierarchyError(v.op, c,
				fmt.Sprintf("coarse column is not part of the fine key %v", v.fine))
		}
	}
	return nil
}

// LengthValidator validates array length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	context  string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, context string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		context:  context,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("%s: expected length %d, got %d", v.context, v.expected, v.actual)
		return errors.NewInvalidInputError(v.op, message)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(t ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(t, op, columns...).Validate()
}

// ValidateKeys is a convenience function for grouping key validation
func ValidateKeys(t ColumnProvider, op string, keys ...string) error {
	return NewKeyValidator(t, op, keys...).Validate()
}

// ValidateNumeric is a convenience function for numeric column validation
func ValidateNumeric(t TypedColumnProvider, op string, columns ...string) error {
	return NewNumericValidator(t, op, columns...).Validate()
}

// ValidateHierarchy is a convenience function for nested key validation
func ValidateHierarchy(op string, fine, coarse []string) error {
	return NewSubsetValidator(op, fine, coarse).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, context string) error {
	return NewLengthValidator(expected, actual, op, context).Validate()
}
