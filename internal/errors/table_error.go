// Package errors provides standardized error types for table and grouping
// operations. Every error carries the failing operation, the offending
// column when there is one, and a Kind that callers match with errors.Is
// against the exported sentinels.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a TableError
type Kind int

const (
	// KindInvalidInput covers malformed arguments that fit no other kind
	KindInvalidInput Kind = iota
	// KindInvalidColumn is a reference to a column the table does not have
	KindInvalidColumn
	// KindUnknownReduction is a reduction name outside the supported set
	KindUnknownReduction
	// KindInvalidHierarchy is a coarse key that cannot be derived from the fine key
	KindInvalidHierarchy
	// KindDivisionByZero is a zero denominator under the strict policy
	KindDivisionByZero
	// KindUnsupportedType is a reduction applied to a column type it cannot handle
	KindUnsupportedType
)

var kindNames = map[Kind]string{
	KindInvalidInput:     "invalid input",
	KindInvalidColumn:    "invalid column",
	KindUnknownReduction: "unknown reduction",
	KindInvalidHierarchy: "invalid hierarchy",
	KindDivisionByZero:   "division by zero",
	KindUnsupportedType:  "unsupported type",
}

// String returns the kind's name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TableError represents standardized errors across all table operations
type TableError struct {
	Op      string // Operation name (e.g., "CountBy", "AggregateBy")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Kind    Kind   // Error classification
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *TableError) Error() string {
	var b strings.Builder
	if e.Column != "" {
		fmt.Fprintf(&b, "%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		fmt.Fprintf(&b, "%s operation failed: %s", e.Op, e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for error wrapping support
func (e *TableError) Unwrap() error {
	return e.Cause
}

// Is matches a sentinel of the same Kind, or another TableError with equal
// operation, column and message.
func (e *TableError) Is(target error) bool {
	if s, ok := target.(*sentinel); ok {
		return e.Kind == s.kind
	}
	if te, ok := target.(*TableError); ok {
		return e.Kind == te.Kind && e.Op == te.Op && e.Column == te.Column && e.Message == te.Message
	}
	return false
}

type sentinel struct {
	kind Kind
}

func (s *sentinel) Error() string {
	return s.kind.String()
}

// Sentinels for errors.Is matching by kind
var (
	ErrInvalidInput     error = &sentinel{kind: KindInvalidInput}
	ErrInvalidColumn    error = &sentinel{kind: KindInvalidColumn}
	ErrUnknownReduction error = &sentinel{kind: KindUnknownReduction}
	ErrInvalidHierarchy error = &sentinel{kind: KindInvalidHierarchy}
	ErrDivisionByZero   error = &sentinel{kind: KindDivisionByZero}
	ErrUnsupportedType  error = &sentinel{kind: KindUnsupportedType}
)

// Common error constructors for consistent error creation

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *TableError {
	return &TableError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Kind:    KindInvalidColumn,
	}
}

// NewUnknownReductionError creates an error for an unsupported reduction name
func NewUnknownReductionError(op, name string) *TableError {
	return &TableError{
		Op:      op,
		Message: fmt.Sprintf("unknown reduction %q", name),
		Kind:    KindUnknownReduction,
	}
}

// NewInvalidHierarchyError creates an error for a coarse key column that is
// not part of the fine key
func NewInvalidHierarchyError(op, column, message string) *TableError {
	return &TableError{
		Op:      op,
		Column:  column,
		Message: message,
		Kind:    KindInvalidHierarchy,
	}
}

// NewDivisionByZeroError creates an error for a zero denominator at a row
func NewDivisionByZeroError(op, column string, row int) *TableError {
	return &TableError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("zero denominator at row %d", row),
		Kind:    KindDivisionByZero,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *TableError {
	return &TableError{
		Op:      op,
		Message: message,
		Kind:    KindInvalidInput,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *TableError {
	return &TableError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Kind:    KindUnsupportedType,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *TableError {
	return &TableError{
		Op:      op,
		Message: "internal error occurred",
		Kind:    KindInvalidInput,
		Cause:   cause,
	}
}
