package groupby

import (
	"fmt"

	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
	"gopkg.in/yaml.v3"
)

// ColumnAgg names the reductions to apply to one column
type ColumnAgg struct {
	Column     string
	Reductions []Reduction
}

// Spec is an ordered aggregate specification. Output columns follow the
// order in which columns and their reductions were added.
type Spec struct {
	entries []ColumnAgg
}

// SpecEntry is the serialized form of one ColumnAgg
type SpecEntry struct {
	Column     string   `json:"column" yaml:"column"`
	Reductions []string `json:"reductions" yaml:"reductions"`
}

// NewSpec creates an empty specification
func NewSpec() *Spec {
	return &Spec{}
}

// Add appends reductions for column. Adding the same column again extends
// its reduction list.
func (s *Spec) Add(column string, reductions ...Reduction) *Spec {
	for i := range s.entries {
		if s.entries[i].Column == column {
			s.entries[i].Reductions = append(s.entries[i].Reductions, reductions...)
			return s
		}
	}
	s.entries = append(s.entries, ColumnAgg{
		Column:     column,
		Reductions: append([]Reduction(nil), reductions...),
	})
	return s
}

// ParseSpec builds a specification from reduction names. Unknown names fail
// with an unknown reduction error.
func ParseSpec(entries ...SpecEntry) (*Spec, error) {
	spec := NewSpec()
	for _, entry := range entries {
		reductions := make([]Reduction, 0, len(entry.Reductions))
		for _, name := range entry.Reductions {
			r, err := ParseReduction(name)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", entry.Column, err)
			}
			reductions = append(reductions, r)
		}
		spec.Add(entry.Column, reductions...)
	}
	return spec, nil
}

// LoadSpecYAML parses a YAML list of {column, reductions} entries
func LoadSpecYAML(data []byte) (*Spec, error) {
	var entries []SpecEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing aggregate specification: %w", err)
	}
	return ParseSpec(entries...)
}

// Entries returns a copy of the specification's entries
func (s *Spec) Entries() []ColumnAgg {
	out := make([]ColumnAgg, len(s.entries))
	for i, e := range s.entries {
		out[i] = ColumnAgg{Column: e.Column, Reductions: append([]Reduction(nil), e.Reductions...)}
	}
	return out
}

// Pairs returns the number of (column, reduction) pairs
func (s *Spec) Pairs() int {
	n := 0
	for _, e := range s.entries {
		n += len(e.Reductions)
	}
	return n
}

// Validate checks the specification against t
func (s *Spec) Validate(t *table.Table, op string) error {
	if s == nil || len(s.entries) == 0 {
		return errors.NewInvalidInputError(op, "aggregate specification is empty")
	}

	for _, e := range s.entries {
		dt, ok := t.ColumnType(e.Column)
		if !ok {
			return errors.NewColumnNotFoundError(op, e.Column)
		}
		if len(e.Reductions) == 0 {
			return &errors.TableError{
				Op:      op,
				Column:  e.Column,
				Message: "no reductions requested",
				Kind:    errors.KindInvalidInput,
			}
		}
		for _, r := range e.Reductions {
			if !r.Valid() {
				return errors.NewUnknownReductionError(op, fmt.Sprintf("Reduction(%d)", int(r)))
			}
			if r.Numeric() && !series.IsNumeric(dt) {
				return errors.NewUnsupportedTypeError(op, e.Column, dt.String())
			}
		}
	}
	return nil
}
