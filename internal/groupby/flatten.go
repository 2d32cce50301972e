package groupby

import (
	"strings"

	"github.com/paveg/grouper/internal/config"
	"github.com/paveg/grouper/internal/errors"
)

// FlattenOptions controls how (column, reduction) pairs become column names
type FlattenOptions struct {
	Joiner                     string
	KeepSingleLevelUnflattened bool
}

// DefaultFlattenOptions joins with "_" and keeps a lone pair unflattened
func DefaultFlattenOptions() FlattenOptions {
	return FlattenOptions{
		Joiner:                     config.DefaultJoiner,
		KeepSingleLevelUnflattened: true,
	}
}

// FlattenOptionsFrom reads the flattening settings from cfg
func FlattenOptionsFrom(cfg config.Config) FlattenOptions {
	return FlattenOptions{
		Joiner:                     cfg.Joiner,
		KeepSingleLevelUnflattened: cfg.KeepSingleLevelUnflattened,
	}
}

// FlattenName joins a column and reduction name
func FlattenName(column string, r Reduction, opts FlattenOptions) string {
	return strings.TrimSpace(column + opts.Joiner + r.String())
}

// FlattenNames returns one output name per (column, reduction) pair, in
// specification order. It fails if two pairs would share a name.
func FlattenNames(spec *Spec, opts FlattenOptions) ([]string, error) {
	if opts.Joiner == "" {
		opts.Joiner = config.DefaultJoiner
	}

	if opts.KeepSingleLevelUnflattened && len(spec.entries) == 1 && len(spec.entries[0].Reductions) == 1 {
		return []string{spec.entries[0].Column}, nil
	}

	names := make([]string, 0, spec.Pairs())
	seen := make(map[string]struct{}, spec.Pairs())
	for _, e := range spec.entries {
		for _, r := range e.Reductions {
			name := FlattenName(e.Column, r, opts)
			if _, dup := seen[name]; dup {
				return nil, &errors.TableError{
					Op:      "FlattenNames",
					Column:  name,
					Message: "flattened column name is not unique",
					Kind:    errors.KindInvalidInput,
				}
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}
