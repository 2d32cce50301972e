package groupby

import (
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/config"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
	"github.com/paveg/grouper/internal/validation"
)

// Column names produced by the counting operations
const (
	CountColumn     = "n"
	AggCountsColumn = "agg_counts"
	FractionColumn  = "fraction"
)

// AggregateOptions controls AggregateBy output ordering. The zero value
// keeps first-appearance group order.
type AggregateOptions struct {
	// OrderBy names an output column to sort by; empty disables sorting
	OrderBy string
	// Ascending sorts smallest first; the default is descending
	Ascending bool
}

// Predicate decides whether a group is kept. It receives the group's rows
// as a table that is released after the call returns.
type Predicate func(group *table.Table) bool

// SizeGreaterThan keeps groups with more than n rows
func SizeGreaterThan(n int) Predicate {
	return func(group *table.Table) bool {
		return group.Len() > n
	}
}

// SizeAtLeast keeps groups with at least n rows
func SizeAtLeast(n int) Predicate {
	return func(group *table.Table) bool {
		return group.Len() >= n
	}
}

// Not inverts a predicate
func Not(p Predicate) Predicate {
	return func(group *table.Table) bool {
		return !p(group)
	}
}

// RatioOptions controls CrossColumnRatioByGroup
type RatioOptions struct {
	// Reduction applied to the per-row ratios; the zero value means Mean
	Reduction Reduction
	// Name of the output column; defaults to <numerator>_<denominator>_ratio
	Name string
	// DivisionByZero overrides the engine policy when set
	DivisionByZero config.DivisionByZeroPolicy
}

// CountBy returns one row per group with the key columns and the group
// size in column "n"
func (e *Engine) CountBy(t *table.Table, by ...string) (*table.Table, error) {
	const op = "CountBy"

	g, err := Group(t, by...)
	if err != nil {
		return nil, err
	}
	if err := checkReserved(op, by, CountColumn); err != nil {
		return nil, err
	}
	defer e.logOp(op, t, g)()

	counts := make([]int64, g.NumGroups())
	for gid := range counts {
		counts[gid] = int64(g.Size(gid))
	}

	keys, err := g.Keys(e.mem)
	if err != nil {
		return nil, err
	}
	defer keys.Release()

	n := series.New(CountColumn, counts, e.mem)
	defer n.Release()

	return keys.WithColumn(n)
}

// AggregateBy reduces every group with each (column, reduction) pair of
// spec. The result has the key columns followed by one flattened column
// per pair, in spec order.
func (e *Engine) AggregateBy(t *table.Table, by []string, spec *Spec, opts AggregateOptions) (*table.Table, error) {
	const op = "AggregateBy"

	g, err := Group(t, by...)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(t, op); err != nil {
		return nil, err
	}
	names, err := FlattenNames(spec, FlattenOptionsFrom(e.cfg))
	if err != nil {
		return nil, err
	}
	if err := checkReserved(op, by, names...); err != nil {
		return nil, err
	}
	if opts.OrderBy != "" && !slices.Contains(by, opts.OrderBy) && !slices.Contains(names, opts.OrderBy) {
		return nil, errors.NewColumnNotFoundError(op, opts.OrderBy)
	}
	defer e.logOp(op, t, g, "pairs", spec.Pairs(), "order_by", opts.OrderBy)()

	out, err := g.Keys(e.mem)
	if err != nil {
		return nil, err
	}

	i := 0
	for _, entry := range spec.entries {
		s, _ := t.Column(entry.Column)
		arr := s.Array()
		for _, r := range entry.Reductions {
			col, err := buildReducedSeries(names[i], r, e.reduceGroups(g, arr, r), e.mem)
			if err != nil {
				arr.Release()
				out.Release()
				return nil, errors.NewInternalError(op, err)
			}
			next, err := out.WithColumn(col)
			col.Release()
			out.Release()
			if err != nil {
				arr.Release()
				return nil, err
			}
			out = next
			i++
		}
		arr.Release()
	}

	if opts.OrderBy == "" {
		return out, nil
	}
	defer out.Release()
	return out.SortBy(opts.OrderBy, opts.Ascending, e.mem)
}

// HavingFilter keeps the rows of every group for which keep returns true
// and drops the other groups entirely. Surviving rows stay in input order.
func (e *Engine) HavingFilter(t *table.Table, by []string, keep Predicate) (*table.Table, error) {
	const op = "HavingFilter"

	if keep == nil {
		return nil, errors.NewInvalidInputError(op, "predicate is nil")
	}
	g, err := Group(t, by...)
	if err != nil {
		return nil, err
	}

	kept := make([]bool, g.NumGroups())
	for gid := range kept {
		group, err := g.Group(gid, e.mem)
		if err != nil {
			return nil, err
		}
		kept[gid] = keep(group)
		group.Release()
	}

	rows := make([]int, 0, t.Len())
	for row := 0; row < t.Len(); row++ {
		if kept[g.GroupOf(row)] {
			rows = append(rows, row)
		}
	}
	defer e.logOp(op, t, g, "kept_rows", len(rows))()

	return t.Take(rows, e.mem)
}

// GroupTransform reduces each target column per group and broadcasts the
// group value back onto every row of the group. Row i of the result
// belongs to row i of t; columns keep the target names.
func (e *Engine) GroupTransform(t *table.Table, by []string, targets []string, r Reduction) (*table.Table, error) {
	const op = "GroupTransform"

	g, err := Group(t, by...)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.NewInvalidInputError(op, "no target columns")
	}
	spec := NewSpec()
	for _, target := range targets {
		if containsColumn(spec, target) {
			return nil, &errors.TableError{
				Op:      op,
				Column:  target,
				Message: "target column listed more than once",
				Kind:    errors.KindInvalidInput,
			}
		}
		spec.Add(target, r)
	}
	if err := spec.Validate(t, op); err != nil {
		return nil, err
	}
	defer e.logOp(op, t, g, "targets", targets, "reduction", r.String())()

	cols := make([]series.ISeries, 0, len(targets))
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}
	for _, target := range targets {
		s, _ := t.Column(target)
		arr := s.Array()
		perGroup := e.reduceGroups(g, arr, r)
		arr.Release()

		perRow := make([]reduced, t.Len())
		for row := range perRow {
			perRow[row] = perGroup[g.GroupOf(row)]
		}

		col, err := buildReducedSeries(target, r, perRow, e.mem)
		if err != nil {
			release()
			return nil, errors.NewInternalError(op, err)
		}
		cols = append(cols, col)
	}

	out, err := table.New(cols...)
	if err != nil {
		release()
		return nil, err
	}
	return out, nil
}

// WithGroupTransform broadcasts r over target per group and returns a copy
// of t with the result added as column name. An empty name defaults to
// the flattened <target>_<reduction>.
func (e *Engine) WithGroupTransform(t *table.Table, by []string, target string, r Reduction, name string) (*table.Table, error) {
	broadcast, err := e.GroupTransform(t, by, []string{target}, r)
	if err != nil {
		return nil, err
	}
	defer broadcast.Release()

	if name == "" {
		name = FlattenName(target, r, FlattenOptionsFrom(e.cfg))
	}
	s, _ := broadcast.Column(target)
	renamed, err := series.Rename(s, name)
	if err != nil {
		return nil, errors.NewInternalError("WithGroupTransform", err)
	}
	defer renamed.Release()

	return t.WithColumn(renamed)
}

// RelativeFraction counts rows per fine group, sums those counts per
// coarse group, and reports each fine group's share of its coarse group.
// The result has the fine key columns followed by n, agg_counts and
// fraction. Every coarse column must be one of the fine columns.
func (e *Engine) RelativeFraction(t *table.Table, fine, coarse []string) (*table.Table, error) {
	const op = "RelativeFraction"

	if err := validation.NewCompoundValidator(
		validation.NewKeyValidator(t, op, fine...),
		validation.NewSubsetValidator(op, fine, coarse),
	).Validate(); err != nil {
		return nil, err
	}
	if err := checkReserved(op, fine, AggCountsColumn, FractionColumn); err != nil {
		return nil, err
	}

	counts, err := e.CountBy(t, fine...)
	if err != nil {
		return nil, err
	}
	defer counts.Release()

	totals, err := e.GroupTransform(counts, coarse, []string{CountColumn}, Sum)
	if err != nil {
		return nil, err
	}
	defer totals.Release()

	nSeries, _ := counts.Column(CountColumn)
	totalSeries, _ := totals.Column(CountColumn)
	nArr := nSeries.Array()
	defer nArr.Release()
	totalArr := totalSeries.Array()
	defer totalArr.Release()

	ns, ok := nArr.(*array.Int64)
	if !ok {
		return nil, errors.NewInternalError(op, fmt.Errorf("count column has type %s", nArr.DataType()))
	}
	sums, ok := totalArr.(*array.Float64)
	if !ok {
		return nil, errors.NewInternalError(op, fmt.Errorf("sum column has type %s", totalArr.DataType()))
	}

	aggCounts := make([]int64, counts.Len())
	fractions := make([]float64, counts.Len())
	for i := range aggCounts {
		total := sums.Value(i)
		aggCounts[i] = int64(total)
		fractions[i] = float64(ns.Value(i)) / total
	}

	agg := series.New(AggCountsColumn, aggCounts, e.mem)
	defer agg.Release()
	frac := series.New(FractionColumn, fractions, e.mem)
	defer frac.Release()

	withAgg, err := counts.WithColumn(agg)
	if err != nil {
		return nil, err
	}
	defer withAgg.Release()

	return withAgg.WithColumn(frac)
}

// CrossColumnRatioByGroup divides numerator by denominator row by row and
// then reduces the per-row ratios within each group. With the default Mean
// this is the mean of ratios, which in general differs from the ratio of
// the group means.
func (e *Engine) CrossColumnRatioByGroup(
	t *table.Table, by []string, numerator, denominator string, opts RatioOptions,
) (*table.Table, error) {
	const op = "CrossColumnRatioByGroup"

	g, err := Group(t, by...)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateNumeric(t, op, numerator, denominator); err != nil {
		return nil, err
	}

	r := opts.Reduction
	if r == invalidReduction {
		r = Mean
	}
	if !r.Valid() {
		return nil, errors.NewUnknownReductionError(op, fmt.Sprintf("Reduction(%d)", int(r)))
	}

	policy := opts.DivisionByZero
	if policy == "" {
		policy = e.cfg.DivisionByZero
	}
	if policy != config.DivisionByZeroMissing && policy != config.DivisionByZeroError {
		return nil, errors.NewInvalidInputError(op, fmt.Sprintf("unknown division by zero policy %q", policy))
	}

	name := opts.Name
	if name == "" {
		name = numerator + e.cfg.Joiner + denominator + e.cfg.Joiner + "ratio"
	}
	if err := checkReserved(op, by, name); err != nil {
		return nil, err
	}
	defer e.logOp(op, t, g, "numerator", numerator, "denominator", denominator,
		"reduction", r.String(), "division_by_zero", string(policy))()

	ratios, err := rowRatios(t, numerator, denominator, policy, e.mem)
	if err != nil {
		return nil, err
	}
	defer ratios.Release()

	arr := ratios.Array()
	defer arr.Release()

	col, err := buildReducedSeries(name, r, e.reduceGroups(g, arr, r), e.mem)
	if err != nil {
		return nil, errors.NewInternalError(op, err)
	}
	defer col.Release()

	keys, err := g.Keys(e.mem)
	if err != nil {
		return nil, err
	}
	defer keys.Release()

	return keys.WithColumn(col)
}

// rowRatios computes numerator/denominator per row. A missing operand gives
// a missing ratio; a zero denominator follows policy.
func rowRatios(
	t *table.Table, numerator, denominator string, policy config.DivisionByZeroPolicy, mem memory.Allocator,
) (*series.Series[float64], error) {
	num, _ := t.Column(numerator)
	den, _ := t.Column(denominator)
	numArr := num.Array()
	defer numArr.Release()
	denArr := den.Array()
	defer denArr.Release()

	values := make([]float64, t.Len())
	valid := make([]bool, t.Len())
	for row := range values {
		n, okN := series.Float64At(numArr, row)
		d, okD := series.Float64At(denArr, row)
		if !okN || !okD {
			continue
		}
		if d == 0 {
			if policy == config.DivisionByZeroError {
				return nil, errors.NewDivisionByZeroError("CrossColumnRatioByGroup", denominator, row)
			}
			continue
		}
		values[row] = n / d
		valid[row] = true
	}

	return series.NewNullable("ratio", values, valid, mem)
}

// buildReducedSeries turns reduction results into a column: int64 for
// counting reductions, nullable float64 otherwise
func buildReducedSeries(name string, r Reduction, values []reduced, mem memory.Allocator) (series.ISeries, error) {
	if r.Integral() {
		ints := make([]int64, len(values))
		for i, v := range values {
			ints[i] = int64(v.value)
		}
		return series.NewSafe(name, ints, mem)
	}

	floats := make([]float64, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		floats[i] = v.value
		valid[i] = v.valid
	}
	return series.NewNullable(name, floats, valid, mem)
}

// checkReserved fails if an output column name would shadow a key column
func checkReserved(op string, keys []string, outputs ...string) error {
	for _, name := range outputs {
		if slices.Contains(keys, name) {
			return &errors.TableError{
				Op:      op,
				Column:  name,
				Message: "output column name collides with a grouping column",
				Kind:    errors.KindInvalidInput,
			}
		}
	}
	return nil
}

func containsColumn(spec *Spec, column string) bool {
	for _, e := range spec.entries {
		if e.Column == column {
			return true
		}
	}
	return false
}
