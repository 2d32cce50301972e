package groupby

import (
	"math"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
	"golang.org/x/exp/constraints"
)

// Reduction is a named function from a group's values to one summary value
type Reduction int

const (
	invalidReduction Reduction = iota
	// Sum adds the present values in float64, integer columns included, so
	// integer sums beyond 2^53 are rounded
	Sum
	// Mean is the arithmetic mean of the present values
	Mean
	// Median is the middle present value, or the mean of the two middle ones
	Median
	// Count is the number of present values; it accepts any column type
	Count
	// Min is the smallest present value
	Min
	// Max is the largest present value
	Max
	// Std is the sample standard deviation (n-1 denominator)
	Std
	// Var is the sample variance (n-1 denominator)
	Var
	// First is the first present value in row order
	First
	// Last is the last present value in row order
	Last
	// NUnique is the number of distinct present values; it accepts any column type
	NUnique
)

var reductionNames = map[Reduction]string{
	Sum:     "sum",
	Mean:    "mean",
	Median:  "median",
	Count:   "count",
	Min:     "min",
	Max:     "max",
	Std:     "std",
	Var:     "var",
	First:   "first",
	Last:    "last",
	NUnique: "nunique",
}

// String returns the reduction's name as used in flattened column names
func (r Reduction) String() string {
	if name, ok := reductionNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is one of the supported reductions
func (r Reduction) Valid() bool {
	_, ok := reductionNames[r]
	return ok
}

// Numeric reports whether r only accepts numeric columns
func (r Reduction) Numeric() bool {
	return r != Count && r != NUnique
}

// Integral reports whether r produces an integer column
func (r Reduction) Integral() bool {
	return r == Count || r == NUnique
}

// Reductions returns every supported reduction in declaration order
func Reductions() []Reduction {
	out := make([]Reduction, 0, len(reductionNames))
	for r := Sum; r <= NUnique; r++ {
		out = append(out, r)
	}
	return out
}

// ParseReduction resolves a reduction by name, case-insensitively
func ParseReduction(name string) (Reduction, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for r, n := range reductionNames {
		if n == key {
			return r, nil
		}
	}
	switch key {
	case "avg", "average":
		return Mean, nil
	case "size":
		return Count, nil
	}
	return invalidReduction, errors.NewUnknownReductionError("ParseReduction", name)
}

// MarshalText implements encoding.TextMarshaler
func (r Reduction) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errors.NewUnknownReductionError("MarshalText", r.String())
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Reduction) UnmarshalText(text []byte) error {
	parsed, err := ParseReduction(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// reduced is the result of one reduction over one group
type reduced struct {
	value float64
	valid bool
}

type numericArray[T constraints.Integer | constraints.Float] interface {
	IsNull(i int) bool
	Value(i int) T
}

// gatherNumeric collects the present values at rows, in row order. NaN
// counts as missing.
func gatherNumeric[T constraints.Integer | constraints.Float](arr numericArray[T], rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if arr.IsNull(row) {
			continue
		}
		v := float64(arr.Value(row))
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func gatherValues(arr arrow.Array, rows []int) []float64 {
	switch typedArr := arr.(type) {
	case *array.Int64:
		return gatherNumeric[int64](typedArr, rows)
	case *array.Int32:
		return gatherNumeric[int32](typedArr, rows)
	case *array.Float64:
		return gatherNumeric[float64](typedArr, rows)
	case *array.Float32:
		return gatherNumeric[float32](typedArr, rows)
	default:
		return nil
	}
}

// reduceRows applies r to the values of arr at rows. Rows are visited in
// ascending order so results do not depend on how groups are scheduled.
func reduceRows(arr arrow.Array, rows []int, r Reduction) reduced {
	switch r {
	case Count:
		n := 0
		for _, row := range rows {
			if present(arr, row) {
				n++
			}
		}
		return reduced{value: float64(n), valid: true}
	case NUnique:
		seen := make(map[any]struct{})
		for _, row := range rows {
			if present(arr, row) {
				seen[series.ValueAt(arr, row)] = struct{}{}
			}
		}
		return reduced{value: float64(len(seen)), valid: true}
	}

	values := gatherValues(arr, rows)
	if len(values) == 0 {
		return reduced{}
	}

	switch r {
	case Sum:
		return reduced{value: sum(values), valid: true}
	case Mean:
		return reduced{value: sum(values) / float64(len(values)), valid: true}
	case Median:
		return reduced{value: median(values), valid: true}
	case Min:
		return reduced{value: slices.Min(values), valid: true}
	case Max:
		return reduced{value: slices.Max(values), valid: true}
	case Var:
		return variance(values)
	case Std:
		v := variance(values)
		v.value = math.Sqrt(v.value)
		return v
	case First:
		return reduced{value: values[0], valid: true}
	case Last:
		return reduced{value: values[len(values)-1], valid: true}
	default:
		return reduced{}
	}
}

func present(arr arrow.Array, row int) bool {
	if arr.IsNull(row) {
		return false
	}
	if series.IsNumeric(arr.DataType()) {
		_, ok := series.Float64At(arr, row)
		return ok
	}
	return true
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// median sorts a copy; values keep their row order for other reductions
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

func variance(values []float64) reduced {
	n := len(values)
	if n < 2 {
		return reduced{}
	}
	mean := sum(values) / float64(n)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return reduced{value: ss / float64(n-1), valid: true}
}
