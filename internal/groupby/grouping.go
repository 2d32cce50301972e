// Package groupby implements grouped aggregation over tables: partitioning
// rows by key columns, reducing each group, broadcasting group values back
// onto rows, and the derived operations built from those pieces.
package groupby

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/table"
	"github.com/paveg/grouper/internal/validation"
)

// Grouping partitions a table's rows into disjoint, non-empty groups keyed
// by the values of the by columns. Groups are numbered in order of first
// appearance; rows inside a group are in ascending order.
type Grouping struct {
	source   *table.Table
	by       []string
	groups   [][]int
	rowGroup []int
}

// Group builds the grouping of t by the given columns. Missing values form
// their own key component and compare equal to each other.
func Group(t *table.Table, by ...string) (*Grouping, error) {
	if err := validation.ValidateKeys(t, "Group", by...); err != nil {
		return nil, err
	}

	keyArrays := make([]arrow.Array, len(by))
	for i, col := range by {
		s, _ := t.Column(col)
		keyArrays[i] = s.Array()
	}
	defer func() {
		for _, arr := range keyArrays {
			arr.Release()
		}
	}()

	g := &Grouping{
		source:   t,
		by:       append([]string(nil), by...),
		rowGroup: make([]int, t.Len()),
	}

	buckets := make(map[uint64][]int)
	var buf []byte
	for row := 0; row < t.Len(); row++ {
		buf = encodeKey(buf[:0], keyArrays, row)
		h := xxhash.Sum64(buf)

		gid := -1
		for _, candidate := range buckets[h] {
			if keysEqual(keyArrays, g.groups[candidate][0], row) {
				gid = candidate
				break
			}
		}
		if gid < 0 {
			gid = len(g.groups)
			g.groups = append(g.groups, nil)
			buckets[h] = append(buckets[h], gid)
		}

		g.groups[gid] = append(g.groups[gid], row)
		g.rowGroup[row] = gid
	}

	return g, nil
}

// By returns the key column names
func (g *Grouping) By() []string {
	return append([]string(nil), g.by...)
}

// NumGroups returns the number of distinct keys
func (g *Grouping) NumGroups() int {
	return len(g.groups)
}

// Rows returns the row indices of group gid in ascending order
func (g *Grouping) Rows(gid int) []int {
	return g.groups[gid]
}

// Size returns the number of rows in group gid
func (g *Grouping) Size(gid int) int {
	return len(g.groups[gid])
}

// GroupOf returns the group a row belongs to
func (g *Grouping) GroupOf(row int) int {
	return g.rowGroup[row]
}

// Keys returns a table with one row per group holding the key values in
// their original column types, in group order
func (g *Grouping) Keys(mem memory.Allocator) (*table.Table, error) {
	keys, err := g.source.Select(g.by...)
	if err != nil {
		return nil, err
	}
	defer keys.Release()

	first := make([]int, len(g.groups))
	for gid, rows := range g.groups {
		first[gid] = rows[0]
	}
	return keys.Take(first, mem)
}

// Group returns the rows of group gid as a new table
func (g *Grouping) Group(gid int, mem memory.Allocator) (*table.Table, error) {
	if gid < 0 || gid >= len(g.groups) {
		return nil, errors.NewInvalidInputError("Group", "group index out of range")
	}
	return g.source.Take(g.groups[gid], mem)
}

const (
	tagMissing byte = 0
	tagPresent byte = 1
)

// encodeKey appends a typed byte encoding of the key at row. Equal keys
// always encode equally; the encoding only feeds the hash, equality is
// decided by keysEqual.
func encodeKey(buf []byte, keyArrays []arrow.Array, row int) []byte {
	for _, arr := range keyArrays {
		if isMissingKey(arr, row) {
			buf = append(buf, tagMissing)
			continue
		}
		buf = append(buf, tagPresent)

		switch typedArr := arr.(type) {
		case *array.String:
			v := typedArr.Value(row)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v)))
			buf = append(buf, v...)
		case *array.Int64:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(typedArr.Value(row)))
		case *array.Int32:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(typedArr.Value(row)))
		case *array.Float64:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(normalizeZero(typedArr.Value(row))))
		case *array.Float32:
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(normalizeZero(float64(typedArr.Value(row))))))
		case *array.Boolean:
			if typedArr.Value(row) {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}
	return buf
}

// keysEqual checks if two rows have equal key values
func keysEqual(keyArrays []arrow.Array, row1, row2 int) bool {
	for _, arr := range keyArrays {
		m1, m2 := isMissingKey(arr, row1), isMissingKey(arr, row2)
		if m1 || m2 {
			if m1 != m2 {
				return false
			}
			continue
		}

		switch typedArr := arr.(type) {
		case *array.String:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		case *array.Int64:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		case *array.Int32:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		case *array.Float64:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		case *array.Float32:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		case *array.Boolean:
			if typedArr.Value(row1) != typedArr.Value(row2) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isMissingKey treats NaN like null so that both group together
func isMissingKey(arr arrow.Array, row int) bool {
	if arr.IsNull(row) {
		return true
	}
	switch typedArr := arr.(type) {
	case *array.Float64:
		return math.IsNaN(typedArr.Value(row))
	case *array.Float32:
		return math.IsNaN(float64(typedArr.Value(row)))
	}
	return false
}

func normalizeZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
