package table

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/errors"
	"github.com/paveg/grouper/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPenguinTable(t *testing.T, mem memory.Allocator) *Table {
	t.Helper()

	bill, err := series.NewNullable("bill_length_mm",
		[]float64{39.1, 39.5, 0, 46.1, 50.0},
		[]bool{true, true, false, true, true}, mem)
	require.NoError(t, err)

	tbl, err := New(
		series.New("species", []string{"Adelie", "Adelie", "Adelie", "Gentoo", "Chinstrap"}, mem),
		series.New("island", []string{"Torgersen", "Torgersen", "Biscoe", "Biscoe", "Dream"}, mem),
		bill,
	)
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("basic shape", func(t *testing.T) {
		tbl := newPenguinTable(t, mem)
		defer tbl.Release()

		assert.Equal(t, 5, tbl.Len())
		assert.Equal(t, 3, tbl.Width())
		assert.Equal(t, []string{"species", "island", "bill_length_mm"}, tbl.Columns())
		assert.True(t, tbl.HasColumn("island"))
		assert.False(t, tbl.HasColumn("sex"))

		dt, ok := tbl.ColumnType("bill_length_mm")
		require.True(t, ok)
		assert.Equal(t, "float64", dt.Name())
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := New(
			series.New("species", []string{"A"}, mem),
			series.New("species", []string{"B"}, mem),
		)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("unequal lengths", func(t *testing.T) {
		_, err := New(
			series.New("species", []string{"A", "B"}, mem),
			series.New("n", []int64{1}, mem),
		)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		tbl, err := New()
		require.NoError(t, err)
		assert.Equal(t, 0, tbl.Len())
		assert.Equal(t, "Table[empty]", tbl.String())
	})
}

func TestValue(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newPenguinTable(t, mem)
	defer tbl.Release()

	v, err := tbl.Value("species", 3)
	require.NoError(t, err)
	assert.Equal(t, "Gentoo", v)

	v, err = tbl.Value("bill_length_mm", 2)
	require.NoError(t, err)
	assert.Nil(t, v, "missing value")

	_, err = tbl.Value("sex", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidColumn)

	_, err = tbl.Value("species", 9)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestSelect(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newPenguinTable(t, mem)
	defer tbl.Release()

	selected, err := tbl.Select("bill_length_mm", "species")
	require.NoError(t, err)
	defer selected.Release()

	assert.Equal(t, []string{"bill_length_mm", "species"}, selected.Columns())
	assert.Equal(t, 5, selected.Len())
	assert.Equal(t, 3, tbl.Width(), "source is untouched")

	_, err = tbl.Select("species", "sex")
	assert.ErrorIs(t, err, errors.ErrInvalidColumn)
}

func TestWithColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newPenguinTable(t, mem)
	defer tbl.Release()

	t.Run("append", func(t *testing.T) {
		year := series.New("year", []int64{2007, 2007, 2008, 2009, 2009}, mem)
		defer year.Release()

		out, err := tbl.WithColumn(year)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []string{"species", "island", "bill_length_mm", "year"}, out.Columns())
		assert.Equal(t, 3, tbl.Width(), "source is untouched")
	})

	t.Run("replace keeps position", func(t *testing.T) {
		island := series.New("island", []string{"a", "b", "c", "d", "e"}, mem)
		defer island.Release()

		out, err := tbl.WithColumn(island)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []string{"species", "island", "bill_length_mm"}, out.Columns())
		v, _ := out.Value("island", 0)
		assert.Equal(t, "a", v)
		v, _ = tbl.Value("island", 0)
		assert.Equal(t, "Torgersen", v)
	})

	t.Run("length mismatch", func(t *testing.T) {
		short := series.New("year", []int64{2007}, mem)
		defer short.Release()

		_, err := tbl.WithColumn(short)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestTake(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newPenguinTable(t, mem)
	defer tbl.Release()

	out, err := tbl.Take([]int{4, 2}, mem)
	require.NoError(t, err)
	defer out.Release()

	assert.Equal(t, 2, out.Len())
	v, _ := out.Value("species", 0)
	assert.Equal(t, "Chinstrap", v)
	v, _ = out.Value("bill_length_mm", 1)
	assert.Nil(t, v)

	_, err = tbl.Take([]int{10}, mem)
	assert.Error(t, err)
}

func TestSortBy(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newPenguinTable(t, mem)
	defer tbl.Release()

	column := func(tb *Table, name string) []any {
		out := make([]any, tb.Len())
		for i := range out {
			out[i], _ = tb.Value(name, i)
		}
		return out
	}

	t.Run("descending with missing last", func(t *testing.T) {
		out, err := tbl.SortBy("bill_length_mm", false, mem)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []any{50.0, 46.1, 39.5, 39.1, nil}, column(out, "bill_length_mm"))
	})

	t.Run("ascending with missing last", func(t *testing.T) {
		out, err := tbl.SortBy("bill_length_mm", true, mem)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []any{39.1, 39.5, 46.1, 50.0, nil}, column(out, "bill_length_mm"))
	})

	t.Run("stable on ties", func(t *testing.T) {
		out, err := tbl.SortBy("species", true, mem)
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []any{"Adelie", "Adelie", "Adelie", "Chinstrap", "Gentoo"}, column(out, "species"))
		assert.Equal(t, []any{"Torgersen", "Torgersen", "Biscoe", "Dream", "Biscoe"}, column(out, "island"))
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := tbl.SortBy("sex", true, mem)
		assert.ErrorIs(t, err, errors.ErrInvalidColumn)
	})
}
