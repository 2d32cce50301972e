package grouper_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPenguins(t *testing.T) *grouper.Table {
	t.Helper()

	tbl, err := grouper.ReadCSV(filepath.Join("testdata", "penguins.csv"), memory.NewGoAllocator())
	require.NoError(t, err)
	return tbl
}

func values(t *testing.T, tbl *grouper.Table, column string) []any {
	t.Helper()

	out := make([]any, tbl.Len())
	for i := range out {
		v, err := tbl.Value(column, i)
		require.NoError(t, err)
		out[i] = v
	}
	return out
}

func TestSimpleExample(t *testing.T) {
	mem := memory.NewGoAllocator()

	g1, err := grouper.NewSeries("g1", []string{"A", "A", "B"}, mem)
	require.NoError(t, err)
	g2, err := grouper.NewSeries("g2", []string{"X", "X", "Y"}, mem)
	require.NoError(t, err)
	v, err := grouper.NewSeries("v", []int64{1, 2, 3}, mem)
	require.NoError(t, err)

	tbl, err := grouper.NewTable(g1, g2, v)
	require.NoError(t, err)
	defer tbl.Release()

	counts, err := grouper.CountBy(tbl, "g1", "g2")
	require.NoError(t, err)
	defer counts.Release()

	assert.Equal(t, []any{"A", "B"}, values(t, counts, "g1"))
	assert.Equal(t, []any{"X", "Y"}, values(t, counts, "g2"))
	assert.Equal(t, []any{int64(2), int64(1)}, values(t, counts, "n"))

	sums, err := grouper.AggregateBy(tbl, []string{"g1"}, grouper.NewSpec().Add("v", grouper.Sum), grouper.AggregateOptions{})
	require.NoError(t, err)
	defer sums.Release()

	assert.Equal(t, []any{"A", "B"}, values(t, sums, "g1"))
	assert.Equal(t, []any{3.0, 3.0}, values(t, sums, "v"))
}

func TestPenguinWorkflow(t *testing.T) {
	penguins := loadPenguins(t)
	defer penguins.Release()

	t.Run("counts", func(t *testing.T) {
		counts, err := grouper.CountBy(penguins, "species", "island")
		require.NoError(t, err)
		defer counts.Release()

		assert.Equal(t, []any{int64(10), int64(3), int64(3), int64(9), int64(6)}, values(t, counts, grouper.CountColumn))
	})

	t.Run("aggregate from YAML", func(t *testing.T) {
		spec, err := grouper.LoadSpecYAML([]byte(`
- column: bill_length_mm
  reductions: [mean, max]
- column: body_mass_g
  reductions: [median]
`))
		require.NoError(t, err)

		out, err := grouper.AggregateBy(penguins, []string{"species"}, spec,
			grouper.AggregateOptions{OrderBy: "bill_length_mm_max"})
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []string{"species", "bill_length_mm_mean", "bill_length_mm_max", "body_mass_g_median"}, out.Columns())
		assert.Equal(t, []any{"Chinstrap", "Gentoo", "Adelie"}, values(t, out, "species"))
	})

	t.Run("having", func(t *testing.T) {
		out, err := grouper.HavingFilter(penguins, []string{"species"}, grouper.SizeGreaterThan(7))
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, 25, out.Len())
	})

	t.Run("transform", func(t *testing.T) {
		out, err := grouper.WithGroupTransform(penguins, []string{"species"}, "bill_length_mm", grouper.Mean, "mean_bill_length")
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, penguins.Len(), out.Len())
		assert.True(t, out.HasColumn("mean_bill_length"))
	})

	t.Run("relative fraction", func(t *testing.T) {
		out, err := grouper.RelativeFraction(penguins, []string{"species", "island"}, []string{"species"})
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []any{int64(16), int64(16), int64(16), int64(9), int64(6)}, values(t, out, grouper.AggCountsColumn))
		fractions := values(t, out, grouper.FractionColumn)
		assert.InDelta(t, 1.0, fractions[0].(float64)+fractions[1].(float64)+fractions[2].(float64), 1e-9)
	})

	t.Run("ratio", func(t *testing.T) {
		out, err := grouper.CrossColumnRatioByGroup(penguins, []string{"species"}, "bill_depth_mm", "bill_length_mm",
			grouper.RatioOptions{Name: "depth_length_ratio"})
		require.NoError(t, err)
		defer out.Release()

		assert.Equal(t, []string{"species", "depth_length_ratio"}, out.Columns())
		for _, v := range values(t, out, "depth_length_ratio") {
			require.NotNil(t, v)
			assert.Greater(t, v.(float64), 0.0)
		}
	})

	t.Run("print", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, grouper.Print(&buf, penguins, 5))
		assert.Contains(t, buf.String(), "[31 rows x 8 columns]")
	})
}

func TestErrorKinds(t *testing.T) {
	penguins := loadPenguins(t)
	defer penguins.Release()

	_, err := grouper.CountBy(penguins, "genus")
	assert.True(t, errors.Is(err, grouper.ErrInvalidColumn))

	var tableErr *grouper.TableError
	require.True(t, errors.As(err, &tableErr))
	assert.Equal(t, "genus", tableErr.Column)

	_, err = grouper.ParseReduction("mode")
	assert.True(t, errors.Is(err, grouper.ErrUnknownReduction))

	_, err = grouper.RelativeFraction(penguins, []string{"species"}, []string{"island"})
	assert.True(t, errors.Is(err, grouper.ErrInvalidHierarchy))

	_, err = grouper.AggregateBy(penguins, []string{"species"}, grouper.NewSpec().Add("island", grouper.Mean), grouper.AggregateOptions{})
	assert.True(t, errors.Is(err, grouper.ErrUnsupportedType))
}

func TestGlobalConfig(t *testing.T) {
	original := grouper.GetConfig()
	defer func() { require.NoError(t, grouper.SetConfig(original)) }()

	path := filepath.Join(t.TempDir(), "grouper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("joiner: \".\"\nkeep_single_level_unflattened: false\n"), 0o600))

	cfg, err := grouper.LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, grouper.SetConfig(cfg))

	penguins := loadPenguins(t)
	defer penguins.Release()

	out, err := grouper.AggregateBy(penguins, []string{"island"}, grouper.NewSpec().Add("body_mass_g", grouper.Max), grouper.AggregateOptions{})
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []string{"island", "body_mass_g.max"}, out.Columns())

	bad := grouper.DefaultConfig()
	bad.DivisionByZero = "ignore"
	assert.Error(t, grouper.SetConfig(bad))
}

func TestEngineMetrics(t *testing.T) {
	penguins := loadPenguins(t)
	defer penguins.Release()

	metrics := grouper.NewMetricsCollector()
	engine, err := grouper.NewEngine(grouper.WithMetrics(metrics))
	require.NoError(t, err)

	out, err := engine.HavingFilter(penguins, []string{"species"}, grouper.SizeAtLeast(9))
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, 25, out.Len())

	recorded := metrics.Metrics()
	require.Len(t, recorded, 1)
	assert.Equal(t, grouper.OperationMetrics{
		Operation: "HavingFilter",
		Duration:  recorded[0].Duration,
		Rows:      31,
		Groups:    3,
	}, recorded[0])
	assert.Equal(t, 1, metrics.Summary().TotalOperations)
}

func TestWriteFileRoundTrip(t *testing.T) {
	penguins := loadPenguins(t)
	defer penguins.Release()

	for _, name := range []string{"penguins.parquet", "penguins.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, grouper.WriteFile(path, penguins))

			back, err := grouper.ReadFile(path, memory.NewGoAllocator())
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, penguins.Columns(), back.Columns())
			assert.Equal(t, values(t, penguins, "bill_length_mm"), values(t, back, "bill_length_mm"))
			assert.Equal(t, values(t, penguins, "sex"), values(t, back, "sex"))
		})
	}
}
