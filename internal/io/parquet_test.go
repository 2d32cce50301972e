package io_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paveg/grouper/internal/io"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
	"github.com/paveg/grouper/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetRoundTrip(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := testutil.CreatePenguinTable(mem.Allocator, testutil.WithNulls())
	defer tbl.Release()

	for _, compression := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(compression, func(t *testing.T) {
			options := io.ParquetOptions{Compression: compression, BatchSize: 5}

			var buf bytes.Buffer
			require.NoError(t, io.NewParquetWriter(&buf, options).Write(tbl))

			back, err := io.NewParquetReader(bytes.NewReader(buf.Bytes()), options, mem.Allocator).Read()
			require.NoError(t, err)
			defer back.Release()

			testutil.AssertTableEqual(t, tbl, back)
		})
	}
}

func TestParquetMixedTypes(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := table.MustNew(
		series.New("int32_col", []int32{10, 20, 30}, mem.Allocator),
		series.New("float32_col", []float32{1.5, 2.5, 3.5}, mem.Allocator),
		series.New("bool_col", []bool{true, false, true}, mem.Allocator),
	)
	defer tbl.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewParquetWriter(&buf, io.DefaultParquetOptions()).Write(tbl))

	back, err := io.NewParquetReader(&buf, io.DefaultParquetOptions(), mem.Allocator).Read()
	require.NoError(t, err)
	defer back.Release()

	testutil.AssertTableEqual(t, tbl, back)
}

func TestParquetReaderErrors(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	_, err := io.NewParquetReader(bytes.NewReader(nil), io.DefaultParquetOptions(), mem.Allocator).Read()
	require.Error(t, err)

	_, err = io.NewParquetReader(bytes.NewReader([]byte("species,island\n")), io.DefaultParquetOptions(), mem.Allocator).Read()
	require.Error(t, err)
}

func TestParquetFiles(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl, err := io.ReadCSVFile("../../testdata/penguins.csv", mem.Allocator)
	require.NoError(t, err)
	defer tbl.Release()

	path := filepath.Join(t.TempDir(), "penguins.parquet")
	require.NoError(t, io.WriteFile(path, tbl))

	back, err := io.ReadFile(path, mem.Allocator)
	require.NoError(t, err)
	defer back.Release()

	testutil.AssertTableEqual(t, tbl, back)

	csvPath := filepath.Join(t.TempDir(), "penguins.csv")
	require.NoError(t, io.WriteFile(csvPath, back))
	again, err := io.ReadFile(csvPath, mem.Allocator)
	require.NoError(t, err)
	defer again.Release()
	testutil.AssertTableEqual(t, tbl, again)

	assert.Error(t, io.WriteFile(filepath.Join(t.TempDir(), "penguins.json"), tbl))
}

type closeCounter struct {
	bytes.Buffer
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestParquetWriteFile(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := testutil.CreatePenguinTable(mem.Allocator, testutil.WithNulls())
	defer tbl.Release()

	t.Run("writer closes its destination", func(t *testing.T) {
		var sink closeCounter
		require.NoError(t, io.NewParquetWriter(&sink, io.DefaultParquetOptions()).Write(tbl))
		assert.Positive(t, sink.closes)
		assert.Positive(t, sink.Len())
	})

	for _, ext := range []string{".parquet", ".pq"} {
		t.Run("write file "+ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "penguins"+ext)
			require.NoError(t, io.WriteFile(path, tbl))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())

			back, err := io.ReadFile(path, mem.Allocator)
			require.NoError(t, err)
			defer back.Release()
			testutil.AssertTableEqual(t, tbl, back)
		})
	}
}
