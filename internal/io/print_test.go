package io_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paveg/grouper/internal/io"
	"github.com/paveg/grouper/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	tbl := testutil.CreatePenguinTable(mem.Allocator, testutil.WithNulls())
	defer tbl.Release()

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, io.Print(&buf, tbl, io.PrintOptions{MaxRows: 3, MissingRepr: "NA"}))

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		require.Len(t, lines, 6)
		assert.Contains(t, lines[0], "bill_length_mm")
		assert.Contains(t, lines[1], "Torgersen")
		assert.Contains(t, lines[3], "NA")
		assert.Equal(t, "... 9 more rows", lines[4])
		assert.Equal(t, "[12 rows x 8 columns]", lines[5])
	})

	t.Run("full", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, io.Print(&buf, tbl, io.DefaultPrintOptions()))

		assert.NotContains(t, buf.String(), "more rows")
		assert.Len(t, strings.Split(strings.TrimRight(buf.String(), "\n"), "\n"), 14)
	})
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NA"},
		{"Adelie", "Adelie"},
		{int64(3750), "3750"},
		{int32(7), "7"},
		{39.1, "39.1"},
		{float32(2.5), "2.5"},
		{true, "true"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, io.FormatValue(tt.in, "NA"))
	}
}
