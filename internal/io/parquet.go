package io

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
)

// Read reads Parquet data and returns a Table. Null values are kept as
// missing values.
func (r *ParquetReader) Read() (*table.Table, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	readProps := pqarrow.ArrowReadProperties{BatchSize: int64(r.options.BatchSize)}
	arrowReader, err := pqarrow.NewFileReader(pqReader, readProps, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer arrowTable.Release()

	return r.fromArrowTable(arrowTable)
}

// fromArrowTable converts an Arrow table to a Table, joining chunked
// columns into single arrays
func (r *ParquetReader) fromArrowTable(arrowTable arrow.Table) (*table.Table, error) {
	schema := arrowTable.Schema()
	cols := make([]series.ISeries, 0, arrowTable.NumCols())
	release := func() {
		for _, c := range cols {
			c.Release()
		}
	}

	for i := range int(arrowTable.NumCols()) {
		field := schema.Field(i)
		arr, err := r.joinChunks(arrowTable.Column(i).Data(), field.Type)
		if err != nil {
			release()
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}

		s, err := series.FromArray(field.Name, arr)
		arr.Release()
		if err != nil {
			release()
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		cols = append(cols, s)
	}

	t, err := table.New(cols...)
	if err != nil {
		release()
		return nil, err
	}
	return t, nil
}

func (r *ParquetReader) joinChunks(chunked *arrow.Chunked, dt arrow.DataType) (arrow.Array, error) {
	chunks := chunked.Chunks()
	switch len(chunks) {
	case 0:
		return array.MakeArrayOfNull(r.mem, dt, 0), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	default:
		return array.Concatenate(chunks, r.mem)
	}
}

// Write writes the Table to Parquet format. Every column is written as a
// nullable field. When the destination is an io.Closer it is closed once
// the file footer is written.
func (w *ParquetWriter) Write(t *table.Table) error {
	arrowTable := toArrowTable(t)
	defer arrowTable.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compressionCodec(w.options.Compression)),
		parquet.WithBatchSize(int64(max(w.options.BatchSize, 1))),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(memory.NewGoAllocator()))

	writer, err := pqarrow.NewFileWriter(arrowTable.Schema(), w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	rowGroup := int64(max(w.options.BatchSize, 1))
	if err := writer.WriteTable(arrowTable, rowGroup); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing file writer: %w", err)
	}
	return nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Codecs.Gzip
	case "lz4":
		return compress.Codecs.Lz4Raw
	case "zstd":
		return compress.Codecs.Zstd
	case "uncompressed":
		return compress.Codecs.Uncompressed
	default:
		return compress.Codecs.Snappy
	}
}

// toArrowTable shares the table's column arrays with a new Arrow table
func toArrowTable(t *table.Table) arrow.Table {
	fields := make([]arrow.Field, 0, t.Width())
	columns := make([]arrow.Column, 0, t.Width())

	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		arr := s.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()

		column := arrow.NewColumn(field, chunked)
		chunked.Release()

		fields = append(fields, field)
		columns = append(columns, *column)
	}

	schema := arrow.NewSchema(fields, nil)
	out := array.NewTable(schema, columns, int64(t.Len()))
	for i := range columns {
		columns[i].Release()
	}
	return out
}
