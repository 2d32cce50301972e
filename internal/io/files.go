package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/grouper/internal/table"
)

// ReadCSVFile loads a CSV file with the default options
func ReadCSVFile(path string, mem memory.Allocator) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return NewCSVReader(f, DefaultCSVOptions(), mem).Read()
}

// ReadParquetFile loads a Parquet file
func ReadParquetFile(path string, mem memory.Allocator) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return NewParquetReader(f, DefaultParquetOptions(), mem).Read()
}

// ReadFile picks the reader from the file extension: .parquet or .csv
func ReadFile(path string, mem memory.Allocator) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return ReadParquetFile(path, mem)
	case ".csv", ".txt":
		return ReadCSVFile(path, mem)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

// WriteFile saves t in the format given by the file extension
func WriteFile(path string, t *table.Table) error {
	var writer func(f *os.File) DataWriter
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		writer = func(f *os.File) DataWriter { return NewParquetWriter(f, DefaultParquetOptions()) }
	case ".csv", ".txt":
		writer = func(f *os.File) DataWriter { return NewCSVWriter(f, DefaultCSVOptions()) }
	default:
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writer(f).Write(t); err != nil {
		_ = f.Close()
		return err
	}
	// The Parquet writer closes f itself
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
