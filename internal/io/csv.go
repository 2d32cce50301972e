package io

import (
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
)

type columnKind int

const (
	kindString columnKind = iota
	kindBool
	kindInt
	kindFloat
)

// Read reads CSV data and returns a Table. Cells matching one of the
// NullValues tokens become missing values and are ignored by type inference.
func (r *CSVReader) Read() (*table.Table, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return table.New()
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose data to work with columns; short rows are padded as missing
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	cols := make([]series.ISeries, 0, len(headers))
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		cols = append(cols, s)
	}

	t, err := table.New(cols...)
	if err != nil {
		for _, c := range cols {
			c.Release()
		}
		return nil, err
	}
	return t, nil
}

func (r *CSVReader) isNull(value string) bool {
	nulls := r.options.NullValues
	if nulls == nil {
		nulls = DefaultNullValues
	}
	return slices.Contains(nulls, value)
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (series.ISeries, error) {
	valid := make([]bool, len(data))
	for i, value := range data {
		valid[i] = !r.isNull(value)
	}

	switch r.inferKind(data, valid) {
	case kindBool:
		values := make([]bool, len(data))
		for i, value := range data {
			values[i] = valid[i] && strings.EqualFold(value, trueStr)
		}
		return series.NewNullable(name, values, valid, r.mem)
	case kindInt:
		values := make([]int64, len(data))
		for i, value := range data {
			if valid[i] {
				values[i], _ = strconv.ParseInt(value, 10, 64)
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	case kindFloat:
		values := make([]float64, len(data))
		for i, value := range data {
			if valid[i] {
				values[i], _ = strconv.ParseFloat(value, 64)
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	default:
		values := make([]string, len(data))
		for i, value := range data {
			if valid[i] {
				values[i] = value
			}
		}
		return series.NewNullable(name, values, valid, r.mem)
	}
}

// inferKind determines the most specific type every present value parses as
func (r *CSVReader) inferKind(data []string, valid []bool) columnKind {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasValue := false

	for i, value := range data {
		if !valid[i] {
			continue
		}
		hasValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	switch {
	case !hasValue:
		return kindString
	case canBeBool:
		return kindBool
	case canBeInt:
		return kindInt
	case canBeFloat:
		return kindFloat
	default:
		return kindString
	}
}

// Write writes the Table to CSV format
func (w *CSVWriter) Write(t *table.Table) error {
	csvWriter := csv.NewWriter(w.writer)
	if w.options.Delimiter != 0 {
		csvWriter.Comma = w.options.Delimiter
	}

	if w.options.Header {
		if err := csvWriter.Write(t.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	arrays := make([]arrow.Array, 0, t.Width())
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()
	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		arrays = append(arrays, s.Array())
	}

	row := make([]string, t.Width())
	for i := range t.Len() {
		for j, arr := range arrays {
			row[j] = FormatValue(series.ValueAt(arr, i), w.options.MissingRepr)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// FormatValue renders a cell value as text; nil renders as missing
func FormatValue(v any, missing string) string {
	switch val := v.(type) {
	case nil:
		return missing
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
