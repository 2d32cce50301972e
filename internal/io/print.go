package io

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/grouper/internal/series"
	"github.com/paveg/grouper/internal/table"
)

// PrintOptions controls Print
type PrintOptions struct {
	// MaxRows limits the rows shown; 0 shows all
	MaxRows int
	// MissingRepr is shown for missing values
	MissingRepr string
}

// DefaultPrintOptions shows up to 20 rows with missing values as NA
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{MaxRows: 20, MissingRepr: DefaultMissing}
}

// Print writes t as aligned columns with a header line and a shape footer
func Print(w io.Writer, t *table.Table, opts PrintOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	arrays := make([]arrow.Array, 0, t.Width())
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()
	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		arrays = append(arrays, s.Array())
		fmt.Fprintf(tw, "%s\t", name)
	}
	fmt.Fprintln(tw)

	rows := t.Len()
	if opts.MaxRows > 0 && rows > opts.MaxRows {
		rows = opts.MaxRows
	}
	for i := range rows {
		for _, arr := range arrays {
			fmt.Fprintf(tw, "%s\t", FormatValue(series.ValueAt(arr, i), opts.MissingRepr))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rows < t.Len() {
		_, err := fmt.Fprintf(w, "... %d more rows\n", t.Len()-rows)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "[%d rows x %d columns]\n", t.Len(), t.Width())
	return err
}
