package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Writer emits rows to an underlying tabular file. Close must be called to
// flush buffered data; for XLSX nothing reaches the destination before it.
type Writer interface {
	Write(row []string) error
	Close() error
}

// NewWriter returns a Writer for the given format writing to w.
func NewWriter(w io.Writer, format Format, opts Options) (Writer, error) {
	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		cw.Comma = opts.delimiter()
		return &csvWriter{w: cw}, nil
	case FormatXLSX:
		return newXLSXWriter(w, opts.sheet())
	default:
		return nil, fmt.Errorf("tabular: unsupported format %q", format)
	}
}

type csvWriter struct {
	w *csv.Writer
}

func (c *csvWriter) Write(row []string) error {
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("tabular: write csv row: %w", err)
	}
	return nil
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("tabular: flush csv: %w", err)
	}
	return nil
}

type xlsxWriter struct {
	dst    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

func newXLSXWriter(dst io.Writer, sheet string) (*xlsxWriter, error) {
	f := excelize.NewFile()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("tabular: rename sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("tabular: open stream writer: %w", err)
	}

	return &xlsxWriter{dst: dst, file: f, stream: sw, row: 1}, nil
}

func (x *xlsxWriter) Write(row []string) error {
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("tabular: cell name: %w", err)
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	if err := x.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("tabular: write xlsx row: %w", err)
	}

	x.row++
	return nil
}

func (x *xlsxWriter) Close() error {
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("tabular: flush xlsx stream: %w", err)
	}
	if err := x.file.Write(x.dst); err != nil {
		return fmt.Errorf("tabular: write xlsx file: %w", err)
	}
	return x.file.Close()
}
