package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadAll reads every row from r. The first row is typically the header;
// callers split it off themselves. Short XLSX rows are returned as-is, the
// way the sheet stores them.
func ReadAll(r io.Reader, format Format, opts Options) ([][]string, error) {
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.Comma = opts.delimiter()
		cr.FieldsPerRecord = -1
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("tabular: read csv: %w", err)
		}
		return rows, nil
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("tabular: open xlsx: %w", err)
		}
		defer f.Close()

		rows, err := f.GetRows(opts.sheet())
		if err != nil {
			return nil, fmt.Errorf("tabular: read xlsx sheet %q: %w", opts.sheet(), err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("tabular: unsupported format %q", format)
	}
}
