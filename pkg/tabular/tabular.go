// Package tabular reads and writes delimiter-separated and spreadsheet files
// behind one row-oriented interface, so export and import code never branches
// on the connector format.
package tabular

import (
	"fmt"
)

// Format identifies the file format a reader or writer speaks.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Options tunes format-specific behaviour. Zero values pick sane defaults.
type Options struct {
	Delimiter rune   // CSV field separator, default ';'
	Sheet     string // XLSX sheet name, default "Sheet1"
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ';'
	}
	return o.Delimiter
}

func (o Options) sheet() string {
	if o.Sheet == "" {
		return "Sheet1"
	}
	return o.Sheet
}

// ParseFormat maps a file extension (without dot) to a Format.
func ParseFormat(ext string) (Format, error) {
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("tabular: unsupported format %q", ext)
	}
}
