package models

import "time"

// JobKind enumerates what a profile's jobs do.
type JobKind string

const (
	KindProductExport      JobKind = "product_export"
	KindProductModelExport JobKind = "product_model_export"
	KindCategoryExport     JobKind = "category_export"
	KindProductImport      JobKind = "product_import"
)

// JobKinds lists every valid job kind.
var JobKinds = []JobKind{
	KindProductExport, KindProductModelExport, KindCategoryExport, KindProductImport,
}

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	for _, known := range JobKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsExport reports whether the kind produces an artifact.
func (k JobKind) IsExport() bool { return k != KindProductImport }

// Connector is the interchange file format of a profile.
type Connector string

const (
	ConnectorCSV  Connector = "csv"
	ConnectorXLSX Connector = "xlsx"
)

// Extension returns the artifact filename extension for the connector.
func (c Connector) Extension() string { return string(c) }

// ContentSettings selects which slice of the catalog a job touches.
type ContentSettings struct {
	Channel    string   `json:"channel,omitempty"`
	Locales    []string `json:"locales,omitempty"`
	Attributes []string `json:"attributes,omitempty"` // empty = all family attributes
}

// FormatSettings controls scalar rendering in flat rows.
type FormatSettings struct {
	DateFormat       string `json:"dateFormat,omitempty"`       // Go layout, default 2006-01-02
	DecimalSeparator string `json:"decimalSeparator,omitempty"` // default "."
}

// CSVSettings controls the delimited-stream connector.
type CSVSettings struct {
	Delimiter string `json:"delimiter,omitempty"` // default ";"
	Enclosure string `json:"enclosure,omitempty"` // default `"`
}

// ProfileSettings is the globalSettings payload of a profile. Which parts
// apply depends on the job kind and connector.
type ProfileSettings struct {
	Content ContentSettings `json:"content"`
	Format  FormatSettings  `json:"format"`
	CSV     CSVSettings     `json:"csv"`
}

// DateLayout returns the configured date layout or the default.
func (s ProfileSettings) DateLayout() string {
	if s.Format.DateFormat != "" {
		return s.Format.DateFormat
	}
	return "2006-01-02"
}

// Separator returns the configured decimal separator or ".".
func (s ProfileSettings) Separator() string {
	if s.Format.DecimalSeparator != "" {
		return s.Format.DecimalSeparator
	}
	return "."
}

// CSVDelimiter returns the configured rune delimiter, default ';'.
func (s ProfileSettings) CSVDelimiter() rune {
	if s.CSV.Delimiter != "" {
		return []rune(s.CSV.Delimiter)[0]
	}
	return ';'
}

// Profile configures a bulk export or import.
type Profile struct {
	Code      string          `json:"code"`
	Job       JobKind         `json:"job"`
	Connector Connector       `json:"connector"`
	Labels    []LocaleValue   `json:"labels,omitempty"`
	Settings  ProfileSettings `json:"globalSettings"`
	CreatedAt time.Time       `json:"createdAt"`
}
