package tabular_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/mosaicpim/mosaic/pkg/tabular"
)

var rows = [][]string{
	{"sku", "family", "attribute-name-ecommerce-en_US"},
	{"tee-001", "clothing", "Classic tee"},
	{"tee-002", "clothing", "Value; with the delimiter"},
}

func roundTrip(t *testing.T, format tabular.Format, opts tabular.Options) [][]string {
	t.Helper()

	var buf bytes.Buffer
	w, err := tabular.NewWriter(&buf, format, opts)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := tabular.ReadAll(bytes.NewReader(buf.Bytes()), format, opts)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return got
}

func TestCSVRoundTrip(t *testing.T) {
	got := roundTrip(t, tabular.FormatCSV, tabular.Options{})
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, rows)
	}
}

func TestCSVCustomDelimiter(t *testing.T) {
	opts := tabular.Options{Delimiter: ','}
	got := roundTrip(t, tabular.FormatCSV, opts)
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, rows)
	}
}

func TestCSVDefaultDelimiterIsSemicolon(t *testing.T) {
	var buf bytes.Buffer
	w, err := tabular.NewWriter(&buf, tabular.FormatCSV, tabular.Options{})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Write([]string{"a", "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got, want := buf.String(), "a;b\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	got := roundTrip(t, tabular.FormatXLSX, tabular.Options{})
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, rows)
	}
}

func TestXLSXCustomSheet(t *testing.T) {
	opts := tabular.Options{Sheet: "products"}
	got := roundTrip(t, tabular.FormatXLSX, opts)
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, rows)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := tabular.ParseFormat("csv"); err != nil || f != tabular.FormatCSV {
		t.Errorf("csv: got (%v, %v)", f, err)
	}
	if f, err := tabular.ParseFormat("xlsx"); err != nil || f != tabular.FormatXLSX {
		t.Errorf("xlsx: got (%v, %v)", f, err)
	}
	if _, err := tabular.ParseFormat("parquet"); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}
