package core

import (
	"errors"
	"slices"
	"testing"
)

func collectRows(t *testing.T, table RawTable) []RawRow {
	t.Helper()
	var rows []RawRow
	for row, err := range table.Rows() {
		if err != nil {
			t.Fatalf("Rows() error: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestCSVReader_HeaderMode(t *testing.T) {
	data := "\xef\xbb\xbf name , price\nWidget,9.99\n\n  ,  \nGadget,\"1,5\"\n"

	table, err := CSVReader{}.Read([]byte(data), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	if got, want := table.Header(), []string{"name", "price"}; !slices.Equal(got, want) {
		t.Errorf("Header() = %q, want %q", got, want)
	}

	rows := collectRows(t, table)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (blank and whitespace-only lines skipped)", len(rows))
	}
	if !slices.Equal(rows[0].Fields, []string{"Widget", "9.99"}) {
		t.Errorf("row 0 = %q", rows[0].Fields)
	}
	if rows[0].Line != 2 {
		t.Errorf("row 0 line = %d, want 2", rows[0].Line)
	}
	if !slices.Equal(rows[1].Fields, []string{"Gadget", "1,5"}) {
		t.Errorf("row 1 = %q", rows[1].Fields)
	}
	if rows[1].Line != 5 {
		t.Errorf("row 1 line = %d, want 5", rows[1].Line)
	}
}

func TestCSVReader_RowsRestartable(t *testing.T) {
	table, err := CSVReader{}.Read([]byte("a,b\n1,2\n3,4\n"), false)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if table.Header() != nil {
		t.Errorf("Header() = %q, want nil in positional mode", table.Header())
	}

	first := collectRows(t, table)
	second := collectRows(t, table)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("passes yielded %d and %d rows, want 3 each", len(first), len(second))
	}
	for i := range first {
		if !slices.Equal(first[i].Fields, second[i].Fields) || first[i].Line != second[i].Line {
			t.Errorf("row %d differs between passes: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCSVReader_RaggedRowsAllowed(t *testing.T) {
	table, err := CSVReader{}.Read([]byte("name,price\nWidget\nGadget,1,extra\n"), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	rows := collectRows(t, table)
	if len(rows) != 2 || len(rows[0].Fields) != 1 || len(rows[1].Fields) != 3 {
		t.Fatalf("ragged rows not passed through: %v", rows)
	}
}

func TestCSVReader_Delimiter(t *testing.T) {
	table, err := CSVReader{Comma: ';'}.Read([]byte("name;price\nWidget;9,99\n"), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	rows := collectRows(t, table)
	if len(rows) != 1 || !slices.Equal(rows[0].Fields, []string{"Widget", "9,99"}) {
		t.Errorf("rows = %v", rows)
	}
}

func TestCSVReader_InvalidUTF8Replaced(t *testing.T) {
	table, err := CSVReader{}.Read([]byte("name\nCaf\xe9\n"), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	rows := collectRows(t, table)
	if len(rows) != 1 || rows[0].Fields[0] != "Caf\uFFFD" {
		t.Errorf("rows = %q", rows)
	}
}

func TestCSVReader_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		hasHeader bool
	}{
		{name: "empty file", data: "", hasHeader: false},
		{name: "whitespace only", data: " \n\n", hasHeader: true},
		{name: "duplicate header", data: "name,price,name\nA,1,B\n", hasHeader: true},
		{name: "unterminated quote in header", data: "\"name,price\n", hasHeader: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CSVReader{}.Read([]byte(tt.data), tt.hasHeader)
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Read() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestCSVReader_MalformedRowSurfacesFromRows(t *testing.T) {
	table, err := CSVReader{}.Read([]byte("name,price\nWid\"get,1\n"), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}

	var gotErr error
	for _, err := range table.Rows() {
		if err != nil {
			gotErr = err
			break
		}
	}
	if !errors.Is(gotErr, ErrMalformedInput) {
		t.Errorf("Rows() error = %v, want ErrMalformedInput", gotErr)
	}
}

func TestCSVReader_LazyQuotes(t *testing.T) {
	table, err := CSVReader{LazyQuotes: true}.Read([]byte("name,price\nWid\"get,1\n"), true)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	rows := collectRows(t, table)
	if len(rows) != 1 || rows[0].Fields[0] != "Wid\"get" {
		t.Errorf("rows = %q", rows)
	}
}
