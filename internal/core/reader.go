package core

// reader.go defines the tabular reader contract and its CSV implementation.
//
// The reader turns file content into rows of raw strings. Rows() is lazy and
// restartable: every call re-tokenizes the same bytes, so two passes over a
// table always yield the same rows. Blank lines never produce a row.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// TabularReader converts raw file content into rows of string cells.
// Implementations fail with ErrMalformedInput when content cannot be tokenized.
type TabularReader interface {
	Read(content []byte, hasHeader bool) (RawTable, error)
}

// RawTable is a parsed file: an optional header and a restartable row sequence.
type RawTable interface {
	// Header returns the header names, or nil when the file has no header row.
	Header() []string
	// Rows yields every non-blank data row. Errors wrap ErrMalformedInput.
	Rows() iter.Seq2[RawRow, error]
}

// CSVReader reads delimited text with encoding/csv.
type CSVReader struct {
	Comma      rune // Field delimiter (default ',')
	LazyQuotes bool // Tolerate stray quotes instead of failing the import
}

// Read validates the header (when hasHeader is set) and returns a table
// whose rows are tokenized on demand.
func (r CSVReader) Read(content []byte, hasHeader bool) (RawTable, error) {
	content = normalizeContent(content)
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedInput)
	}

	t := &csvTable{content: content, comma: r.Comma, lazy: r.LazyQuotes}
	if t.comma == 0 {
		t.comma = ','
	}

	if !hasHeader {
		return t, nil
	}

	cr := t.newReader()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ErrMalformedInput)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		if isEmptyRow(rec) {
			continue
		}

		header := make([]string, len(rec))
		for i, h := range rec {
			header[i] = strings.TrimSpace(h)
		}
		if err := checkHeader(header); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}

		t.header = header
		return t, nil
	}
}

type csvTable struct {
	content []byte
	comma   rune
	lazy    bool
	header  []string
}

func (t *csvTable) Header() []string {
	if t.header == nil {
		return nil
	}
	return append([]string(nil), t.header...)
}

func (t *csvTable) Rows() iter.Seq2[RawRow, error] {
	return func(yield func(RawRow, error) bool) {
		cr := t.newReader()
		headerSkipped := t.header == nil

		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(RawRow{}, fmt.Errorf("%w: %v", ErrMalformedInput, err))
				return
			}
			if isEmptyRow(rec) {
				continue
			}

			if !headerSkipped {
				headerSkipped = true
				continue
			}

			line, _ := cr.FieldPos(0)

			if !yield(RawRow{Line: line, Fields: rec}, nil) {
				return
			}
		}
	}
}

func (t *csvTable) newReader() *csv.Reader {
	cr := csv.NewReader(bytes.NewReader(t.content))
	cr.Comma = t.comma
	cr.FieldsPerRecord = -1 // Width is checked per row by the mapper
	cr.LazyQuotes = t.lazy
	return cr
}

// checkHeader rejects repeated non-empty header names.
func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	var dups []string
	for _, h := range header {
		if h == "" {
			continue
		}
		if seen[h] {
			dups = append(dups, h)
		}
		seen[h] = true
	}
	if len(dups) > 0 {
		return fmt.Errorf("duplicate header columns: %s", strings.Join(dups, ", "))
	}
	return nil
}

// normalizeContent strips a UTF-8 BOM and replaces invalid UTF-8 bytes.
func normalizeContent(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return sanitizeUTF8(data)
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
