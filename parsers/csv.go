package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"
)

// Record represents a single source row as a map of column name to value
type Record map[string]string

// Rows is a lazily read sequence of records. Iteration stops after the first error.
type Rows = iter.Seq2[Record, error]

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidUTF8 means a source cell is not valid UTF-8 text
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// ReadCSV reads CSV from io.Reader and yields one record per data row.
// The first line is the header; a leading UTF-8 byte-order mark is dropped.
// Rows shorter than the header get "" for the missing trailing columns.
func ReadCSV(reader io.Reader) Rows {
	return func(yield func(Record, error) bool) {
		csvReader := csv.NewReader(stripBOM(reader))
		csvReader.ReuseRecord = true   // Reuse slice for better performance
		csvReader.FieldsPerRecord = -1 // Allow variable number of fields
		csvReader.LazyQuotes = true

		// Read header row
		headers, err := csvReader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				yield(nil, fmt.Errorf("read header: %w", err))
			}
			return
		}

		// Make a copy of headers since we're reusing the record slice
		headersCopy := make([]string, len(headers))
		copy(headersCopy, headers)
		if err := checkUTF8(headersCopy); err != nil {
			yield(nil, fmt.Errorf("read header: %w", err))
			return
		}

		rowNum := 0
		for {
			row, err := csvReader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}

			rowNum++

			record, err := zipRow(headersCopy, row)
			if err != nil {
				yield(nil, fmt.Errorf("row %d: %w", rowNum, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// zipRow maps row values to headers. Duplicate header names keep the last value.
func zipRow(headers, row []string) (Record, error) {
	if err := checkUTF8(row); err != nil {
		return nil, err
	}

	record := make(Record, len(headers))
	for i, header := range headers {
		if i < len(row) {
			record[header] = row[i]
		} else {
			record[header] = "" // Missing column value
		}
	}
	return record, nil
}

// checkUTF8 reports the first cell that is not valid UTF-8
func checkUTF8(cells []string) error {
	for i, cell := range cells {
		if !utf8.ValidString(cell) {
			return fmt.Errorf("column %d: %w", i+1, ErrInvalidUTF8)
		}
	}
	return nil
}

func stripBOM(reader io.Reader) io.Reader {
	br := bufio.NewReader(reader)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	return br
}
