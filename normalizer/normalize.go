package normalizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tubeseed/parsers"
)

var (
	// ErrMissingColumn means the source header has no column the schema reads
	ErrMissingColumn = errors.New("column not found in header")
	// ErrInvalidInteger means a non-empty value could not be parsed as a base-10 integer
	ErrInvalidInteger = errors.New("invalid integer")
)

// FieldError describes the row and field that stopped normalization
type FieldError struct {
	Row    int
	Field  string
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrInvalidInteger) {
		return fmt.Sprintf("row %d: %s: %v %q in column %q", e.Row, e.Field, e.Err, e.Value, e.Column)
	}
	return fmt.Sprintf("row %d: %s: %v: %q", e.Row, e.Field, e.Err, e.Column)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Normalize applies schema to every row in order and collects the records.
// Rows with an absent or empty identifier are skipped. The first lookup,
// coercion or read error aborts the whole sequence and no records are returned.
func Normalize(rows parsers.Rows, schema Schema) ([]Record, error) {
	records := []Record{}
	rowNum := 0
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		rowNum++

		record, ok, err := NormalizeRow(row, rowNum, schema)
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, record)
		}
	}
	return records, nil
}

// NormalizeRow maps a single row. It reports false when the row is skipped.
func NormalizeRow(row parsers.Record, rowNum int, schema Schema) (Record, bool, error) {
	if id, ok := row[schema.IDColumn]; !ok || id == "" {
		return Record{}, false, nil
	}

	fields := make([]Value, 0, len(schema.Fields))
	for _, field := range schema.Fields {
		value, err := extract(row, field)
		if err != nil {
			var fieldErr *FieldError
			if errors.As(err, &fieldErr) {
				fieldErr.Row = rowNum
			}
			return Record{}, false, err
		}
		fields = append(fields, Value{Name: field.Name, Value: value})
	}
	return Record{fields: fields}, true, nil
}

func extract(row parsers.Record, field Field) (any, error) {
	if field.Kind == KindConstant {
		return field.Value, nil
	}

	raw, ok := row[field.Column]
	if !ok {
		return nil, &FieldError{Field: field.Name, Column: field.Column, Err: ErrMissingColumn}
	}

	switch field.Kind {
	case KindCopy:
		return raw, nil
	case KindNullable:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	case KindInteger:
		if raw == "" {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, &FieldError{Field: field.Name, Column: field.Column, Value: raw, Err: ErrInvalidInteger}
		}
		return n, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported rule %s", field.Name, field.Kind)
	}
}
