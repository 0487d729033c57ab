package normalizer

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// Value is one named field of a Record. A nil Value encodes as null.
type Value struct {
	Name  string
	Value any
}

// Record is an output record whose fields keep schema order when encoded
type Record struct {
	fields []Value
}

// NewRecord builds a record from fields in the given order
func NewRecord(fields ...Value) Record {
	return Record{fields: append([]Value(nil), fields...)}
}

// Fields returns a copy of the record's fields in order
func (r Record) Fields() []Value {
	return append([]Value(nil), r.fields...)
}

// Get returns the value stored under name
func (r Record) Get(name string) (any, bool) {
	for _, field := range r.fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// String returns the value under name if it is a string, "" otherwise
func (r Record) String(name string) string {
	value, _ := r.Get(name)
	s, _ := value.(string)
	return s
}

// Int returns the value under name if it is an integer, 0 otherwise
func (r Record) Int(name string) int64 {
	value, _ := r.Get(name)
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Nullable returns the string under name, nil when the field is null or missing
func (r Record) Nullable(name string) *string {
	value, _ := r.Get(name)
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		return v
	default:
		return nil
	}
}

// MarshalJSON encodes the record as an object with keys in field order.
// HTML characters are left unescaped.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, field.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, field.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return LiteralLineSeparators(buf.Bytes()), nil
}

func encodeValue(buf *bytes.Buffer, value any) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	// Encode terminates each value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// LiteralLineSeparators rewrites the \u2028 and \u2029 escapes that
// encoding/json always emits back into the literal characters. An escaped
// backslash followed by "u2028" is left alone.
func LiteralLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c != '\\' || i+1 >= len(data) {
			out = append(out, c)
			continue
		}
		if i+5 < len(data) && string(data[i+1:i+5]) == "u202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = utf8.AppendRune(out, '\u2028')
			} else {
				out = utf8.AppendRune(out, '\u2029')
			}
			i += 5
			continue
		}
		// Any other escape is copied as a pair so its second byte is never read as a backslash
		out = append(out, c, data[i+1])
		i++
	}
	return out
}
