package parsers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"
)

// ReadNDJSON reads NDJSON (newline-delimited JSON) from io.Reader and yields one record per line.
// Each line should be a JSON object. Values are flattened to strings: null becomes "",
// numbers keep their literal text and nested values are re-encoded as compact JSON.
func ReadNDJSON(reader io.Reader) Rows {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(stripBOM(reader))

		// Increase buffer size for large lines (up to 1MB per line)
		const maxCapacity = 1024 * 1024 // 1MB
		buf := make([]byte, 64*1024)
		scanner.Buffer(buf, maxCapacity)

		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := bytes.TrimSpace(scanner.Bytes())

			// Skip empty lines
			if len(line) == 0 {
				continue
			}

			// The decoder would silently replace invalid bytes with U+FFFD
			if !utf8.Valid(line) {
				yield(nil, fmt.Errorf("line %d: %w", lineNum, ErrInvalidUTF8))
				return
			}

			decoder := json.NewDecoder(bytes.NewReader(line))
			decoder.UseNumber()

			var raw map[string]interface{}
			if err := decoder.Decode(&raw); err != nil {
				yield(nil, fmt.Errorf("line %d: %w", lineNum, err))
				return
			}

			record, err := flatten(raw)
			if err != nil {
				yield(nil, fmt.Errorf("line %d: %w", lineNum, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}

		// Check for scanner errors (e.g., line too long)
		if err := scanner.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func flatten(raw map[string]interface{}) (Record, error) {
	record := make(Record, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			record[key] = ""
		case string:
			record[key] = v
		case json.Number:
			record[key] = v.String()
		case bool:
			if v {
				record[key] = "true"
			} else {
				record[key] = "false"
			}
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			record[key] = string(encoded)
		}
	}
	return record, nil
}
