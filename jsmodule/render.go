// Package jsmodule renders normalized records as ES module declarations.
package jsmodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"tubeseed/normalizer"
)

const indent = "    "

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Binding is one exported constant holding an array of records
type Binding struct {
	Name    string
	Records []normalizer.Record
}

// Module is an ordered list of bindings. Bindings are separated by a blank line.
type Module struct {
	Bindings        []Binding
	TrailingNewline bool
}

// Render writes every binding as `export const NAME = [...];` with the records
// pretty-printed using four-space indentation. Non-ASCII and HTML characters are
// emitted literally and an empty record set renders as [].
func (m Module) Render() ([]byte, error) {
	var buf bytes.Buffer
	for i, binding := range m.Bindings {
		if !identifier.MatchString(binding.Name) {
			return nil, fmt.Errorf("invalid binding name %q", binding.Name)
		}
		if i > 0 {
			buf.WriteString("\n\n")
		}

		data, err := encodeRecords(binding.Records)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", binding.Name, err)
		}

		buf.WriteString("export const ")
		buf.WriteString(binding.Name)
		buf.WriteString(" = ")
		buf.Write(data)
		buf.WriteByte(';')
	}
	if m.TrailingNewline {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func encodeRecords(records []normalizer.Record) ([]byte, error) {
	if records == nil {
		records = []normalizer.Record{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(records); err != nil {
		return nil, err
	}
	return normalizer.LiteralLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
