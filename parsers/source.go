package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// Format identifies how a source file is decoded
type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
	FormatXLSX   Format = "xlsx"
)

// DetectFormat picks the format from the file extension. Unknown extensions are read as CSV.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Read returns the row sequence for reader decoded as format
func Read(reader io.Reader, format Format) Rows {
	switch format {
	case FormatNDJSON:
		return ReadNDJSON(reader)
	case FormatXLSX:
		return ReadXLSX(reader)
	default:
		return ReadCSV(reader)
	}
}
