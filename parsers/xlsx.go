package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of a spreadsheet and yields one record per
// non-blank data row. The first row is the header.
func ReadXLSX(reader io.Reader) Rows {
	return func(yield func(Record, error) bool) {
		book, err := excelize.OpenReader(reader)
		if err != nil {
			yield(nil, fmt.Errorf("open workbook: %w", err))
			return
		}
		defer book.Close()

		sheet := book.GetSheetName(0)
		if sheet == "" {
			return
		}

		rows, err := book.Rows(sheet)
		if err != nil {
			yield(nil, fmt.Errorf("sheet %q: %w", sheet, err))
			return
		}
		defer rows.Close()

		var headers []string
		rowNum := 0
		for rows.Next() {
			cells, err := rows.Columns()
			if err != nil {
				yield(nil, fmt.Errorf("sheet %q: %w", sheet, err))
				return
			}

			if headers == nil {
				if len(cells) == 0 {
					continue
				}
				headers = append([]string(nil), cells...)
				headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
				if err := checkUTF8(headers); err != nil {
					yield(nil, fmt.Errorf("sheet %q: header: %w", sheet, err))
					return
				}
				continue
			}

			rowNum++
			if blank(cells) {
				continue
			}
			record, err := zipRow(headers, cells)
			if err != nil {
				yield(nil, fmt.Errorf("sheet %q: row %d: %w", sheet, rowNum, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}

		if err := rows.Error(); err != nil {
			yield(nil, fmt.Errorf("sheet %q: %w", sheet, err))
		}
	}
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}
