// Package parsers provides lazy, header-keyed row readers for CSV, NDJSON and XLSX exports.
//
// Every reader returns a Rows sequence (iter.Seq2[Record, error]). Nothing is read until
// the sequence is ranged over, and iteration stops at the first error, which is yielded
// with a nil record.
//
// Example usage for CSV:
//
//	file, _ := os.Open("TubeTrend_Ranking_2026-01-15.csv")
//	defer file.Close()
//
//	for record, err := range parsers.ReadCSV(file) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(record["Channel ID"])
//	}
//
// Example usage with format detection:
//
//	rows := parsers.Read(file, parsers.DetectFormat(path))
package parsers
