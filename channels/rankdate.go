package channels

import (
	"path/filepath"
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var exportDate = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)

// RankDateFromPath returns the export date embedded in a file name such as
// TubeTrend_Ranking_2026-01-15.csv, or now's date in loc when there is none.
func RankDateFromPath(path string, now time.Time, loc *time.Location) string {
	matches := exportDate.FindAllString(filepath.Base(path), -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if _, err := time.Parse(dateLayout, matches[i]); err == nil {
			return matches[i]
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dateLayout)
}
