package eurostat

import (
	"strings"
	"time"
)

// DownloadLog records the last day a dataset was downloaded
type DownloadLog struct {
	DatasetCode      string
	LastDownloadDate time.Time
}

// NormalizeCode returns the form used as key in the download log
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsUpToDate reports whether the dataset was downloaded on or after the
// calendar day of now.
func (l *DownloadLog) IsUpToDate(now time.Time) bool {
	if l == nil || l.LastDownloadDate.IsZero() {
		return false
	}
	return !Day(l.LastDownloadDate).Before(Day(now))
}

// Day keeps the calendar day of t as midnight UTC, so dates read back from
// a DATE column compare equal to the local day they were written for.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
