package timeline

import (
	"errors"
	"time"
)

// DateKeyLayout is the local calendar-day key format. Lexicographic
// comparison of keys in this layout is chronologically correct.
const DateKeyLayout = "2006-01-02"

// StampLayout is the fixed-width UTC timestamp format used on the wire.
const StampLayout = "20060102T150405Z"

// ErrMalformedStamp is returned for any input that deviates from the
// 8-digits / 'T' / 6-digits / 'Z' shape.
var ErrMalformedStamp = errors.New("malformed timestamp")

// ParseStamp parses a fixed-width UTC timestamp (YYYYMMDDTHHMMSSZ) into
// an absolute instant. Only the shape is validated; out-of-range calendar
// fields (e.g. month 13) are handed to time.Date, which normalizes them
// instead of rejecting.
func ParseStamp(text string) (time.Time, error) {
	if len(text) != 16 || text[8] != 'T' || text[15] != 'Z' {
		return time.Time{}, ErrMalformedStamp
	}
	for i := 0; i < 8; i++ {
		if text[i] < '0' || text[i] > '9' {
			return time.Time{}, ErrMalformedStamp
		}
	}
	for i := 9; i < 15; i++ {
		if text[i] < '0' || text[i] > '9' {
			return time.Time{}, ErrMalformedStamp
		}
	}

	year := digits(text[0:4])
	month := digits(text[4:6])
	day := digits(text[6:8])
	hour := digits(text[9:11])
	minute := digits(text[11:13])
	second := digits(text[13:15])

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// FormatStamp renders an instant back into the wire timestamp format.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// LocalDateKey renders an instant as a YYYY-MM-DD key in the viewer's
// zone. The same instant can bucket into different days for different
// observers; grouping follows the viewer's wall-clock day on purpose.
func LocalDateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateKeyLayout)
}

// digits converts an all-ASCII-digit substring. Callers have already
// validated the bytes.
func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
