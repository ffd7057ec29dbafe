package crossout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDate = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	dmyDate = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
)

// ParseDate reads a leading ISO (YYYY-MM-DD...) or day/month/year date with
// '/' or '-' separators as a UTC calendar day. Out-of-range components roll
// over into the following month or year.
func ParseDate(value string) (time.Time, bool) {
	y, m, d, ok := dateParts(value)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

// FormatDate renders a supported date as DD/MM/YYYY. Values that do not parse,
// or whose month or day is out of range, are returned trimmed but otherwise
// unchanged.
func FormatDate(value string) string {
	s := strings.TrimSpace(value)
	y, m, d, ok := dateParts(s)
	if !ok || m < 1 || m > 12 || d < 1 || d > 31 {
		return s
	}
	return fmt.Sprintf("%02d/%02d/%04d", d, m, y)
}

func dateParts(value string) (year, month, day int, ok bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, 0, 0, false
	}
	if m := isoDate.FindStringSubmatch(s); m != nil {
		return atoi(m[1]), atoi(m[2]), atoi(m[3]), true
	}
	if m := dmyDate.FindStringSubmatch(s); m != nil {
		return atoi(m[3]), atoi(m[2]), atoi(m[1]), true
	}
	return 0, 0, 0, false
}

// atoi is only called on regexp digit groups.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
