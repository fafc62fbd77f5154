package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeAge = regexp.MustCompile(
	`(?i)(?:posted\s+)?(?:(?:less\s+than|about|over|almost)\s+)?(\d+)\s+(hour|day|week|month)s?\s+ago`)

// ParsePostingDate resolves "Posted N days ago" style text against the current time.
func ParsePostingDate(text string) time.Time {
	return ParsePostingDateAt(text, time.Now())
}

// ParsePostingDateAt resolves relative posting text against now. Unrecognized text yields now.
func ParsePostingDateAt(text string, now time.Time) time.Time {
	m := relativeAge.FindStringSubmatch(text)
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}

	switch strings.ToLower(m[2]) {
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, 0, -30*n)
	}
	return now
}
