package dw

import (
	"strings"
	"time"

	"news_digest/internal/domain"
)

// Absolute formats tried in order after the relative labels.
var dateFormats = []string{
	"01/02/2006", // e.g. 10/12/2024
	"2006-01-02", // e.g. 2024-10-12
}

// ParseDate normalizes a free-text date label into a calendar date relative
// to the given reference day. Relative labels are matched first: the site
// renders recent items as "Today, 10:03" or "Yesterday", and those would
// never survive a strict format parse. ok is false when nothing matches;
// that is a sentinel outcome the caller must check, not an error.
func ParseDate(raw string, today time.Time) (date time.Time, ok bool) {
	lower := strings.ToLower(raw)

	if strings.Contains(lower, "today") {
		return domain.Day(today), true
	}
	if strings.Contains(lower, "yesterday") {
		return domain.Day(today).AddDate(0, 0, -1), true
	}

	trimmed := strings.TrimSpace(raw)
	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, trimmed); err == nil {
			return domain.Day(parsed), true
		}
	}

	return time.Time{}, false
}
