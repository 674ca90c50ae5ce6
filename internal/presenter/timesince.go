package presenter

import (
	"fmt"
	"time"
)

const (
	secondsPerYear  = 31536000
	secondsPerMonth = 2592000
	secondsPerDay   = 86400
)

// TimeSince renders how long ago t was, e.g. "3 weeks ago". A unit is used
// once more than one whole unit has passed, so 20 hours is "20 hours ago"
// and 36 hours "36 hours ago" until the second full day. Spans of a week or
// more, but less than two months, are counted in weeks.
func TimeSince(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	if n := seconds / secondsPerYear; n > 1 {
		return ago(n, "year")
	}
	if n := seconds / secondsPerMonth; n > 1 {
		return ago(n, "month")
	}
	if days := seconds / secondsPerDay; days > 1 {
		if days >= 7 {
			return ago(days/7, "week")
		}
		return ago(days, "day")
	}
	if n := seconds / 3600; n > 1 {
		return ago(n, "hour")
	}
	if n := seconds / 60; n > 1 {
		return ago(n, "minute")
	}
	return ago(seconds, "second")
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
