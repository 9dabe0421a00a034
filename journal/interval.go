package journal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval describes a reporting period: a repeating unit (days, weeks,
// months, quarters or years) with an optional explicit range. The zero
// interval repeats never and buckets everything together.
type Interval struct {
	Years  int
	Months int
	Days   int

	// Begin and End bound the report range when non-zero.
	Begin time.Time
	End   time.Time

	// WeeksAligned snaps bucket starts to Sundays for week-based periods.
	WeeksAligned bool
}

// HasPeriod reports whether the interval repeats at all.
func (iv Interval) HasPeriod() bool {
	return iv.Years != 0 || iv.Months != 0 || iv.Days != 0
}

// Start returns the beginning of the bucket containing date.
func (iv Interval) Start(date time.Time) time.Time {
	y, m, d := date.Date()
	switch {
	case iv.Years != 0:
		return time.Date(y-y%iv.Years, 1, 1, 0, 0, 0, 0, date.Location())
	case iv.Months != 0:
		month := (int(m) - 1) / iv.Months * iv.Months
		return time.Date(y, time.Month(month+1), 1, 0, 0, 0, 0, date.Location())
	case iv.Days != 0 && iv.WeeksAligned:
		start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
		return start.AddDate(0, 0, -int(start.Weekday()))
	case iv.Days != 0:
		base := iv.Begin
		if base.IsZero() {
			return time.Date(y, m, d, 0, 0, 0, 0, date.Location())
		}
		days := int(date.Sub(base).Hours() / 24)
		bucket := days / iv.Days * iv.Days
		return base.AddDate(0, 0, bucket)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location())
}

// Next returns the start of the bucket following the one that starts at t.
func (iv Interval) Next(t time.Time) time.Time {
	return t.AddDate(iv.Years, iv.Months, iv.Days)
}

// ParseInterval parses a period expression such as "monthly", "weekly",
// "every 10 days", "monthly from 2009/01/01", or "from 2009/01/01 to
// 2009/06/30". Keywords may be combined; unknown words are an error.
func ParseInterval(expr string) (Interval, error) {
	var iv Interval
	words := strings.Fields(strings.ToLower(expr))

	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "daily":
			iv.Days = 1
		case "weekly":
			iv.Days = 7
			iv.WeeksAligned = true
		case "biweekly":
			iv.Days = 14
			iv.WeeksAligned = true
		case "monthly":
			iv.Months = 1
		case "bimonthly":
			iv.Months = 2
		case "quarterly":
			iv.Months = 3
		case "yearly":
			iv.Years = 1
		case "every":
			if i+2 >= len(words) {
				return iv, fmt.Errorf("malformed period expression %q: %q needs a count and a unit", expr, "every")
			}
			n, err := strconv.Atoi(words[i+1])
			if err != nil || n <= 0 {
				return iv, fmt.Errorf("malformed period expression %q: bad count %q", expr, words[i+1])
			}
			switch strings.TrimSuffix(words[i+2], "s") {
			case "day":
				iv.Days = n
			case "week":
				iv.Days = 7 * n
				iv.WeeksAligned = true
			case "month":
				iv.Months = n
			case "quarter":
				iv.Months = 3 * n
			case "year":
				iv.Years = n
			default:
				return iv, fmt.Errorf("malformed period expression %q: unknown unit %q", expr, words[i+2])
			}
			i += 2
		case "from", "since":
			if i+1 >= len(words) {
				return iv, fmt.Errorf("malformed period expression %q: %q needs a date", expr, words[i])
			}
			t, err := ParseDate(words[i+1])
			if err != nil {
				return iv, err
			}
			iv.Begin = t
			i++
		case "to", "until":
			if i+1 >= len(words) {
				return iv, fmt.Errorf("malformed period expression %q: %q needs a date", expr, words[i])
			}
			t, err := ParseDate(words[i+1])
			if err != nil {
				return iv, err
			}
			iv.End = t
			i++
		case "in":
			// "in 2009" or "in 2009/01"
			if i+1 >= len(words) {
				return iv, fmt.Errorf("malformed period expression %q: %q needs a date", expr, "in")
			}
			begin, end, err := parseDateRange(words[i+1])
			if err != nil {
				return iv, err
			}
			iv.Begin, iv.End = begin, end
			i++
		default:
			// A bare date word acts like "in".
			if begin, end, err := parseDateRange(words[i]); err == nil {
				iv.Begin, iv.End = begin, end
				continue
			}
			return iv, fmt.Errorf("unknown period keyword %q in %q", words[i], expr)
		}
	}

	return iv, nil
}

var dateFormats = []string{"2006/01/02", "2006-01-02", "2006.01.02"}

// ParseDate parses a date in any of the accepted journal formats.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseDateRange interprets a partial date as a range: "2009" covers the
// year, "2009/01" the month, and a full date a single day.
func parseDateRange(s string) (time.Time, time.Time, error) {
	if t, err := ParseDate(s); err == nil {
		return t, t.AddDate(0, 0, 1), nil
	}
	for _, layout := range []string{"2006/01", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, t.AddDate(0, 1, 0), nil
		}
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", s)
}
