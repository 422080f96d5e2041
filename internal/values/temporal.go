package values

import (
	"fmt"
	"time"
)

// Temporal backs the six temporal Kinds (Date, Time, DateTime, LocalTime,
// LocalDateTime, Duration). A single struct covers all six so Value stays
// a fixed-size tagged union; which fields are meaningful depends on the
// owning Value's Kind.
type Temporal struct {
	// t holds the wall-clock instant for Date/Time/DateTime/LocalTime/
	// LocalDateTime. For zoned kinds (Time, DateTime) the zone is t.Location().
	t time.Time
	// months/days/seconds/nanos hold a Duration's calendar-aware components;
	// Neo4j-style durations distinguish months/days from a sub-day remainder
	// so that `duration('P1M') + date(...)` behaves month-wise, not as 30 days.
	months  int64
	days    int64
	seconds int64
	nanos   int64
}

// NewDate builds a DATE temporal from calendar components.
func NewDate(year int, month time.Month, day int) Temporal {
	return Temporal{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NewTime builds a TIME (zoned) temporal.
func NewTime(hour, min, sec, nsec int, loc *time.Location) Temporal {
	if loc == nil {
		loc = time.UTC
	}
	return Temporal{t: time.Date(1970, 1, 1, hour, min, sec, nsec, loc)}
}

// NewLocalTime builds a LOCALTIME temporal (no zone).
func NewLocalTime(hour, min, sec, nsec int) Temporal {
	return Temporal{t: time.Date(1970, 1, 1, hour, min, sec, nsec, time.UTC)}
}

// NewDateTime builds a DATETIME (zoned) temporal from a time.Time.
func NewDateTime(t time.Time) Temporal { return Temporal{t: t} }

// NewLocalDateTime builds a LOCALDATETIME temporal from a time.Time whose
// location is discarded on comparison/formatting.
func NewLocalDateTime(t time.Time) Temporal {
	return Temporal{t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// NewDuration builds a DURATION temporal from its four canonical components.
func NewDuration(months, days, seconds, nanos int64) Temporal {
	return Temporal{months: months, days: days, seconds: seconds, nanos: nanos}
}

// Time returns the underlying instant for non-Duration temporals.
func (t Temporal) Time() time.Time { return t.t }

// DurationParts returns a Duration's four canonical components.
func (t Temporal) DurationParts() (months, days, seconds, nanos int64) {
	return t.months, t.days, t.seconds, t.nanos
}

// AsGoDuration approximates a Duration as a time.Duration (30-day months,
// 24-hour days); used only by arithmetic that needs a flat offset, never
// for display.
func (t Temporal) AsGoDuration() time.Duration {
	days := t.days + t.months*30
	return time.Duration(days)*24*time.Hour + time.Duration(t.seconds)*time.Second + time.Duration(t.nanos)
}

// Equal compares two temporals of the same Kind by instant/components.
func (t Temporal) Equal(o Temporal) bool {
	if t.months != 0 || t.days != 0 || t.seconds != 0 || t.nanos != 0 || o.months != 0 || o.days != 0 || o.seconds != 0 || o.nanos != 0 {
		return t.months == o.months && t.days == o.days && t.seconds == o.seconds && t.nanos == o.nanos
	}
	return t.t.Equal(o.t)
}

// Compare orders two temporals of the same Kind.
func (t Temporal) Compare(o Temporal) int {
	if t.t.Before(o.t) {
		return -1
	}
	if t.t.After(o.t) {
		return 1
	}
	return 0
}

// String renders the display form: the instant in RFC 3339, or for a
// non-zero Duration P<months>M<days>DT<seconds>S<nanos>N. The codec stores
// temporals through DateString/TimeString/LocalTimeString/DurationString
// instead.
func (t Temporal) String() string {
	if !t.t.IsZero() || (t.months == 0 && t.days == 0 && t.seconds == 0 && t.nanos == 0) {
		return t.t.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("P%dM%dDT%dS%dN", t.months, t.days, t.seconds, t.nanos)
}

// DateString renders just the date portion (YYYY-MM-DD), used by the
// `date()` function and DATE-kind formatting.
func (t Temporal) DateString() string { return t.t.Format("2006-01-02") }

// TimeString renders just the time-of-day portion with zone offset.
func (t Temporal) TimeString() string { return t.t.Format("15:04:05.999999999Z07:00") }

// LocalTimeString renders just the time-of-day portion without a zone.
func (t Temporal) LocalTimeString() string { return t.t.Format("15:04:05.999999999") }

// DurationString renders the ISO-8601 duration form, e.g. "P1Y2M3DT4H5M6S".
func (t Temporal) DurationString() string {
	years := t.months / 12
	months := t.months % 12
	hours := t.seconds / 3600
	rem := t.seconds % 3600
	mins := rem / 60
	secs := rem % 60
	s := "P"
	if years != 0 {
		s += fmt.Sprintf("%dY", years)
	}
	if months != 0 {
		s += fmt.Sprintf("%dM", months)
	}
	if t.days != 0 {
		s += fmt.Sprintf("%dD", t.days)
	}
	if hours != 0 || mins != 0 || secs != 0 || t.nanos != 0 {
		s += "T"
		if hours != 0 {
			s += fmt.Sprintf("%dH", hours)
		}
		if mins != 0 {
			s += fmt.Sprintf("%dM", mins)
		}
		if secs != 0 || t.nanos != 0 {
			if t.nanos != 0 {
				s += fmt.Sprintf("%d.%09dS", secs, t.nanos)
			} else {
				s += fmt.Sprintf("%dS", secs)
			}
		}
	}
	if s == "P" {
		s = "PT0S"
	}
	return s
}

// Point is the spatial logical type (§3): a 2D coordinate pair, optionally
// flagged as geographic (longitude/latitude over WGS-84) rather than
// Cartesian (x/y).
type Point struct {
	X, Y       float64
	Geographic bool
	SRID       int
}

// String renders the point in literal form: `point({x: …, y: …})`
// Cartesian or `point({longitude: …, latitude: …})` geo. The codec stores
// points as a tagged JSON object instead.
func (p Point) String() string {
	if p.Geographic {
		return fmt.Sprintf("point({longitude: %g, latitude: %g})", p.X, p.Y)
	}
	return fmt.Sprintf("point({x: %g, y: %g})", p.X, p.Y)
}
