package eval

import (
	"fmt"
	"time"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

func init() {
	builtins["date"] = fnDate
	builtins["time"] = fnTime
	builtins["localtime"] = fnLocalTime
	builtins["datetime"] = fnDateTime
	builtins["localdatetime"] = fnLocalDateTime
	builtins["duration"] = fnDuration
	builtins["duration.between"] = fnDurationBetween
}

func fnDurationBetween(args []values.Value) (values.Value, error) {
	return DurationBetween(arg(args, 0), arg(args, 1))
}

// temporalComponent implements the documented component-access set: date
// parts on Date/DateTime/LocalDateTime, time parts on Time/DateTime/
// LocalTime/LocalDateTime, and years/months/days/seconds/nanoseconds on
// Duration.
func temporalComponent(v values.Value, name string) (values.Value, error) {
	t, _ := v.Temporal()
	switch v.Kind() {
	case values.KindDuration:
		months, days, seconds, nanos := t.DurationParts()
		switch name {
		case "months":
			return values.Int(months % 12), nil
		case "years":
			return values.Int(months / 12), nil
		case "days":
			return values.Int(days), nil
		case "seconds":
			return values.Int(seconds), nil
		case "nanoseconds":
			return values.Int(nanos), nil
		default:
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("duration has no component %q", name)}
		}
	default:
		tt := t.Time()
		switch name {
		case "year":
			return values.Int(int64(tt.Year())), nil
		case "month":
			return values.Int(int64(tt.Month())), nil
		case "day":
			return values.Int(int64(tt.Day())), nil
		case "hour":
			return values.Int(int64(tt.Hour())), nil
		case "minute":
			return values.Int(int64(tt.Minute())), nil
		case "second":
			return values.Int(int64(tt.Second())), nil
		case "millisecond":
			return values.Int(int64(tt.Nanosecond() / 1e6)), nil
		case "microsecond":
			return values.Int(int64(tt.Nanosecond() / 1e3)), nil
		case "nanosecond":
			return values.Int(int64(tt.Nanosecond())), nil
		case "dayOfWeek":
			wd := int(tt.Weekday())
			if wd == 0 {
				wd = 7
			}
			return values.Int(int64(wd)), nil
		case "epochSeconds":
			return values.Int(tt.Unix()), nil
		default:
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("temporal value has no component %q", name)}
		}
	}
}

func fnDate(args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		now := time.Now().UTC()
		return values.FromTemporal(values.KindDate, values.NewDate(now.Year(), now.Month(), now.Day())), nil
	}
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("date: invalid format %q", s)}
		}
		return values.FromTemporal(values.KindDate, values.NewDate(t.Year(), t.Month(), t.Day())), nil
	}
	if m, ok := v.Map(); ok {
		year, _ := numField(m, "year")
		month, _ := numField(m, "month")
		day, _ := numField(m, "day")
		return values.FromTemporal(values.KindDate, values.NewDate(int(year), time.Month(int(month)), int(day))), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "date: unsupported argument"}
}

func fnTime(args []values.Value) (values.Value, error) {
	now := time.Now().UTC()
	if len(args) == 0 {
		return values.FromTemporal(values.KindTime, values.NewTime(now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)), nil
	}
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		t, err := time.Parse("15:04:05.999999999Z07:00", s)
		if err != nil {
			t, err = time.Parse("15:04:05", s)
			if err != nil {
				return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("time: invalid format %q", s)}
			}
		}
		return values.FromTemporal(values.KindTime, values.NewTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "time: unsupported argument"}
}

func fnLocalTime(args []values.Value) (values.Value, error) {
	now := time.Now().UTC()
	if len(args) == 0 {
		return values.FromTemporal(values.KindLocalTime, values.NewLocalTime(now.Hour(), now.Minute(), now.Second(), now.Nanosecond())), nil
	}
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		t, err := time.Parse("15:04:05", s)
		if err != nil {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("localtime: invalid format %q", s)}
		}
		return values.FromTemporal(values.KindLocalTime, values.NewLocalTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond())), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "localtime: unsupported argument"}
}

func fnDateTime(args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.FromTemporal(values.KindDateTime, values.NewDateTime(time.Now().UTC())), nil
	}
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("datetime: invalid format %q", s)}
		}
		return values.FromTemporal(values.KindDateTime, values.NewDateTime(t)), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "datetime: unsupported argument"}
}

func fnLocalDateTime(args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.FromTemporal(values.KindLocalDateTime, values.NewLocalDateTime(time.Now().UTC())), nil
	}
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
		if err != nil {
			return values.Value{}, &gerrors.QueryExecutionError{Message: fmt.Sprintf("localdatetime: invalid format %q", s)}
		}
		return values.FromTemporal(values.KindLocalDateTime, values.NewLocalDateTime(t)), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "localdatetime: unsupported argument"}
}

func fnDuration(args []values.Value) (values.Value, error) {
	v := arg(args, 0)
	if s, ok := v.Str(); ok {
		months, days, seconds, nanos, err := parseDurationLiteral(s)
		if err != nil {
			return values.Value{}, &gerrors.QueryExecutionError{Message: err.Error()}
		}
		return values.FromTemporal(values.KindDuration, values.NewDuration(months, days, seconds, nanos)), nil
	}
	if m, ok := v.Map(); ok {
		years, _ := numField(m, "years")
		months, _ := numField(m, "months")
		days, _ := numField(m, "days")
		hours, _ := numField(m, "hours")
		minutes, _ := numField(m, "minutes")
		seconds, _ := numField(m, "seconds")
		totalMonths := int64(years*12 + months)
		totalSeconds := int64(hours*3600 + minutes*60 + seconds)
		return values.FromTemporal(values.KindDuration, values.NewDuration(totalMonths, int64(days), totalSeconds, 0)), nil
	}
	return values.Value{}, &gerrors.QueryExecutionError{Message: "duration: unsupported argument"}
}

func parseDurationLiteral(s string) (months, days, seconds, nanos int64, err error) {
	if len(s) == 0 || s[0] != 'P' {
		return 0, 0, 0, 0, fmt.Errorf("duration: invalid ISO-8601 duration %q", s)
	}
	rest := s[1:]
	inTime := false
	num := ""
	for _, r := range rest {
		switch {
		case r == 'T':
			inTime = true
		case r >= '0' && r <= '9' || r == '.' || r == '-':
			num += string(r)
		case r == 'Y':
			var n int64
			fmt.Sscanf(num, "%d", &n)
			months += n * 12
			num = ""
		case r == 'M' && !inTime:
			var n int64
			fmt.Sscanf(num, "%d", &n)
			months += n
			num = ""
		case r == 'D':
			var n int64
			fmt.Sscanf(num, "%d", &n)
			days += n
			num = ""
		case r == 'H':
			var n int64
			fmt.Sscanf(num, "%d", &n)
			seconds += n * 3600
			num = ""
		case r == 'M' && inTime:
			var n int64
			fmt.Sscanf(num, "%d", &n)
			seconds += n * 60
			num = ""
		case r == 'S':
			var f float64
			fmt.Sscanf(num, "%f", &f)
			whole := int64(f)
			seconds += whole
			nanos += int64((f - float64(whole)) * 1e9)
			num = ""
		}
	}
	return months, days, seconds, nanos, nil
}

// DurationBetween implements duration.between(a, b) (§4.6): the calendar
// difference expressed purely in days + seconds, no month normalization.
func DurationBetween(a, b values.Value) (values.Value, error) {
	ta, ok1 := a.Temporal()
	tb, ok2 := b.Temporal()
	if !ok1 || !ok2 {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "duration.between requires two temporal values"}
	}
	d := tb.Time().Sub(ta.Time())
	totalSeconds := int64(d.Seconds())
	days := totalSeconds / 86400
	seconds := totalSeconds % 86400
	nanos := d.Nanoseconds() - totalSeconds*1e9
	return values.FromTemporal(values.KindDuration, values.NewDuration(0, days, seconds, nanos)), nil
}
