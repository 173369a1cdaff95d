package field

import "strings"

type Day string

const (
	DayUnset  Day = ""
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

const DefaultTime = "00:00"

// ParseDay accepts a weekday name in any case. The empty string is DayUnset.
func ParseDay(s string) (Day, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DayUnset, true
	}
	for _, d := range Days {
		if string(d) == s {
			return d, true
		}
	}
	return DayUnset, false
}

// DayTime is a weekly deadline, serialized as "<day> <HH:MM>".
type DayTime struct {
	Day  Day
	Time string
}

// DecodeDayTime never fails. An unknown day decodes as unset.
func DecodeDayTime(s string) DayTime {
	parts := strings.Fields(s)
	dt := DayTime{Day: DayUnset, Time: DefaultTime}
	if len(parts) == 0 {
		return dt
	}
	day, ok := ParseDay(parts[0])
	if !ok {
		return dt
	}
	dt.Day = day
	if len(parts) > 1 {
		dt.Time = parts[1]
	}
	return dt
}

func (d DayTime) Encode() string {
	if d.Day == DayUnset {
		return ""
	}
	return string(d.Day) + " " + d.Time
}

// WithDay switches the day. Leaving unset without a time picks midnight and
// going back to unset drops the time.
func (d DayTime) WithDay(day Day) DayTime {
	if day == DayUnset {
		return DayTime{Day: DayUnset, Time: DefaultTime}
	}
	if d.Time == "" {
		d.Time = DefaultTime
	}
	d.Day = day
	return d
}
