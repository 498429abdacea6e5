package domain

import (
	"fmt"
	"time"
)

// Bedtime is a time of day expressed as minutes since midnight (0..1439).
type Bedtime int

const minutesPerDay = 24 * 60

// NewBedtime builds a Bedtime from an hour (0..23) and minute (0..59).
func NewBedtime(hour, minute int) (Bedtime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrInvalidBedtime, hour, minute)
	}
	return Bedtime(hour*60 + minute), nil
}

// Minutes returns minutes since midnight.
func (b Bedtime) Minutes() int { return int(b) }

// String formats the bedtime as 24h HH:MM.
func (b Bedtime) String() string {
	m := int(b)
	if m < 0 || m >= minutesPerDay {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Kitchen formats the bedtime as "10:30 PM".
func (b Bedtime) Kitchen() string {
	t := time.Date(2000, time.January, 1, int(b)/60, int(b)%60, 0, 0, time.UTC)
	return t.Format("03:04 PM")
}

// PastBedtime reports whether now's time of day in loc is at or after bedtime.
// The comparison is per calendar day: 23:00 is past a 23:00 bedtime, 00:30 is not.
// Continuation after midnight is decided by the caller from reminder state.
func PastBedtime(now time.Time, loc *time.Location, b Bedtime) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return sec >= int(b)*60
}
