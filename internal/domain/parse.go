package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyBedtime    = errors.New("empty bedtime")
	ErrInvalidBedtime  = errors.New("invalid bedtime")
	ErrInvalidTimeZone = errors.New("invalid time zone")
)

// twelveHourLayouts are accepted in addition to 24h "HH:MM".
var twelveHourLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM"}

// ParseBedtime parses "22:30", "9:05", "10:30 PM" or "10 pm" into a Bedtime.
func ParseBedtime(s string) (Bedtime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyBedtime
	}

	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		for _, layout := range twelveHourLayouts {
			t, err := time.Parse(layout, upper)
			if err == nil {
				return NewBedtime(t.Hour(), t.Minute())
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidBedtime, s)
	}

	h, m, err := parseHHMM(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidBedtime, s, err)
	}
	return NewBedtime(h, m)
}

func parseHHMM(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || m < 0 || m > 59 {
		return 0, 0, errors.New("invalid minute")
	}
	return h, m, nil
}

// ValidateTZ checks that tz is a valid IANA location and returns its canonical name.
func ValidateTZ(tz string) (string, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeZone, tz)
	}
	return loc.String(), nil
}

// LoadLocation resolves tz, falling back to fallback and then UTC.
func LoadLocation(tz, fallback string) *time.Location {
	if loc, err := time.LoadLocation(tz); err == nil && tz != "" {
		return loc
	}
	if loc, err := time.LoadLocation(fallback); err == nil {
		return loc
	}
	return time.UTC
}
