package contextutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClockDuration parses a duration entered as "HH:MM:SS" (or "MM:SS").
// Empty input returns a zero duration without error so optional fields can
// pass through untouched.
func ParseClockDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, WrapError(ErrInvalidFormat, fmt.Sprintf("invalid duration %q, expected HH:MM:SS", s))
	}

	// Normalize MM:SS to HH:MM:SS
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}

	var segs [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0, WrapError(ErrInvalidFormat, fmt.Sprintf("invalid duration segment %q in %q", p, s))
		}
		segs[i] = v
	}
	if segs[1] > 59 || segs[2] > 59 {
		return 0, WrapError(ErrInvalidFormat, fmt.Sprintf("minutes and seconds must be below 60 in %q", s))
	}

	return time.Duration(segs[0])*time.Hour +
		time.Duration(segs[1])*time.Minute +
		time.Duration(segs[2])*time.Second, nil
}

// FormatClockDuration renders a duration as "HH:MM:SS".
func FormatClockDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
