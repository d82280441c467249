package prayer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minutesPerDay = 24 * 60
	secondsPerDay = minutesPerDay * 60
)

// ParseToMinutes converts a 24-hour "HH:MM" clock into minutes since local
// midnight. Empty or invalid input yields 0. A trailing timezone suffix such
// as "05:17 (GST)" is ignored.
func ParseToMinutes(clock string) int {
	h, m, ok := splitClock(clock)
	if !ok {
		return 0
	}
	return h*60 + m
}

// FormatTwelveHour renders a 24-hour "HH:MM" clock as "H:MM AM/PM".
// Hours 0 and 12 both render as 12. Empty or invalid input yields "".
func FormatTwelveHour(clock string) string {
	if clock == "" {
		return ""
	}
	h, m, ok := splitClock(clock)
	if !ok {
		return ""
	}

	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, period)
}

// FormatCountdown renders a number of seconds as zero-padded "HH:MM:SS".
// Hours are not wrapped at 24. Negative input is treated as zero.
func FormatCountdown(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h, m, s := SplitSeconds(totalSeconds)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// SplitSeconds decomposes a second count into hours, minutes and seconds.
func SplitSeconds(total int) (hours, minutes, seconds int) {
	return total / 3600, (total % 3600) / 60, total % 60
}

// splitClock parses "HH:MM" (optionally followed by " (TZ)") into its parts.
func splitClock(raw string) (hour, minute int, ok bool) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	hs, ms, found := strings.Cut(s, ":")
	if !found || hs == "" || ms == "" {
		return 0, 0, false
	}

	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
