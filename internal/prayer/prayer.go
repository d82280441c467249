package prayer

import (
	"fmt"
	"slices"
	"time"

	"github.com/smokyabdulrahman/passerby/internal/api"
)

// Name identifies one of the five daily prayers.
type Name string

const (
	Fajr    Name = "Fajr"
	Dhuhr   Name = "Dhuhr"
	Asr     Name = "Asr"
	Maghrib Name = "Maghrib"
	Isha    Name = "Isha"
)

// Names lists the five prayers in canonical day order.
var Names = []Name{Fajr, Dhuhr, Asr, Maghrib, Isha}

// ShortNames maps prayer names to single-character abbreviations.
var ShortNames = map[Name]string{
	Fajr:    "F",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// Time is a prayer and its start as a 24-hour "HH:MM" wall clock in the
// location's timezone. It carries no date.
type Time struct {
	Name  Name   `json:"name"`
	Clock string `json:"time"`
}

// List holds one day's five prayers in canonical order. A List is replaced
// as a whole; callers must not mutate one they did not build.
type List []Time

// Clone returns an independent copy of l.
func (l List) Clone() List {
	return slices.Clone(l)
}

// Find returns the entry for name.
func (l List) Find(name Name) (Time, bool) {
	for _, t := range l {
		if t.Name == name {
			return t, true
		}
	}
	return Time{}, false
}

// On returns the prayer's start on the calendar day of day, in day's location.
func (t Time) On(day time.Time) time.Time {
	h, m, _ := splitClock(t.Clock)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// ParseTimings normalizes API timings into the five-prayer List.
// Every entry must be a valid "HH:MM" clock (an API timezone suffix such as
// " (BST)" is stripped); otherwise the whole payload is rejected.
func ParseTimings(timings api.Timings) (List, error) {
	raw := map[Name]string{
		Fajr:    timings.Fajr,
		Dhuhr:   timings.Dhuhr,
		Asr:     timings.Asr,
		Maghrib: timings.Maghrib,
		Isha:    timings.Isha,
	}

	list := make(List, 0, len(Names))
	for _, name := range Names {
		clock, err := normalizeClock(raw[name])
		if err != nil {
			return nil, fmt.Errorf("failed to parse time for %s: %w", name, err)
		}
		list = append(list, Time{Name: name, Clock: clock})
	}
	return list, nil
}

// normalizeClock validates raw and returns it as zero-padded "HH:MM".
func normalizeClock(raw string) (string, error) {
	h, m, ok := splitClock(raw)
	if !ok {
		return "", fmt.Errorf("invalid time format: %q", raw)
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
