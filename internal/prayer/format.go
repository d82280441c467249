package prayer

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Format constants for display modes.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatCountdownClock     = "countdown"
	FormatFull               = "full"
)

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // Highlighted prayer, e.g. "Asr"
	ShortName string // Abbreviated name, e.g. "A"
	Time      string // Prayer start, "15:02" or "3:02 PM"
	Remaining string // "2h 15m", or "now" during the grace window
	Countdown string // "02:15:00"
	Hours     int    // Whole hours remaining
	Minutes   int    // Remaining minutes after hours
	Current   bool   // True during the grace window
}

// FormatOutput renders a state as a single line according to mode.
//
// If mode contains "{{", it is treated as a custom Go template string over
// FormatData. Example: "{{.Name}} in {{.Remaining}}" -> "Asr in 2h 15m".
func FormatOutput(s State, mode string, twelveHour bool) string {
	data := formatData(s, twelveHour)

	if strings.Contains(mode, "{{") {
		return formatCustom(mode, data)
	}

	switch mode {
	case FormatTimeRemaining:
		return data.Remaining
	case FormatNextPrayerTime:
		return data.Time
	case FormatNameAndTime:
		return fmt.Sprintf("%s %s", data.Name, data.Time)
	case FormatNameAndRemaining:
		return fmt.Sprintf("%s %s", data.Name, data.Remaining)
	case FormatShortNameAndTime:
		return fmt.Sprintf("%s %s", data.ShortName, data.Time)
	case FormatShortNameAndRemain:
		return fmt.Sprintf("%s %s", data.ShortName, data.Remaining)
	case FormatCountdownClock:
		return fmt.Sprintf("%s %s", data.Name, data.Countdown)
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", data.Name, data.Time, data.Remaining)
	default:
		return fmt.Sprintf("%s %s", data.Name, data.Time)
	}
}

func formatData(s State, twelveHour bool) FormatData {
	p := s.Display()
	clock := p.Clock
	if twelveHour {
		clock = FormatTwelveHour(p.Clock)
	}

	data := FormatData{
		Name:      string(p.Name),
		ShortName: ShortNames[p.Name],
		Time:      clock,
		Remaining: "now",
		Countdown: FormatCountdown(0),
	}

	switch st := s.(type) {
	case Grace:
		data.Current = true
	case Countdown:
		data.Remaining = FormatRemaining(st.Remaining)
		data.Countdown = FormatCountdown(st.SecondsUntilNext())
		data.Hours = int(st.Remaining.Hours())
		data.Minutes = int(st.Remaining.Minutes()) % 60
	}
	return data
}

// formatCustom executes a user-provided Go template string against the FormatData.
func formatCustom(tmpl string, data FormatData) string {
	t, err := template.New("custom").Parse(tmpl)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}

	return buf.String()
}
