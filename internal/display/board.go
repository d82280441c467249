package display

import (
	"fmt"
	"strings"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

// Board is everything the prayer board shows for one instant.
type Board struct {
	Location   location.Location
	Dates      api.Dates
	Prayers    prayer.List
	State      prayer.State // nil when nothing is loaded
	TwelveHour bool
}

// Heading returns "Prayer Times in <city>, <country>".
func (b Board) Heading() string {
	return "Prayer Times in " + b.Location.String()
}

// Render draws the board: heading, date lines and one row per prayer, with
// the highlighted prayer carrying its status.
func (b Board) Render() string {
	var sb strings.Builder

	heading := Bold(b.Heading())
	if b.Location.Marker != "" {
		heading += " " + b.Location.Marker
	}
	sb.WriteString("\n  " + heading + "\n")
	for _, line := range []string{b.Dates.Gregorian, b.Dates.Hijri} {
		if line != "" {
			sb.WriteString("  " + Gray(line) + "\n")
		}
	}
	sb.WriteString("\n")

	if len(b.Prayers) == 0 {
		sb.WriteString("  " + Dim("No prayer times loaded.") + "\n")
		return sb.String()
	}

	tbl := NewTable([]string{"Prayer", "Time", ""})
	highlight := ""
	status := ""
	if b.State != nil {
		highlight = string(b.State.Display().Name)
		status = Status(b.State)
		if _, ok := b.State.(prayer.Grace); ok {
			tbl.SetHighlightStyle(Grace)
		}
	}

	for i, p := range b.Prayers {
		row := []string{string(p.Name), b.clock(p.Clock), ""}
		if string(p.Name) == highlight {
			row[2] = status
			tbl.SetHighlightRow(i)
		}
		tbl.AddRow(row)
	}
	sb.WriteString(tbl.Render())
	return sb.String()
}

func (b Board) clock(c string) string {
	if b.TwelveHour {
		return prayer.FormatTwelveHour(c)
	}
	return c
}

// Status is the label shown next to the highlighted prayer.
func Status(st prayer.State) string {
	switch s := st.(type) {
	case prayer.Grace:
		return "now"
	case prayer.Countdown:
		return fmt.Sprintf("in %s", prayer.FormatCountdown(s.SecondsUntilNext()))
	default:
		return ""
	}
}
