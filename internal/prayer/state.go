package prayer

import (
	"slices"
	"time"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
)

// GraceWindow is how long a prayer keeps being reported as the current one
// after it starts, before the board switches to counting down to the next.
const GraceWindow = 20 * time.Minute

// State is the display state derived from a day's prayers and a wall-clock
// instant. It is either a Grace or a Countdown.
type State interface {
	// Display is the prayer the board highlights.
	Display() Time
	// Kind is "grace" or "countdown".
	Kind() string

	isState()
}

// Grace means now falls inside the grace window of Current.
type Grace struct {
	Current Time
	Next    Time
}

func (Grace) isState()        {}
func (Grace) Kind() string    { return "grace" }
func (g Grace) Display() Time { return g.Current }

// Countdown means the grace window of Current is over and the board counts
// down to Next.
type Countdown struct {
	Current   Time
	Next      Time
	Remaining time.Duration
}

func (Countdown) isState()        {}
func (Countdown) Kind() string    { return "countdown" }
func (c Countdown) Display() Time { return c.Next }

// SecondsUntilNext returns Remaining in whole seconds.
func (c Countdown) SecondsUntilNext() int {
	return int(c.Remaining / time.Second)
}

// ComputeState classifies now against the prayers of a single day.
//
// Only the wall clock of now (hour, minute, second in now.Location()) is used;
// the caller is responsible for expressing now in the prayers' timezone. The
// list is treated as circular so the gap after the last prayer wraps to the
// first prayer of the following day. An empty list returns apperr.ErrNoPrayers.
func ComputeState(list List, now time.Time) (State, error) {
	if len(list) == 0 {
		return nil, apperr.ErrNoPrayers
	}

	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b Time) int {
		return ParseToMinutes(a.Clock) - ParseToMinutes(b.Clock)
	})

	nowSec := now.Hour()*3600 + now.Minute()*60 + now.Second()
	grace := int(GraceWindow / time.Second)

	for i, current := range sorted {
		next := sorted[(i+1)%len(sorted)]

		currentSec := ParseToMinutes(current.Clock) * 60
		nextSec := ParseToMinutes(next.Clock) * 60
		if nextSec <= currentSec {
			nextSec += secondsPerDay
		}

		adjusted := nowSec
		if adjusted < currentSec {
			adjusted += secondsPerDay
		}

		switch {
		case adjusted < currentSec+grace:
			return Grace{Current: current, Next: next}, nil
		case adjusted < nextSec:
			return Countdown{
				Current:   current,
				Next:      next,
				Remaining: time.Duration(nextSec-adjusted) * time.Second,
			}, nil
		}
	}

	// Unreachable for a well-formed day; kept so the function is total.
	first, last := sorted[0], sorted[len(sorted)-1]
	firstSec := ParseToMinutes(first.Clock) * 60
	remaining := firstSec - nowSec
	if nowSec > firstSec {
		remaining += secondsPerDay
	}
	return Countdown{
		Current:   last,
		Next:      first,
		Remaining: time.Duration(remaining) * time.Second,
	}, nil
}
