package prayer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
)

func scenarioList() List {
	return List{
		{Fajr, "05:00"},
		{Dhuhr, "12:15"},
		{Asr, "15:45"},
		{Maghrib, "18:30"},
		{Isha, "20:00"},
	}
}

func at(hour, min, sec int) time.Time {
	return time.Date(2026, 2, 28, hour, min, sec, 0, time.UTC)
}

func atMinute(m int) time.Time {
	return at(m/60, m%60, 0)
}

func mustState(t *testing.T, list List, now time.Time) State {
	t.Helper()
	s, err := ComputeState(list, now)
	if err != nil {
		t.Fatalf("ComputeState(%s) unexpected error: %v", now.Format("15:04:05"), err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Scenario
// ---------------------------------------------------------------------------

func TestComputeState_GraceAfterDhuhr(t *testing.T) {
	s := mustState(t, scenarioList(), at(12, 20, 0))

	g, ok := s.(Grace)
	if !ok {
		t.Fatalf("expected Grace, got %T", s)
	}
	if g.Current.Name != Dhuhr || g.Next.Name != Asr {
		t.Errorf("Grace = %+v, want Dhuhr -> Asr", g)
	}
	if s.Display().Name != Dhuhr {
		t.Errorf("Display() = %s, want Dhuhr", s.Display().Name)
	}
	if s.Kind() != "grace" {
		t.Errorf("Kind() = %q", s.Kind())
	}
}

func TestComputeState_CountdownToAsr(t *testing.T) {
	s := mustState(t, scenarioList(), at(12, 40, 0))

	c, ok := s.(Countdown)
	if !ok {
		t.Fatalf("expected Countdown, got %T", s)
	}
	if c.Display().Name != Asr {
		t.Errorf("Display() = %s, want Asr", c.Display().Name)
	}
	// 15:45 - 12:40 = 3h05m
	if got := c.SecondsUntilNext(); got != 11100 {
		t.Errorf("SecondsUntilNext() = %d, want 11100", got)
	}
}

func TestComputeState_CountdownTicksBySecond(t *testing.T) {
	s := mustState(t, scenarioList(), at(12, 40, 30))

	c := s.(Countdown)
	if got := c.SecondsUntilNext(); got != 11070 {
		t.Errorf("SecondsUntilNext() = %d, want 11070", got)
	}
}

// ---------------------------------------------------------------------------
// Day wrap
// ---------------------------------------------------------------------------

func TestComputeState_DayWrapAfterIsha(t *testing.T) {
	list := scenarioList()
	list[4].Clock = "22:00"

	s := mustState(t, list, at(23, 30, 0))
	c, ok := s.(Countdown)
	if !ok {
		t.Fatalf("expected Countdown, got %T", s)
	}
	if c.Current.Name != Isha || c.Next.Name != Fajr {
		t.Errorf("Countdown = %s -> %s, want Isha -> Fajr", c.Current.Name, c.Next.Name)
	}
	if got := c.SecondsUntilNext(); got != 19800 {
		t.Errorf("SecondsUntilNext() = %d, want 19800", got)
	}
}

func TestComputeState_AfterMidnightBeforeFajr(t *testing.T) {
	s := mustState(t, scenarioList(), at(0, 30, 0))

	c, ok := s.(Countdown)
	if !ok {
		t.Fatalf("expected Countdown, got %T", s)
	}
	if c.Display().Name != Fajr {
		t.Errorf("Display() = %s, want Fajr", c.Display().Name)
	}
	if got := c.SecondsUntilNext(); got != 4*3600+30*60 {
		t.Errorf("SecondsUntilNext() = %d, want %d", got, 4*3600+30*60)
	}
}

func TestComputeState_ExactlyAtFirstPrayer(t *testing.T) {
	s := mustState(t, scenarioList(), at(5, 0, 0))

	g, ok := s.(Grace)
	if !ok {
		t.Fatalf("expected Grace, got %T", s)
	}
	if g.Current.Name != Fajr {
		t.Errorf("Current = %s, want Fajr", g.Current.Name)
	}
}

// ---------------------------------------------------------------------------
// Grace window
// ---------------------------------------------------------------------------

func TestComputeState_GraceWindowBoundaries(t *testing.T) {
	list := scenarioList()

	for i, p := range list {
		m := ParseToMinutes(p.Clock)
		successor := list[(i+1)%len(list)]

		t.Run(string(p.Name), func(t *testing.T) {
			for _, offset := range []int{0, 19} {
				s := mustState(t, list, atMinute((m+offset)%minutesPerDay))
				g, ok := s.(Grace)
				if !ok || g.Current.Name != p.Name {
					t.Errorf("t=m+%d: got %T %+v, want Grace{%s}", offset, s, s, p.Name)
				}
			}

			s := mustState(t, list, atMinute((m+20)%minutesPerDay))
			c, ok := s.(Countdown)
			if !ok {
				t.Fatalf("t=m+20: got %T, want Countdown", s)
			}
			if c.Display().Name != successor.Name {
				t.Errorf("t=m+20: Display() = %s, want %s", c.Display().Name, successor.Name)
			}
		})
	}
}

func TestComputeState_LastSecondOfGrace(t *testing.T) {
	s := mustState(t, scenarioList(), at(12, 34, 59))
	if _, ok := s.(Grace); !ok {
		t.Errorf("12:34:59 got %T, want Grace", s)
	}
	s = mustState(t, scenarioList(), at(12, 35, 0))
	if _, ok := s.(Countdown); !ok {
		t.Errorf("12:35:00 got %T, want Countdown", s)
	}
}

// ---------------------------------------------------------------------------
// Totality
// ---------------------------------------------------------------------------

func TestComputeState_EveryMinuteHasOneState(t *testing.T) {
	lists := map[string]List{
		"scenario": scenarioList(),
		"late isha": {
			{Fajr, "03:40"}, {Dhuhr, "13:05"}, {Asr, "17:20"}, {Maghrib, "21:15"}, {Isha, "23:10"},
		},
		"isha after midnight": {
			{Fajr, "02:50"}, {Dhuhr, "13:10"}, {Asr, "17:30"}, {Maghrib, "22:05"}, {Isha, "00:05"},
		},
	}

	for name, list := range lists {
		t.Run(name, func(t *testing.T) {
			for m := 0; m < minutesPerDay; m++ {
				for _, sec := range []int{0, 59} {
					now := at(m/60, m%60, sec)
					s := mustState(t, list, now)

					switch st := s.(type) {
					case Grace:
					case Countdown:
						if st.Remaining <= 0 || st.Remaining > 24*time.Hour {
							t.Fatalf("%s: Remaining out of range: %v", now.Format("15:04:05"), st.Remaining)
						}
					default:
						t.Fatalf("%s: unexpected state %T", now.Format("15:04:05"), s)
					}

					if _, ok := list.Find(s.Display().Name); !ok {
						t.Fatalf("%s: display prayer %s not in list", now.Format("15:04:05"), s.Display().Name)
					}
				}
			}
		})
	}
}

func TestComputeState_UnsortedInput(t *testing.T) {
	list := List{
		{Isha, "20:00"},
		{Fajr, "05:00"},
		{Asr, "15:45"},
		{Dhuhr, "12:15"},
		{Maghrib, "18:30"},
	}
	before := fmt.Sprint(list)

	s := mustState(t, list, at(12, 40, 0))
	if s.Display().Name != Asr {
		t.Errorf("Display() = %s, want Asr", s.Display().Name)
	}
	if fmt.Sprint(list) != before {
		t.Error("ComputeState reordered its input")
	}
}

func TestComputeState_EmptyList(t *testing.T) {
	s, err := ComputeState(nil, at(12, 0, 0))
	if !errors.Is(err, apperr.ErrNoPrayers) {
		t.Fatalf("err = %v, want ErrNoPrayers", err)
	}
	if s != nil {
		t.Errorf("state = %v, want nil", s)
	}
}

func TestComputeState_UsesWallClockOfLocation(t *testing.T) {
	dubai := time.FixedZone("GST", 4*3600)
	// 08:40 UTC is 12:40 in Dubai.
	now := time.Date(2026, 2, 28, 8, 40, 0, 0, time.UTC).In(dubai)

	s := mustState(t, scenarioList(), now)
	if s.Display().Name != Asr {
		t.Errorf("Display() = %s, want Asr", s.Display().Name)
	}
}
