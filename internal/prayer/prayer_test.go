package prayer

import (
	"errors"
	"testing"
	"time"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/apperr"
)

func sampleTimings() api.Timings {
	return api.Timings{
		Fajr:       "05:17",
		Sunrise:    "06:48",
		Dhuhr:      "12:13",
		Asr:        "15:02",
		Sunset:     "17:39",
		Maghrib:    "17:39",
		Isha:       "19:10",
		Imsak:      "05:07",
		Midnight:   "00:14",
		Firstthird: "22:02",
		Lastthird:  "02:25",
	}
}

// ---------------------------------------------------------------------------
// ParseTimings
// ---------------------------------------------------------------------------

func TestParseTimings_CanonicalOrder(t *testing.T) {
	list, err := ParseTimings(sampleTimings())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != len(Names) {
		t.Fatalf("expected %d prayers, got %d", len(Names), len(list))
	}
	for i, name := range Names {
		if list[i].Name != name {
			t.Errorf("list[%d].Name = %q, want %q", i, list[i].Name, name)
		}
	}
	if list[2].Clock != "15:02" {
		t.Errorf("Asr = %q, want %q", list[2].Clock, "15:02")
	}
}

func TestParseTimings_TimezoneSuffix(t *testing.T) {
	timings := sampleTimings()
	timings.Fajr = "05:17 (BST)"
	timings.Isha = "19:10 (GMT)"

	list, err := ParseTimings(timings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list[0].Clock != "05:17" {
		t.Errorf("Fajr = %q, want 05:17", list[0].Clock)
	}
	if list[4].Clock != "19:10" {
		t.Errorf("Isha = %q, want 19:10", list[4].Clock)
	}
}

func TestParseTimings_PadsSingleDigitHour(t *testing.T) {
	timings := sampleTimings()
	timings.Fajr = "5:07"

	list, err := ParseTimings(timings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list[0].Clock != "05:07" {
		t.Errorf("Fajr = %q, want 05:07", list[0].Clock)
	}
}

func TestParseTimings_InvalidEntryRejectsPayload(t *testing.T) {
	tests := []struct {
		name string
		edit func(*api.Timings)
	}{
		{"missing Dhuhr", func(tm *api.Timings) { tm.Dhuhr = "" }},
		{"garbage Asr", func(tm *api.Timings) { tm.Asr = "bad" }},
		{"out of range Isha", func(tm *api.Timings) { tm.Isha = "25:10" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timings := sampleTimings()
			tt.edit(&timings)
			if _, err := ParseTimings(timings); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// List helpers
// ---------------------------------------------------------------------------

func TestList_CloneIsIndependent(t *testing.T) {
	list, _ := ParseTimings(sampleTimings())
	clone := list.Clone()
	clone[0].Clock = "00:00"

	if list[0].Clock != "05:17" {
		t.Errorf("original mutated through clone: %q", list[0].Clock)
	}
}

func TestList_Find(t *testing.T) {
	list, _ := ParseTimings(sampleTimings())

	got, ok := list.Find(Maghrib)
	if !ok || got.Clock != "17:39" {
		t.Errorf("Find(Maghrib) = %+v, %v", got, ok)
	}
	if _, ok := List(nil).Find(Fajr); ok {
		t.Error("Find on empty list should report false")
	}
}

func TestTime_On(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Dubai")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	day := time.Date(2026, 6, 15, 9, 30, 0, 0, loc)

	got := Time{Name: Asr, Clock: "15:45"}.On(day)
	want := time.Date(2026, 6, 15, 15, 45, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("On() location = %v, want %v", got.Location(), loc)
	}
}

// ---------------------------------------------------------------------------
// FormatRemaining
// ---------------------------------------------------------------------------

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{45 * time.Minute, "45m"},
		{time.Hour, "1h 0m"},
		{0, "0m"},
		{-5 * time.Minute, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatRemaining(tt.d); got != tt.want {
				t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestShortNames_AllPrayers(t *testing.T) {
	for _, name := range Names {
		if ShortNames[name] == "" {
			t.Errorf("missing short name for %s", name)
		}
	}
}

// ---------------------------------------------------------------------------
// Methods and schools
// ---------------------------------------------------------------------------

func TestMethods_IDs(t *testing.T) {
	if len(Methods) != 21 {
		t.Fatalf("expected 21 methods, got %d", len(Methods))
	}
	for _, gap := range []int{0, 6, 7, 24} {
		if _, err := LookupMethod(gap); !errors.Is(err, apperr.ErrUnknownMethod) {
			t.Errorf("LookupMethod(%d) error = %v, want unknown method", gap, err)
		}
	}
	m, err := LookupMethod(DefaultMethod)
	if err != nil || m.Name != "Muslim World League" {
		t.Errorf("LookupMethod(3) = %+v, %v", m, err)
	}
}

func TestParseSchool(t *testing.T) {
	if s, err := ParseSchool(1); err != nil || s != Hanafi {
		t.Errorf("ParseSchool(1) = %v, %v", s, err)
	}
	if _, err := ParseSchool(2); err == nil {
		t.Error("ParseSchool(2) expected error")
	}
	if Shafi.String() != "Shafi" || Hanafi.String() != "Hanafi" {
		t.Errorf("unexpected school names %q %q", Shafi, Hanafi)
	}
}

func TestCalculation_Validate(t *testing.T) {
	if err := DefaultCalculation().Validate(); err != nil {
		t.Errorf("default calculation invalid: %v", err)
	}
	if err := (Calculation{Method: 6}).Validate(); err == nil {
		t.Error("method 6 should be rejected")
	}
	if err := (Calculation{Method: 3, School: 5}).Validate(); err == nil {
		t.Error("school 5 should be rejected")
	}
}
