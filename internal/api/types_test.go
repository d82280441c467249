package api

import "testing"

func TestHijriDate_Display(t *testing.T) {
	tests := []struct {
		name string
		h    HijriDate
		want string
	}{
		{
			name: "full date",
			h: HijriDate{
				Day:         "10",
				Month:       HijriMonth{Number: 8, En: "Shaʿbān"},
				Year:        "1447",
				Designation: HijriDesignation{Abbreviated: "AH"},
			},
			want: "10 Shaʿbān, 1447",
		},
		{
			name: "empty day returns empty",
			h: HijriDate{
				Month: HijriMonth{En: "Ramaḍān"},
				Year:  "1447",
			},
			want: "",
		},
		{
			name: "empty month returns empty",
			h: HijriDate{
				Day:  "15",
				Year: "1447",
			},
			want: "",
		},
		{
			name: "all empty returns empty",
			h:    HijriDate{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.h.Display()
			if got != tt.want {
				t.Errorf("HijriDate.Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateInfo_Dates(t *testing.T) {
	d := DateInfo{
		Gregorian: GregorianDate{Day: "28", Month: GregorianMonth{Number: 2, En: "February"}, Year: "2026"},
		Hijri:     HijriDate{Day: "10", Month: HijriMonth{Number: 9, En: "Ramaḍān"}, Year: "1447"},
	}

	got := d.Dates()
	if got.Gregorian != "28 February, 2026" {
		t.Errorf("Gregorian = %q", got.Gregorian)
	}
	if got.Hijri != "10 Ramaḍān, 1447" {
		t.Errorf("Hijri = %q", got.Hijri)
	}
}
