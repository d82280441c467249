package prayer

import "testing"

func TestParseToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"05:17", 317},
		{"23:59", 1439},
		{"15:02 (BST)", 902},
		{"  05:17  (EET) ", 317},
		{"", 0},
		{"bad", 0},
		{"15:", 0},
		{"ab:cd", 0},
		{"24:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseToMinutes(tt.in); got != tt.want {
				t.Errorf("ParseToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTwelveHour(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00:00", "12:00 AM"},
		{"13:05", "1:05 PM"},
		{"12:00", "12:00 PM"},
		{"11:59", "11:59 AM"},
		{"05:07", "5:07 AM"},
		{"23:45", "11:45 PM"},
		{"", ""},
		{"nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatTwelveHour(tt.in); got != tt.want {
				t.Errorf("FormatTwelveHour(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{3661, "01:01:01"},
		{0, "00:00:00"},
		{59, "00:00:59"},
		{19800, "05:30:00"},
		{90000, "25:00:00"},
		{-10, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatCountdown(tt.in); got != tt.want {
			t.Errorf("FormatCountdown(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitSeconds(t *testing.T) {
	h, m, s := SplitSeconds(11100)
	if h != 3 || m != 5 || s != 0 {
		t.Errorf("SplitSeconds(11100) = %d, %d, %d", h, m, s)
	}
}
