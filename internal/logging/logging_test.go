package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.WarnLevel},
		{"nonsense", zerolog.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(tt.level, &bytes.Buffer{})
			if got := l.GetLevel(); got != tt.want {
				t.Errorf("New(%q).GetLevel() = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNew_WritesJSONToBuffer(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", &buf)
	l.Info().Str("city", "Dubai").Msg("resolved")

	out := buf.String()
	if !strings.Contains(out, `"city":"Dubai"`) {
		t.Errorf("expected JSON field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"resolved"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}
