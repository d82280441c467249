package display

import (
	"strings"
	"testing"
)

func TestStyles_Enabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	styles := map[string]func(string) string{
		"Bold":   Bold,
		"Dim":    Dim,
		"Green":  Green,
		"Yellow": Yellow,
		"Cyan":   Cyan,
		"Gray":   Gray,
		"Accent": Accent,
		"Grace":  Grace,
	}
	for name, fn := range styles {
		t.Run(name, func(t *testing.T) {
			got := fn("hello")
			if !strings.Contains(got, "\033[") || !strings.Contains(got, "hello") {
				t.Errorf("%s(\"hello\") = %q, want ANSI styled text", name, got)
			}
		})
	}
}

func TestBold_Sequence(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	if got := Bold("hello"); !strings.HasPrefix(got, "\033[1") {
		t.Errorf("Bold(\"hello\") = %q, want bold sequence", got)
	}
	if got := Cyan("x"); !strings.Contains(got, "36") {
		t.Errorf("Cyan(\"x\") = %q, want ANSI cyan", got)
	}
}

func TestStyles_DisabledReturnPlainText(t *testing.T) {
	SetEnabled(false)

	fns := []func(string) string{Bold, Dim, Green, Yellow, Cyan, Gray, Accent, Grace}
	for _, fn := range fns {
		if got := fn("plain"); got != "plain" {
			t.Errorf("got %q, want plain text with colors disabled", got)
		}
	}
}

func TestBoldf(t *testing.T) {
	SetEnabled(false)

	if got := Boldf("%s in %d", "Asr", 5); got != "Asr in 5" {
		t.Errorf("Boldf = %q", got)
	}
}

func TestEnabled_ReportsState(t *testing.T) {
	SetEnabled(true)
	if !Enabled() {
		t.Error("Enabled() = false after SetEnabled(true)")
	}
	SetEnabled(false)
	if Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
}
