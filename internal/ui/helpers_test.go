package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(timeSeconds(tc.in))
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  short  ", 10); got != "short" {
		t.Fatalf("truncate = %q, want short", got)
	}
	if got := truncate("a long diary title", 9); got != "a long..." {
		t.Fatalf("truncate = %q, want %q", got, "a long...")
	}
	if got := truncate("héllo", 2); got != "hé" {
		t.Fatalf("truncate limit<=3 = %q, want hé", got)
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("http://localhost:8000/uploads/photo.jpg", 15)
	if len([]rune(got)) != 15 {
		t.Fatalf("got %q (%d runes), want 15", got, len([]rune(got)))
	}
	if got[:7] != "http://" {
		t.Fatalf("got %q, want prefix kept", got)
	}
}

func TestBarKeepsSpacesAndSeparators(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	b := newBar("#1d2021")
	style := lipgloss.NewStyle()

	got := b.join([]string{b.text("♥ lovary", style), b.text("a  b", style), b.text("", style)}, " | ")
	if want := "♥ lovary | a  b | "; got != want {
		t.Fatalf("bar = %q, want %q", got, want)
	}
}

func timeSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
