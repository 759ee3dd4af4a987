package availability

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	valid := map[string]Clock{
		"09:00":    540,
		"9:30":     570,
		"17:00:00": 1020,
		"24:00":    1440,
		"00:00":    0,
	}
	for in, want := range valid {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q) failed: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %d, want %d", in, got, want)
		}
	}

	for _, in := range []string{"", "9", "25:00", "24:30", "09:60", "09:00:30", "ab:cd", "-1:00", "09:5", "+9:00", "-0:30", "09:+5", " 9 :00"} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("ParseClock(%q) expected error", in)
		}
	}
}

func TestClockOn(t *testing.T) {
	day := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)
	if got := Clock(9*60 + 15).On(day); !got.Equal(time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)) {
		t.Fatalf("unexpected instant %s", got)
	}
	if got := Clock(24 * 60).On(day); !got.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected 24:00 to be next midnight, got %s", got)
	}
	if Clock(545).String() != "09:05" {
		t.Fatalf("unexpected String %q", Clock(545).String())
	}
}
