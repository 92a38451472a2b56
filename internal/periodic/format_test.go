package periodic

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		layout string
		want   string
	}{
		{"YYYY-MM-DD", "2024-03-05"},
		{"gggg-[W]ww", "2024-W10"},
		{"GGGG-[W]WW", "2024-W10"},
		{"YYYY-MM", "2024-03"},
		{"YYYY-[Q]Q", "2024-Q1"},
		{"YYYY", "2024"},
		{"dddd, MMMM D", "Tuesday, March 5"},
		{"ddd MMM YY", "Tue Mar 24"},
		{"[YYYY] YYYY", "YYYY 2024"},
		{"[notes]/YYYY/MM", "notes/2024/03"},
	}
	for _, tt := range tests {
		if got := Format(tt.layout, ts); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestFormat_WeekYears(t *testing.T) {
	// 2021-01-01 is in ISO week 53 of 2020 but in locale week 1 of 2021.
	ts := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := Format("GGGG-[W]WW", ts); got != "2020-W53" {
		t.Errorf("ISO: got %q, want 2020-W53", got)
	}
	if got := Format("gggg-[W]ww", ts); got != "2021-W01" {
		t.Errorf("locale: got %q, want 2021-W01", got)
	}
}
