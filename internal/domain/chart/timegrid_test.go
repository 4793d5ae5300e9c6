package chart

import (
	"testing"
	"time"
)

func TestNormalizeHour(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	in := time.Date(2026, 3, 14, 9, 26, 53, 589793238, loc)
	got := NormalizeHour(in)
	want := time.Date(2026, 3, 14, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("NormalizeHour = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("location changed to %v", got.Location())
	}
}

func TestNormalizeHourIdempotent(t *testing.T) {
	in := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	once := NormalizeHour(in)
	twice := NormalizeHour(once)
	if !once.Equal(twice) {
		t.Errorf("normalizing twice gave %v, want %v", twice, once)
	}
}

func TestHoursOfDay(t *testing.T) {
	at := time.Date(2026, 5, 20, 17, 42, 0, 0, time.UTC)
	hours := HoursOfDay(at)
	if len(hours) != 24 {
		t.Fatalf("got %d hours, want 24", len(hours))
	}
	if want := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC); !hours[0].Equal(want) {
		t.Errorf("first hour = %v, want %v", hours[0], want)
	}
	if want := time.Date(2026, 5, 20, 23, 0, 0, 0, time.UTC); !hours[23].Equal(want) {
		t.Errorf("last hour = %v, want %v", hours[23], want)
	}
}

func TestHoursBetween(t *testing.T) {
	start := time.Date(2026, 5, 20, 22, 15, 0, 0, time.UTC)
	end := time.Date(2026, 5, 21, 1, 59, 0, 0, time.UTC)
	hours := HoursBetween(start, end)
	if len(hours) != 4 {
		t.Fatalf("got %d hours, want 4", len(hours))
	}
	if want := time.Date(2026, 5, 20, 22, 0, 0, 0, time.UTC); !hours[0].Equal(want) {
		t.Errorf("first hour = %v, want %v", hours[0], want)
	}
	if want := time.Date(2026, 5, 21, 1, 0, 0, 0, time.UTC); !hours[3].Equal(want) {
		t.Errorf("last hour = %v, want %v", hours[3], want)
	}
}

func TestHoursBetweenSameHour(t *testing.T) {
	at := time.Date(2026, 5, 20, 8, 30, 0, 0, time.UTC)
	hours := HoursBetween(at, at)
	if len(hours) != 1 {
		t.Fatalf("got %d hours, want 1", len(hours))
	}
}

func TestHoursBetweenReversed(t *testing.T) {
	start := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
	if hours := HoursBetween(start, start.Add(-2*time.Hour)); len(hours) != 0 {
		t.Errorf("got %d hours for reversed range, want 0", len(hours))
	}
}
