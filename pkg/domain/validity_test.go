package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowCurrentBoundsInclusive(t *testing.T) {
	w := Window{ValidFrom: day(2020, 1, 1), ValidTo: day(2099, 12, 31)}

	cases := []struct {
		name string
		ref  time.Time
		want bool
	}{
		{"before start", day(2019, 12, 31), false},
		{"on start", day(2020, 1, 1), true},
		{"inside", day(2024, 6, 1), true},
		{"on end", day(2099, 12, 31), true},
		{"after end", day(2100, 1, 1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Current(tc.ref); got != tc.want {
				t.Fatalf("Current(%s) = %v, want %v", tc.ref.Format(time.DateOnly), got, tc.want)
			}
		})
	}
}

func TestOpenEndedWindows(t *testing.T) {
	open := OpenWindow(day(2020, 1, 1))
	if !open.OpenEnded() {
		t.Fatal("OpenWindow must be open ended")
	}
	if !open.Current(day(3000, 1, 1)) {
		t.Fatal("open window covers any future date")
	}
	if open.Current(day(2019, 1, 1)) {
		t.Fatal("open window still starts at ValidFrom")
	}

	zeroEnd := Window{ValidFrom: day(2020, 1, 1)}
	if !zeroEnd.OpenEnded() {
		t.Fatal("zero ValidTo counts as open ended")
	}

	closed := Window{ValidFrom: day(2020, 1, 1), ValidTo: day(2021, 1, 1)}
	if closed.OpenEnded() {
		t.Fatal("bounded window is not open ended")
	}
}

func TestEndOn(t *testing.T) {
	w := OpenWindow(day(2020, 1, 1))

	if w.EndOn(day(2019, 6, 1)) {
		t.Fatal("EndOn must refuse dates before ValidFrom")
	}
	if !w.OpenEnded() {
		t.Fatal("refused EndOn must leave the window unchanged")
	}

	if !w.EndOn(day(2020, 1, 1)) {
		t.Fatal("EndOn on the start date is a valid single-day window")
	}
	if !w.ValidTo.Equal(day(2020, 1, 1)) {
		t.Fatalf("unexpected ValidTo %v", w.ValidTo)
	}
	if !w.Current(day(2020, 1, 1)) {
		t.Fatal("single-day window covers its one day")
	}
	if w.Current(day(2020, 1, 2)) {
		t.Fatal("single-day window excludes the next day")
	}
}
