package student

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt(t *testing.T) {
	dob := date(2015, time.June, 15)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "day before birthday", now: date(2024, time.June, 14), want: 8},
		{name: "on birthday", now: date(2024, time.June, 15), want: 9},
		{name: "day after birthday", now: date(2024, time.June, 16), want: 9},
		{name: "earlier month", now: date(2024, time.March, 1), want: 8},
		{name: "later month", now: date(2024, time.December, 31), want: 9},
		{name: "birth year", now: date(2015, time.July, 1), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(dob, tt.now); got != tt.want {
				t.Errorf("AgeAt() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestDeriveAgeOverridesClientValue(t *testing.T) {
	nowFunc = func() time.Time { return date(2024, time.June, 14) }
	defer func() { nowFunc = time.Now }()

	std := Student{DateOfBirth: "2015-06-15", Age: 42}
	std.DeriveAge()
	if std.Age != 8 {
		t.Errorf("Age = %d; want 8", std.Age)
	}
}

func TestIsValidCategory(t *testing.T) {
	for _, cat := range Categories {
		if !IsValidCategory(cat) {
			t.Errorf("IsValidCategory(%q) = false", cat)
		}
	}
	for _, cat := range []string{"", "Sub-8", "sub-7", "Adulto"} {
		if IsValidCategory(cat) {
			t.Errorf("IsValidCategory(%q) = true", cat)
		}
	}
}
