package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestAdd(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		amount int
		scale  Scale
		want   time.Time
	}{
		{"leap february clamp", date(2024, 1, 31), 1, Months, date(2024, 2, 29)},
		{"non-leap february clamp", date(2023, 1, 31), 1, Months, date(2023, 2, 28)},
		{"plain month", date(2024, 3, 15), 1, Months, date(2024, 4, 15)},
		{"month over year end", date(2024, 11, 30), 3, Months, date(2025, 2, 28)},
		{"twelve months", date(2023, 6, 15), 12, Months, date(2024, 6, 15)},
		{"one year", date(2023, 6, 15), 1, Years, date(2024, 6, 15)},
		{"leap day plus one year", date(2024, 2, 29), 1, Years, date(2025, 2, 28)},
		{"leap day plus four years", date(2024, 2, 29), 4, Years, date(2028, 2, 29)},
		{"thirty-first to thirtieth", date(2024, 5, 31), 1, Months, date(2024, 6, 30)},
		{"negative months", date(2024, 3, 31), -1, Months, date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.from, tt.amount, tt.scale)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Add(%s, %d, %s) = %s, want %s", tt.from.Format(time.DateOnly), tt.amount, tt.scale,
					got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
			}
		})
	}
}

func TestAddKeepsClock(t *testing.T) {
	from := time.Date(2024, 1, 31, 13, 45, 10, 0, time.UTC)
	got := AddMonths(from, 1)
	want := time.Date(2024, 2, 29, 13, 45, 10, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestAddRejectsUnknownScale(t *testing.T) {
	if _, err := Add(date(2024, 1, 1), 1, Scale("weeks")); err == nil {
		t.Fatal("expected error for unknown scale")
	}
}
