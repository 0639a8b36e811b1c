package ledger

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceFixedSteps(t *testing.T) {
	start := date(2025, time.March, 10)
	tests := []struct {
		freq Frequency
		want time.Time
	}{
		{FrequencyDaily, date(2025, time.March, 11)},
		{FrequencyWeekly, date(2025, time.March, 17)},
		{FrequencyBiweekly, date(2025, time.March, 24)},
	}
	for _, tc := range tests {
		if got := Advance(start, tc.freq); !got.Equal(tc.want) {
			t.Errorf("Advance(%s, %s) = %s, want %s", start.Format("2006-01-02"), tc.freq, got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
		}
	}
}

func TestAdvanceMonthlyClampsToLastDay(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		freq  Frequency
		want  time.Time
	}{
		{"jan 31 to feb 28", date(2025, time.January, 31), FrequencyMonthly, date(2025, time.February, 28)},
		{"jan 31 to feb 29 leap", date(2024, time.January, 31), FrequencyMonthly, date(2024, time.February, 29)},
		{"mar 31 to apr 30", date(2025, time.March, 31), FrequencyMonthly, date(2025, time.April, 30)},
		{"mid month unchanged", date(2025, time.April, 15), FrequencyMonthly, date(2025, time.May, 15)},
		{"quarterly nov 30 to feb 28", date(2024, time.November, 30), FrequencyQuarterly, date(2025, time.February, 28)},
		{"yearly feb 29 to feb 28", date(2024, time.February, 29), FrequencyYearly, date(2025, time.February, 28)},
		{"december rolls year", date(2025, time.December, 31), FrequencyMonthly, date(2026, time.January, 31)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Advance(tc.start, tc.freq); !got.Equal(tc.want) {
				t.Errorf("got %s, want %s", got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAdvanceUnknownFrequencyReturnsInput(t *testing.T) {
	start := date(2025, time.June, 1)
	if got := Advance(start, Frequency("hourly")); !got.Equal(start) {
		t.Errorf("got %s, want input unchanged", got.Format("2006-01-02"))
	}
}
