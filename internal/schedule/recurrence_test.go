package schedule

import (
	"fmt"
	"testing"
	"time"

	"clinic-booking/internal/timerange"

	"github.com/google/uuid"
)

func template(date time.Time) Appointment {
	return Appointment{
		UUID:      uuid.New(),
		Date:      date,
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    StatusScheduled,
		Kind:      KindPersonal,
	}
}

func expansionDays(expansion Expansion) []string {
	days := make([]string, 0, len(expansion.Occurrences))
	for _, occurrence := range expansion.Occurrences {
		days = append(days, timerange.FormatDay(occurrence.Date))
	}
	return days
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		anchor   time.Time
		rule     RecurrenceRule
		policy   MonthlyOverflowPolicy
		wantDays []string
		wantErr  bool
	}{
		{
			name:     "should expand a weekly rule into exactly count occurrences",
			anchor:   day(2024, 1, 1),
			rule:     RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Count: 3},
			wantDays: []string{"2024-01-01", "2024-01-08", "2024-01-15"},
		},
		{
			name:     "should expand a daily rule with an interval",
			anchor:   day(2024, 1, 1),
			rule:     RecurrenceRule{Frequency: FrequencyDaily, Interval: 2, Count: 3},
			wantDays: []string{"2024-01-01", "2024-01-03", "2024-01-05"},
		},
		{
			name:     "should expand a biweekly rule",
			anchor:   day(2024, 1, 1),
			rule:     RecurrenceRule{Frequency: FrequencyBiweekly, Interval: 1, Count: 3},
			wantDays: []string{"2024-01-01", "2024-01-15", "2024-01-29"},
		},
		{
			name:     "should stop at the rule's end date",
			anchor:   day(2024, 1, 1),
			rule:     RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, EndDate: day(2024, 1, 16)},
			wantDays: []string{"2024-01-01", "2024-01-08", "2024-01-15"},
		},
		{
			name:     "should include an occurrence falling exactly on the end date",
			anchor:   day(2024, 1, 1),
			rule:     RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, EndDate: day(2024, 1, 15)},
			wantDays: []string{"2024-01-01", "2024-01-08", "2024-01-15"},
		},
		{
			name:     "should skip short months under the skip policy",
			anchor:   day(2024, 1, 31),
			rule:     RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, Count: 3},
			policy:   MonthlyOverflowSkip,
			wantDays: []string{"2024-01-31", "2024-03-31", "2024-05-31"},
		},
		{
			name:     "should clamp short months under the clamp policy",
			anchor:   day(2024, 1, 31),
			rule:     RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, Count: 3},
			policy:   MonthlyOverflowClamp,
			wantDays: []string{"2024-01-31", "2024-02-29", "2024-03-31"},
		},
		{
			name:    "should reject an unknown frequency",
			anchor:  day(2024, 1, 1),
			rule:    RecurrenceRule{Frequency: "YEARLY", Interval: 1, Count: 3},
			wantErr: true,
		},
		{
			name:    "should reject a zero interval",
			anchor:  day(2024, 1, 1),
			rule:    RecurrenceRule{Frequency: FrequencyWeekly, Interval: 0, Count: 3},
			wantErr: true,
		},
		{
			name:    "should reject a negative count",
			anchor:  day(2024, 1, 1),
			rule:    RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Count: -1},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expansion, err := Expand(template(tt.anchor), tt.rule, 0, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			got := expansionDays(expansion)
			if len(got) != len(tt.wantDays) {
				t.Errorf("Expand() produced %d occurrences, want %d (%v)", len(got), len(tt.wantDays), got)
				return
			}
			for i, wantDay := range tt.wantDays {
				if got[i] != wantDay {
					t.Errorf("Expand() occurrence %d = %v, want %v", i, got[i], wantDay)
				}
			}
			if expansion.Truncated {
				t.Error("Expand() flagged a bounded series as truncated")
			}
		})
	}
}

func TestExpandTruncatesUnboundedSeries(t *testing.T) {
	expansion, err := Expand(template(day(2024, 1, 1)), RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1}, 10, MonthlyOverflowSkip)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(expansion.Occurrences) != 10 {
		t.Errorf("Expand() produced %d occurrences, want 10", len(expansion.Occurrences))
	}
	if !expansion.Truncated {
		t.Error("Expand() did not flag the capped series as truncated")
	}
}

func TestExpandCapsAtMaxOccurrences(t *testing.T) {
	expansion, err := Expand(template(day(2024, 1, 1)), RecurrenceRule{Frequency: FrequencyDaily, Interval: 1}, 100000, MonthlyOverflowSkip)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(expansion.Occurrences) != MaxOccurrences {
		t.Errorf("Expand() produced %d occurrences, want %d", len(expansion.Occurrences), MaxOccurrences)
	}
	if !expansion.Truncated {
		t.Error("Expand() did not flag the capped series as truncated")
	}
}

func TestExpandDerivesSeriesKeys(t *testing.T) {
	origin := template(day(2024, 1, 1))
	expansion, err := Expand(origin, RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1, Count: 3}, 0, MonthlyOverflowSkip)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	for i, occurrence := range expansion.Occurrences {
		want := fmt.Sprintf("%s-%d", origin.UUID, i)
		if occurrence.SeriesKey != want {
			t.Errorf("Expand() occurrence %d series key = %v, want %v", i, occurrence.SeriesKey, want)
		}
		if occurrence.StartTime != origin.StartTime || occurrence.EndTime != origin.EndTime {
			t.Errorf("Expand() occurrence %d changed the time range", i)
		}
	}
}

func TestExpandMonthlySkipKeepsNumbering(t *testing.T) {
	origin := template(day(2024, 1, 31))
	expansion, err := Expand(origin, RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1, Count: 2}, 0, MonthlyOverflowSkip)
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(expansion.Occurrences) != 2 {
		t.Fatalf("Expand() produced %d occurrences, want 2", len(expansion.Occurrences))
	}
	// February is skipped, so the second emitted occurrence is the k=2 step.
	want := fmt.Sprintf("%s-2", origin.UUID)
	if expansion.Occurrences[1].SeriesKey != want {
		t.Errorf("Expand() second series key = %v, want %v", expansion.Occurrences[1].SeriesKey, want)
	}
}
