package timerange

import (
	"testing"
	"time"
)

func TestToMinutes(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{
			name:  "should convert a morning time",
			value: "09:30",
			want:  570,
		},
		{
			name:  "should convert midnight",
			value: "00:00",
			want:  0,
		},
		{
			name:  "should convert the last minute of the day",
			value: "23:59",
			want:  1439,
		},
		{
			name:    "should reject a time without leading zero",
			value:   "9:30",
			wantErr: true,
		},
		{
			name:    "should reject a time with an out of range hour",
			value:   "24:00",
			wantErr: true,
		},
		{
			name:    "should reject a time with an out of range minute",
			value:   "10:60",
			wantErr: true,
		},
		{
			name:    "should reject garbage",
			value:   "ab:cd",
			wantErr: true,
		},
		{
			name:    "should reject a trailing non-digit",
			value:   "09:3x",
			wantErr: true,
		},
		{
			name:    "should reject an inner space",
			value:   "09: 3",
			wantErr: true,
		},
		{
			name:    "should reject a non-digit hour",
			value:   "0x:30",
			wantErr: true,
		},
		{
			name:    "should reject an empty value",
			value:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinutes(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ToMinutes() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ToMinutes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    string
	}{
		{
			name:    "should format a morning time",
			minutes: 570,
			want:    "09:30",
		},
		{
			name:    "should format midnight",
			minutes: 0,
			want:    "00:00",
		},
		{
			name:    "should format the last minute of the day",
			minutes: 1439,
			want:    "23:59",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMinutes(tt.minutes); got != tt.want {
				t.Errorf("FormatMinutes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd int
		want                           bool
	}{
		{
			name:   "should detect a partial overlap",
			aStart: 600, aEnd: 660, bStart: 630, bEnd: 690,
			want: true,
		},
		{
			name:   "should detect a containment overlap",
			aStart: 600, aEnd: 720, bStart: 630, bEnd: 660,
			want: true,
		},
		{
			name:   "should detect identical ranges",
			aStart: 600, aEnd: 660, bStart: 600, bEnd: 660,
			want: true,
		},
		{
			name:   "should allow back-to-back ranges",
			aStart: 600, aEnd: 660, bStart: 660, bEnd: 720,
			want: false,
		},
		{
			name:   "should allow disjoint ranges",
			aStart: 600, aEnd: 660, bStart: 720, bEnd: 780,
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("Overlaps() is not symmetric, swapped = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalDay(t *testing.T) {
	late := time.Date(2024, 6, 10, 23, 45, 0, 0, time.Local)
	day := LocalDay(late)
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 {
		t.Errorf("LocalDay() = %v, want local midnight", day)
	}
	if day.Day() != 10 || day.Month() != time.June {
		t.Errorf("LocalDay() shifted the calendar day: %v", day)
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 6, 10, 8, 0, 0, 0, time.Local)
	evening := time.Date(2024, 6, 10, 22, 30, 0, 0, time.Local)
	nextDay := time.Date(2024, 6, 11, 0, 0, 0, 0, time.Local)
	if !SameDay(morning, evening) {
		t.Error("SameDay() = false for instants on the same day")
	}
	if SameDay(evening, nextDay) {
		t.Error("SameDay() = true for instants on different days")
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{
			name:  "should parse a valid day",
			value: "2024-06-10",
		},
		{
			name:    "should reject a malformed day",
			value:   "10/06/2024",
			wantErr: true,
		},
		{
			name:    "should reject an empty value",
			value:   "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := ParseDay(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDay() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && FormatDay(day) != tt.value {
				t.Errorf("ParseDay() round trip = %v, want %v", FormatDay(day), tt.value)
			}
		})
	}
}

func TestCombineDayTime(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)
	instant := CombineDayTime(day, 570)
	if instant.Hour() != 9 || instant.Minute() != 30 {
		t.Errorf("CombineDayTime() = %v, want 09:30 on the same day", instant)
	}
	if !SameDay(instant, day) {
		t.Errorf("CombineDayTime() left the day: %v", instant)
	}
}
