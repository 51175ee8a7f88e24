package timeutil

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339 with Z",
			input: "2024-12-15T10:30:00Z",
			want:  time.Date(2024, 12, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds",
			input: "2024-12-15T10:30:00.123456Z",
			want:  time.Date(2024, 12, 15, 10, 30, 0, 123456000, time.UTC),
		},
		{
			name:  "space separated",
			input: "2024-12-15 10:30:00",
			want:  time.Date(2024, 12, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			input: "2024-12-15",
			want:  time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "last tuesday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimestamp(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithinRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ts         string
		start, end string
		want       bool
	}{
		{"inside", "2024-12-15T10:00:00Z", "2024-12-01", "2024-12-31", true},
		{"on start boundary", "2024-12-01T00:00:00Z", "2024-12-01", "2024-12-31", true},
		{"on end boundary", "2024-12-31T23:59:59Z", "2024-12-01", "2024-12-31", true},
		{"before", "2024-11-30T23:59:59Z", "2024-12-01", "2024-12-31", false},
		{"after", "2025-01-01T00:00:00Z", "2024-12-01", "2024-12-31", false},
		{"empty timestamp", "", "2024-12-01", "2024-12-31", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WithinRange(tt.ts, tt.start, tt.end); got != tt.want {
				t.Errorf("WithinRange(%q, %q, %q) = %v, want %v", tt.ts, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	t.Parallel()

	if got := DateOnly("2024-12-15T10:30:00Z"); got != "2024-12-15" {
		t.Errorf("DateOnly = %q, want 2024-12-15", got)
	}
	if got := DateOnly("2024"); got != "2024" {
		t.Errorf("DateOnly on short string = %q, want 2024", got)
	}
}

func TestHoursBetween(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)
	b := time.Date(2024, 12, 15, 13, 30, 0, 0, time.UTC)
	if got := HoursBetween(a, b); got != 3.5 {
		t.Errorf("HoursBetween = %v, want 3.5", got)
	}
	if got := HoursBetween(b, a); got != -3.5 {
		t.Errorf("HoursBetween reversed = %v, want -3.5", got)
	}
}
