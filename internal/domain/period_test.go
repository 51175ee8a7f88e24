package domain

import (
	"testing"
	"time"
)

func TestPeriodRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		period    Period
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{
			name:      "december",
			period:    Period{Year: 2024, Type: PeriodMonthly, Value: 12},
			wantStart: "2024-12-01",
			wantEnd:   "2024-12-31",
		},
		{
			name:      "february leap year",
			period:    Period{Year: 2024, Type: PeriodMonthly, Value: 2},
			wantStart: "2024-02-01",
			wantEnd:   "2024-02-29",
		},
		{
			name:      "february non-leap",
			period:    Period{Year: 2023, Type: PeriodMonthly, Value: 2},
			wantStart: "2023-02-01",
			wantEnd:   "2023-02-28",
		},
		{
			name:      "q1",
			period:    Period{Year: 2024, Type: PeriodQuarterly, Value: 1},
			wantStart: "2024-01-01",
			wantEnd:   "2024-03-31",
		},
		{
			name:      "q4",
			period:    Period{Year: 2024, Type: PeriodQuarterly, Value: 4},
			wantStart: "2024-10-01",
			wantEnd:   "2024-12-31",
		},
		{
			name:    "month zero",
			period:  Period{Year: 2024, Type: PeriodMonthly, Value: 0},
			wantErr: true,
		},
		{
			name:    "month thirteen",
			period:  Period{Year: 2024, Type: PeriodMonthly, Value: 13},
			wantErr: true,
		},
		{
			name:    "quarter five",
			period:  Period{Year: 2024, Type: PeriodQuarterly, Value: 5},
			wantErr: true,
		},
		{
			name:    "unknown type",
			period:  Period{Year: 2024, Type: "weekly", Value: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start, end, err := tt.period.Range()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Range() expected error, got %v..%v", start, end)
				}
				return
			}
			if err != nil {
				t.Fatalf("Range() unexpected error: %v", err)
			}
			if got := start.Format(time.DateOnly); got != tt.wantStart {
				t.Errorf("start = %s, want %s", got, tt.wantStart)
			}
			if got := end.Format(time.DateOnly); got != tt.wantEnd {
				t.Errorf("end = %s, want %s", got, tt.wantEnd)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Period
		wantErr bool
	}{
		{input: "2024-12", want: Period{Year: 2024, Type: PeriodMonthly, Value: 12}},
		{input: "2024-Q4", want: Period{Year: 2024, Type: PeriodQuarterly, Value: 4}},
		{input: "2024-q1", want: Period{Year: 2024, Type: PeriodQuarterly, Value: 1}},
		{input: "2024", wantErr: true},
		{input: "2024-13", wantErr: true},
		{input: "2024-Q0", wantErr: true},
		{input: "abcd-12", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePeriod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePeriod(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPeriodLabel(t *testing.T) {
	t.Parallel()

	if got := (Period{Year: 2024, Type: PeriodMonthly, Value: 3}).Label(); got != "2024-03" {
		t.Errorf("monthly label = %q, want 2024-03", got)
	}
	if got := (Period{Year: 2024, Type: PeriodQuarterly, Value: 2}).Label(); got != "2024-Q2" {
		t.Errorf("quarterly label = %q, want 2024-Q2", got)
	}
}

func TestCurrentQuarter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)
	if got := CurrentQuarter(now); got.Value != 4 || got.Year != 2024 {
		t.Errorf("CurrentQuarter = %+v, want 2024 Q4", got)
	}
}

func TestRecordKeys(t *testing.T) {
	t.Parallel()

	pr := PullRequest{Repository: "org/repo", Number: 42}
	if got := pr.Key(); got != "org/repo#42" {
		t.Errorf("PullRequest.Key = %q", got)
	}
	rv := Review{Repository: "org/repo", PRNumber: 42}
	if got := rv.PRKey(); got != "org/repo#42" {
		t.Errorf("Review.PRKey = %q", got)
	}
	ic := Comment{Repository: "org/repo", IssueNumber: 7}
	if got := ic.ThreadKey(); got != "org/repo#7" {
		t.Errorf("issue comment ThreadKey = %q", got)
	}
	rc := Comment{Repository: "org/repo", PRNumber: 9}
	if got := rc.ThreadKey(); got != "org/repo#9" {
		t.Errorf("review comment ThreadKey = %q", got)
	}
}
