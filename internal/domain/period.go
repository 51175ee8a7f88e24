package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodType distinguishes monthly from quarterly reports.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

// Period is a report period: one calendar month or one fixed quarter.
type Period struct {
	Year  int
	Type  PeriodType
	Value int // month 1-12, or quarter 1-4
}

var quarterStartMonth = map[int]time.Month{
	1: time.January,
	2: time.April,
	3: time.July,
	4: time.October,
}

// Range resolves the period to its inclusive start and end dates, both at
// UTC midnight.
func (p Period) Range() (time.Time, time.Time, error) {
	if p.Year < 2000 || p.Year > 2100 {
		return time.Time{}, time.Time{}, fmt.Errorf("year %d out of range", p.Year)
	}
	switch p.Type {
	case PeriodMonthly:
		if p.Value < 1 || p.Value > 12 {
			return time.Time{}, time.Time{}, fmt.Errorf("month %d out of range", p.Value)
		}
		start := time.Date(p.Year, time.Month(p.Value), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	case PeriodQuarterly:
		m, ok := quarterStartMonth[p.Value]
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("quarter %d out of range", p.Value)
		}
		start := time.Date(p.Year, m, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, -1)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period type %q", p.Type)
	}
}

// Label renders the period the way it appears in report filenames:
// "2024-12" for months, "2024-Q4" for quarters.
func (p Period) Label() string {
	if p.Type == PeriodQuarterly {
		return fmt.Sprintf("%d-Q%d", p.Year, p.Value)
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Value)
}

// ParsePeriod parses "2024-12" or "2024-Q4" style period labels.
func ParsePeriod(s string) (Period, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("invalid period %q, want YYYY-MM or YYYY-Qn", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year in %q", s)
	}
	rest := parts[1]
	if strings.HasPrefix(strings.ToUpper(rest), "Q") {
		q, err := strconv.Atoi(rest[1:])
		if err != nil {
			return Period{}, fmt.Errorf("invalid quarter in %q", s)
		}
		p := Period{Year: year, Type: PeriodQuarterly, Value: q}
		if _, _, err := p.Range(); err != nil {
			return Period{}, err
		}
		return p, nil
	}
	m, err := strconv.Atoi(rest)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month in %q", s)
	}
	p := Period{Year: year, Type: PeriodMonthly, Value: m}
	if _, _, err := p.Range(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// CurrentMonth returns the period for the month containing now.
func CurrentMonth(now time.Time) Period {
	return Period{Year: now.Year(), Type: PeriodMonthly, Value: int(now.Month())}
}

// CurrentQuarter returns the period for the quarter containing now.
func CurrentQuarter(now time.Time) Period {
	q := (int(now.Month())-1)/3 + 1
	return Period{Year: now.Year(), Type: PeriodQuarterly, Value: q}
}
