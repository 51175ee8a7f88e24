package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/metrics"
)

func testData() *aggregator.Data {
	return &aggregator.Data{
		Username:  "octocat",
		StartDate: "2024-12-01",
		EndDate:   "2024-12-31",
		Commits: []domain.Commit{
			{SHA: "abc1234def", Message: "fix bug\n\nlonger body", Repository: "org/repo1", Date: "2024-12-05T10:00:00Z", URL: "https://github.com/c/1"},
		},
		PRs: []domain.PullRequest{
			{Number: 1, Title: "add feature", State: "closed", Repository: "org/repo1",
				CreatedAt: "2024-12-05T10:00:00Z", MergedAt: "2024-12-06T10:00:00Z", URL: "https://github.com/p/1"},
		},
		Issues:       []domain.Issue{},
		Reviews:      []domain.Review{},
		Comments:     []domain.Comment{},
		Repositories: []string{"org/repo1"},
	}
}

func testPeriod() domain.Period {
	return domain.Period{Year: 2024, Type: domain.PeriodMonthly, Value: 12}
}

func newTestWriter(t *testing.T, cfg config.OutputConfig) *Writer {
	t.Helper()
	if cfg.Directory == "" {
		cfg.Directory = t.TempDir()
	}
	return NewWriter(cfg, nil)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Build(testPeriod(), testData(), nil, now)

	if r.SchemaVersion != "1.0" {
		t.Errorf("schema_version = %q", r.SchemaVersion)
	}
	if r.Metadata.Period != "2024-12" || r.Metadata.Username != "octocat" {
		t.Errorf("metadata = %+v", r.Metadata)
	}
	if r.Metadata.GeneratedAt != "2025-01-02T03:04:05Z" {
		t.Errorf("generated_at = %q", r.Metadata.GeneratedAt)
	}
	if r.Metadata.RunID == "" {
		t.Error("run_id should be set")
	}
	if r.Summary.TotalPRsMerged != 1 {
		t.Errorf("summary not computed: %+v", r.Summary)
	}
}

func TestWriteJSONVersionedFilenames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWriter(t, config.OutputConfig{Directory: dir, IncludeLinks: true, CommitMessageFormat: "full"})
	r := Build(testPeriod(), testData(), nil, time.Now())

	p1, err := w.WriteJSON(r, testPeriod())
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	p2, err := w.WriteJSON(r, testPeriod())
	if err != nil {
		t.Fatalf("WriteJSON second run: %v", err)
	}

	want1 := filepath.Join(dir, "2024", "octocat", "2024-12-github-activity-1.json")
	want2 := filepath.Join(dir, "2024", "octocat", "2024-12-github-activity-2.json")
	if p1 != want1 {
		t.Errorf("first path = %q, want %q", p1, want1)
	}
	if p2 != want2 {
		t.Errorf("second path = %q, want %q", p2, want2)
	}

	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Activity.Commits[0].URL == "" {
		t.Error("links should be included")
	}
}

func TestWriteJSONStripsLinks(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, config.OutputConfig{IncludeLinks: false, CommitMessageFormat: "full"})
	r := Build(testPeriod(), testData(), nil, time.Now())

	path, err := w.WriteJSON(r, testPeriod())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Activity.Commits[0].URL != "" || decoded.Activity.PRs[0].URL != "" {
		t.Error("links should be stripped")
	}
	// The original data must stay untouched.
	if r.Activity.Commits[0].URL == "" {
		t.Error("writer mutated the source data")
	}
}

func TestFormatMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 100)
	tests := []struct {
		format string
		input  string
		want   string
	}{
		{"full", "line one\nline two", "line one\nline two"},
		{"first_line", "line one\nline two", "line one"},
		{"first_line", "single", "single"},
		{"truncated", long + "\nbody", long[:72] + "..."},
		{"truncated", "short", "short"},
	}
	for _, tt := range tests {
		w := NewWriter(config.OutputConfig{CommitMessageFormat: tt.format}, nil)
		if got := w.formatMessage(tt.input); got != tt.want {
			t.Errorf("formatMessage(%s, %q) = %q, want %q", tt.format, tt.input, got, tt.want)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	w := newTestWriter(t, config.OutputConfig{IncludeLinks: true, CommitMessageFormat: "first_line"})
	d := testData()
	c := metrics.NewCalculator(config.MetricsConfig{PRMetricsEnabled: true, EngagementEnabled: true}, nil)
	m := c.CalculateAll(metrics.Input{Data: d})
	r := Build(testPeriod(), d, m, time.Now())

	path, err := w.WriteMarkdown(r, testPeriod())
	if err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, want := range []string{
		"# GitHub Activity Report: octocat (2024-12)",
		"| Commits | 1 |",
		"## Commits (1)",
		"[abc1234](https://github.com/c/1) fix bug",
		"org/repo1#1 [add feature](https://github.com/p/1) (merged)",
		"## Metrics",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, content)
		}
	}
	if strings.Contains(content, "longer body") {
		t.Error("first_line format should drop the commit body")
	}
}
