// Package aggregator turns fetched activity lists into the report's
// aggregated view: per-kind totals, the repository set, and summary
// statistics. Aggregation is pure; it never touches the host.
package aggregator

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/timeutil"
)

// Input carries the fetched lists. Nil slices mean no activity of that kind.
type Input struct {
	Commits  []domain.Commit
	PRs      []domain.PullRequest
	Issues   []domain.Issue
	Reviews  []domain.Review
	Comments []domain.Comment
}

// Data is the aggregated activity for one report period.
type Data struct {
	Username  string `json:"username"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Commits  []domain.Commit      `json:"commits"`
	PRs      []domain.PullRequest `json:"pull_requests"`
	Issues   []domain.Issue       `json:"issues"`
	Reviews  []domain.Review      `json:"reviews"`
	Comments []domain.Comment     `json:"comments"`

	Repositories []string `json:"repositories"`
}

// Summary is the headline numbers of a report.
type Summary struct {
	TotalCommits      int    `json:"total_commits"`
	TotalPRs          int    `json:"total_prs"`
	TotalPRsMerged    int    `json:"total_prs_merged"`
	TotalPRsReviewed  int    `json:"total_prs_reviewed"`
	TotalIssues       int    `json:"total_issues"`
	TotalReviews      int    `json:"total_reviews"`
	TotalComments     int    `json:"total_comments"`
	TotalRepositories int    `json:"total_repositories"`
	MostActiveDay     string `json:"most_active_day,omitempty"`
	MostActiveRepo    string `json:"most_active_repo,omitempty"`
}

// Aggregator filters and groups activity for one user and period.
type Aggregator struct {
	username  string
	startDate string // YYYY-MM-DD inclusive
	endDate   string
	logger    *zap.Logger
}

func New(username string, start, end time.Time, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		username:  username,
		startDate: start.Format(time.DateOnly),
		endDate:   end.Format(time.DateOnly),
		logger:    logger,
	}
}

// Aggregate filters every list to the report period and assembles the
// repository union. PRs created before the period survive when they carry
// the period-activity flag.
func (a *Aggregator) Aggregate(in Input) *Data {
	d := &Data{
		Username:  a.username,
		StartDate: a.startDate,
		EndDate:   a.endDate,
		Commits:   []domain.Commit{},
		PRs:       []domain.PullRequest{},
		Issues:    []domain.Issue{},
		Reviews:   []domain.Review{},
		Comments:  []domain.Comment{},
	}

	for _, c := range in.Commits {
		if a.inRange(c.Date) {
			d.Commits = append(d.Commits, c)
		}
	}
	for _, pr := range in.PRs {
		if a.inRange(pr.CreatedAt) || pr.HasPeriodActivity {
			d.PRs = append(d.PRs, pr)
		}
	}
	for _, i := range in.Issues {
		if a.inRange(i.CreatedAt) {
			d.Issues = append(d.Issues, i)
		}
	}
	for _, r := range in.Reviews {
		if a.inRange(r.SubmittedAt) {
			d.Reviews = append(d.Reviews, r)
		}
	}
	for _, c := range in.Comments {
		if a.inRange(c.CreatedAt) {
			d.Comments = append(d.Comments, c)
		}
	}

	d.Repositories = a.repositories(d)

	a.logger.Debug("aggregated activity",
		zap.Int("commits", len(d.Commits)),
		zap.Int("pull_requests", len(d.PRs)),
		zap.Int("issues", len(d.Issues)),
		zap.Int("reviews", len(d.Reviews)),
		zap.Int("comments", len(d.Comments)),
		zap.Int("repositories", len(d.Repositories)))
	return d
}

func (a *Aggregator) inRange(ts string) bool {
	return timeutil.WithinRange(ts, a.startDate, a.endDate)
}

// repositories unions repository names over commits, PRs, issues and
// reviews. Comments deliberately do not contribute: commenting alone does
// not make a repository part of the user's working set.
func (a *Aggregator) repositories(d *Data) []string {
	seen := make(map[string]struct{})
	add := func(repo string) {
		if repo != "" {
			seen[repo] = struct{}{}
		}
	}
	for _, c := range d.Commits {
		add(c.Repository)
	}
	for _, pr := range d.PRs {
		add(pr.Repository)
	}
	for _, i := range d.Issues {
		add(i.Repository)
	}
	for _, r := range d.Reviews {
		add(r.Repository)
	}
	repos := make([]string, 0, len(seen))
	for repo := range seen {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	return repos
}

// Summarize computes the headline numbers for aggregated data.
func (d *Data) Summarize() Summary {
	s := Summary{
		TotalCommits:      len(d.Commits),
		TotalPRs:          len(d.PRs),
		TotalIssues:       len(d.Issues),
		TotalReviews:      len(d.Reviews),
		TotalComments:     len(d.Comments),
		TotalRepositories: len(d.Repositories),
	}
	for _, pr := range d.PRs {
		if pr.MergedAt != "" {
			s.TotalPRsMerged++
		}
	}
	reviewedPRs := make(map[string]struct{})
	for _, r := range d.Reviews {
		reviewedPRs[r.PRKey()] = struct{}{}
	}
	s.TotalPRsReviewed = len(reviewedPRs)

	s.MostActiveDay = d.mostActiveDay()
	s.MostActiveRepo = d.mostActiveRepo()
	return s
}

// mostActiveDay finds the date with the most records. Scan order is fixed
// (commits, PRs, issues, reviews, comments) and ties keep the bucket seen
// first.
func (d *Data) mostActiveDay() string {
	counts := newFirstSeenCounter()
	for _, c := range d.Commits {
		counts.add(timeutil.DateOnly(c.Date))
	}
	for _, pr := range d.PRs {
		counts.add(timeutil.DateOnly(pr.CreatedAt))
	}
	for _, i := range d.Issues {
		counts.add(timeutil.DateOnly(i.CreatedAt))
	}
	for _, r := range d.Reviews {
		counts.add(timeutil.DateOnly(r.SubmittedAt))
	}
	for _, c := range d.Comments {
		counts.add(timeutil.DateOnly(c.CreatedAt))
	}
	return counts.max()
}

func (d *Data) mostActiveRepo() string {
	counts := newFirstSeenCounter()
	for _, c := range d.Commits {
		counts.add(c.Repository)
	}
	for _, pr := range d.PRs {
		counts.add(pr.Repository)
	}
	for _, i := range d.Issues {
		counts.add(i.Repository)
	}
	for _, r := range d.Reviews {
		counts.add(r.Repository)
	}
	for _, c := range d.Comments {
		counts.add(c.Repository)
	}
	return counts.max()
}

// firstSeenCounter counts keys and resolves max ties by insertion order.
type firstSeenCounter struct {
	counts map[string]int
	order  []string
}

func newFirstSeenCounter() *firstSeenCounter {
	return &firstSeenCounter{counts: make(map[string]int)}
}

func (c *firstSeenCounter) add(key string) {
	if key == "" {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *firstSeenCounter) max() string {
	best := ""
	bestCount := 0
	for _, key := range c.order {
		if c.counts[key] > bestCount {
			best = key
			bestCount = c.counts[key]
		}
	}
	return best
}
