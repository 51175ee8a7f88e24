// Package repofilter applies include/exclude glob patterns to fetched
// activity so that noise repositories (forks, mirrors, archives) can be kept
// out of a report.
package repofilter

import (
	"path"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
)

// Filter matches repository full names ("owner/name") against glob
// patterns. An empty include list admits everything; exclusions always win.
type Filter struct {
	include []string
	exclude []string
	logger  *zap.Logger
}

func New(cfg config.RepositoriesConfig, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{include: cfg.Include, exclude: cfg.Exclude, logger: logger}
}

// Allows reports whether a repository passes the filter. Records with an
// empty repository field are kept: they cannot be attributed, and dropping
// them would silently shrink totals.
func (f *Filter) Allows(repo string) bool {
	if repo == "" {
		return true
	}
	for _, pattern := range f.exclude {
		if matches(pattern, repo) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if matches(pattern, repo) {
			return true
		}
	}
	return false
}

// matches treats a pattern without glob metacharacters as an exact name.
// path.Match handles the "owner/*" form since / separates pattern segments.
func matches(pattern, repo string) bool {
	ok, err := path.Match(pattern, repo)
	if err != nil {
		return pattern == repo
	}
	return ok
}

// Commits returns the commits whose repository passes the filter.
func (f *Filter) Commits(in []domain.Commit) []domain.Commit {
	out := in[:0:0]
	for _, c := range in {
		if f.Allows(c.Repository) {
			out = append(out, c)
		}
	}
	f.logDropped("commits", len(in), len(out))
	return out
}

// PRs returns the pull requests whose repository passes the filter.
func (f *Filter) PRs(in []domain.PullRequest) []domain.PullRequest {
	out := in[:0:0]
	for _, pr := range in {
		if f.Allows(pr.Repository) {
			out = append(out, pr)
		}
	}
	f.logDropped("pull_requests", len(in), len(out))
	return out
}

// Issues returns the issues whose repository passes the filter.
func (f *Filter) Issues(in []domain.Issue) []domain.Issue {
	out := in[:0:0]
	for _, i := range in {
		if f.Allows(i.Repository) {
			out = append(out, i)
		}
	}
	f.logDropped("issues", len(in), len(out))
	return out
}

// Reviews returns the reviews whose repository passes the filter.
func (f *Filter) Reviews(in []domain.Review) []domain.Review {
	out := in[:0:0]
	for _, r := range in {
		if f.Allows(r.Repository) {
			out = append(out, r)
		}
	}
	f.logDropped("reviews", len(in), len(out))
	return out
}

// Comments returns the comments whose repository passes the filter.
func (f *Filter) Comments(in []domain.Comment) []domain.Comment {
	out := in[:0:0]
	for _, c := range in {
		if f.Allows(c.Repository) {
			out = append(out, c)
		}
	}
	f.logDropped("comments", len(in), len(out))
	return out
}

// Events returns the events whose repository passes the filter.
func (f *Filter) Events(in []domain.Event) []domain.Event {
	out := in[:0:0]
	for _, e := range in {
		if f.Allows(e.Repo) {
			out = append(out, e)
		}
	}
	f.logDropped("events", len(in), len(out))
	return out
}

func (f *Filter) logDropped(kind string, before, after int) {
	if before != after {
		f.logger.Debug("repository filter dropped records",
			zap.String("kind", kind),
			zap.Int("dropped", before-after))
	}
}
