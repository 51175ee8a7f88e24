package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/timeutil"
)

// PRFetcher retrieves the user's pull requests from three sources: issue
// search over the created range, issue search over the updated range, and a
// probe of open PRs for period activity. The orchestrator unions the three.
type PRFetcher struct {
	host      Host
	username  string
	threshold int
	logger    *zap.Logger
}

func NewPRFetcher(host Host, username string, threshold int, logger *zap.Logger) *PRFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PRFetcher{host: host, username: username, threshold: threshold, logger: logger}
}

// FetchPeriod returns PRs created by the user in [start, end].
func (f *PRFetcher) FetchPeriod(ctx context.Context, start, end time.Time) []domain.PullRequest {
	prs := fetchPeriod(ctx, f.fetchCreatedRange, start, end, f.threshold, f.logger, "pull_requests")
	return dedupe(prs, domain.PullRequest.Key)
}

// FetchUpdatedInPeriod returns PRs by the user updated in [start, end],
// regardless of when they were created.
func (f *PRFetcher) FetchUpdatedInPeriod(ctx context.Context, start, end time.Time) []domain.PullRequest {
	fetchRange := func(ctx context.Context, s, e string) []domain.PullRequest {
		return f.searchPRs(ctx,
			fmt.Sprintf("author:%s", f.username),
			"type:pr",
			fmt.Sprintf("updated:%s..%s", s, e),
		)
	}
	prs := fetchPeriod(ctx, fetchRange, start, end, f.threshold, f.logger, "pull_requests_updated")
	return dedupe(prs, domain.PullRequest.Key)
}

// FetchOpenWithActivity returns the user's open PRs that saw reviews,
// comments or commits inside [start, end]. Each returned PR is flagged with
// HasPeriodActivity. Probe failures on individual sub-resources degrade to
// "no activity from that source" rather than dropping the PR scan.
func (f *PRFetcher) FetchOpenWithActivity(ctx context.Context, start, end time.Time) []domain.PullRequest {
	open := f.searchPRs(ctx,
		fmt.Sprintf("author:%s", f.username),
		"type:pr",
		"is:open",
	)

	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	var active []domain.PullRequest
	for _, pr := range open {
		if f.hasActivityBetween(ctx, pr, startDate, endDate) {
			pr.HasPeriodActivity = true
			active = append(active, pr)
		}
	}
	f.logger.Debug("probed open pull requests",
		zap.Int("open", len(open)), zap.Int("active", len(active)))
	return dedupe(active, domain.PullRequest.Key)
}

func (f *PRFetcher) hasActivityBetween(ctx context.Context, pr domain.PullRequest, start, end string) bool {
	if body, ok := callHost(ctx, f.host, f.logger,
		fmt.Sprintf("/repos/%s/pulls/%d/reviews", pr.Repository, pr.Number), true); ok {
		var reviews []struct {
			SubmittedAt string `json:"submitted_at"`
		}
		if err := json.Unmarshal(body, &reviews); err == nil {
			for _, r := range reviews {
				if timeutil.WithinRange(r.SubmittedAt, start, end) {
					return true
				}
			}
		}
	}
	if body, ok := callHost(ctx, f.host, f.logger,
		fmt.Sprintf("/repos/%s/issues/%d/comments", pr.Repository, pr.Number), true); ok {
		var comments []struct {
			CreatedAt string `json:"created_at"`
		}
		if err := json.Unmarshal(body, &comments); err == nil {
			for _, c := range comments {
				if timeutil.WithinRange(c.CreatedAt, start, end) {
					return true
				}
			}
		}
	}
	if body, ok := callHost(ctx, f.host, f.logger,
		fmt.Sprintf("/repos/%s/pulls/%d/commits", pr.Repository, pr.Number), true); ok {
		var commits []struct {
			Commit struct {
				Committer struct {
					Date string `json:"date"`
				} `json:"committer"`
			} `json:"commit"`
		}
		if err := json.Unmarshal(body, &commits); err == nil {
			for _, c := range commits {
				if timeutil.WithinRange(c.Commit.Committer.Date, start, end) {
					return true
				}
			}
		}
	}
	return false
}

// FetchReviewedPRs returns PRs the user reviewed that were created in
// [start, end].
func (f *PRFetcher) FetchReviewedPRs(ctx context.Context, start, end time.Time) []domain.PullRequest {
	fetchRange := func(ctx context.Context, s, e string) []domain.PullRequest {
		return f.searchPRs(ctx,
			fmt.Sprintf("reviewed-by:%s", f.username),
			"type:pr",
			fmt.Sprintf("created:%s..%s", s, e),
		)
	}
	prs := fetchPeriod(ctx, fetchRange, start, end, f.threshold, f.logger, "reviewed_pull_requests")
	return dedupe(prs, domain.PullRequest.Key)
}

// EnrichDetails fills commits_count, additions and deletions from the PR
// detail endpoint. A failed detail call leaves the PR unenriched.
func (f *PRFetcher) EnrichDetails(ctx context.Context, prs []domain.PullRequest) []domain.PullRequest {
	for i := range prs {
		endpoint := fmt.Sprintf("/repos/%s/pulls/%d", prs[i].Repository, prs[i].Number)
		body, err := f.host.Call(ctx, endpoint, false)
		if err != nil {
			f.logger.Debug("pull request detail unavailable",
				zap.String("pr", prs[i].Key()), zap.Error(err))
			continue
		}
		var detail struct {
			Commits   int    `json:"commits"`
			Additions int    `json:"additions"`
			Deletions int    `json:"deletions"`
			MergedAt  string `json:"merged_at"`
		}
		if err := json.Unmarshal(body, &detail); err != nil {
			f.logger.Debug("pull request detail unparseable",
				zap.String("pr", prs[i].Key()), zap.Error(err))
			continue
		}
		prs[i].CommitsCount = detail.Commits
		prs[i].Additions = detail.Additions
		prs[i].Deletions = detail.Deletions
		if prs[i].MergedAt == "" {
			prs[i].MergedAt = detail.MergedAt
		}
	}
	return prs
}

// FetchCommitsFromPRs collects branch commits from unmerged PRs. Commit
// search only covers the default branch, so commits on open or abandoned PR
// branches are recovered here. Only the user's own commits with a committer
// date inside [start, end] are returned, marked FromPR.
func (f *PRFetcher) FetchCommitsFromPRs(ctx context.Context, prs []domain.PullRequest, start, end time.Time) []domain.Commit {
	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	var commits []domain.Commit
	for _, pr := range prs {
		if pr.MergedAt != "" {
			continue
		}
		body, ok := callHost(ctx, f.host, f.logger,
			fmt.Sprintf("/repos/%s/pulls/%d/commits", pr.Repository, pr.Number), true)
		if !ok {
			continue
		}
		var items []struct {
			SHA    string `json:"sha"`
			Commit struct {
				Message string `json:"message"`
				Author  struct {
					Date string `json:"date"`
				} `json:"author"`
				Committer struct {
					Date string `json:"date"`
				} `json:"committer"`
			} `json:"commit"`
			Author struct {
				Login string `json:"login"`
			} `json:"author"`
			HTMLURL string `json:"html_url"`
		}
		if err := json.Unmarshal(body, &items); err != nil {
			f.logger.Warn("pull request commits unparseable",
				zap.String("pr", pr.Key()), zap.Error(err))
			continue
		}
		for _, item := range items {
			if item.Author.Login != f.username {
				continue
			}
			if !timeutil.WithinRange(item.Commit.Committer.Date, startDate, endDate) {
				continue
			}
			commits = append(commits, domain.Commit{
				SHA:        item.SHA,
				Message:    item.Commit.Message,
				Repository: pr.Repository,
				Date:       item.Commit.Committer.Date,
				AuthorDate: item.Commit.Author.Date,
				URL:        item.HTMLURL,
				FromPR:     true,
			})
		}
	}
	return dedupe(commits, func(c domain.Commit) string { return c.SHA })
}

func (f *PRFetcher) fetchCreatedRange(ctx context.Context, start, end string) []domain.PullRequest {
	return f.searchPRs(ctx,
		fmt.Sprintf("author:%s", f.username),
		"type:pr",
		fmt.Sprintf("created:%s..%s", start, end),
	)
}

func (f *PRFetcher) searchPRs(ctx context.Context, terms ...string) []domain.PullRequest {
	endpoint := searchEndpoint("issues", terms...)
	body, ok := callHost(ctx, f.host, f.logger, endpoint, true)
	if !ok {
		return nil
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		f.logger.Warn("pull request search response unparseable", zap.Error(err))
		return nil
	}

	prs := make([]domain.PullRequest, 0, len(result.Items))
	for _, raw := range result.Items {
		var item struct {
			Number        int    `json:"number"`
			Title         string `json:"title"`
			State         string `json:"state"`
			CreatedAt     string `json:"created_at"`
			UpdatedAt     string `json:"updated_at"`
			ClosedAt      string `json:"closed_at"`
			RepositoryURL string `json:"repository_url"`
			HTMLURL       string `json:"html_url"`
			PullRequest   struct {
				MergedAt string `json:"merged_at"`
			} `json:"pull_request"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			f.logger.Warn("skipping unparseable pull request", zap.Error(err))
			continue
		}
		prs = append(prs, domain.PullRequest{
			Number:     item.Number,
			Title:      item.Title,
			State:      item.State,
			Repository: repoFromURL(item.RepositoryURL),
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
			MergedAt:   item.PullRequest.MergedAt,
			ClosedAt:   item.ClosedAt,
			URL:        item.HTMLURL,
		})
	}
	return prs
}

// UnionPRs merges PR lists by key in the order given: when the same PR
// appears in several lists, the earliest list's copy wins, except that the
// HasPeriodActivity flag survives from any copy.
func UnionPRs(lists ...[]domain.PullRequest) []domain.PullRequest {
	active := make(map[string]bool)
	for _, list := range lists {
		for _, pr := range list {
			if pr.HasPeriodActivity {
				active[pr.Key()] = true
			}
		}
	}
	var all []domain.PullRequest
	for _, list := range lists {
		all = append(all, list...)
	}
	merged := dedupe(all, domain.PullRequest.Key)
	for i := range merged {
		if active[merged[i].Key()] {
			merged[i].HasPeriodActivity = true
		}
	}
	return merged
}
