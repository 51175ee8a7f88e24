package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/domain"
)

// CommitFetcher retrieves commits authored by the user via commit search.
type CommitFetcher struct {
	host      Host
	username  string
	threshold int
	logger    *zap.Logger
}

func NewCommitFetcher(host Host, username string, threshold int, logger *zap.Logger) *CommitFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommitFetcher{host: host, username: username, threshold: threshold, logger: logger}
}

// FetchPeriod returns the user's commits in [start, end], deduplicated by SHA.
func (f *CommitFetcher) FetchPeriod(ctx context.Context, start, end time.Time) []domain.Commit {
	commits := fetchPeriod(ctx, f.fetchRange, start, end, f.threshold, f.logger, "commits")
	return dedupe(commits, func(c domain.Commit) string {
		if c.SHA != "" {
			return c.SHA
		}
		return c.URL
	})
}

func (f *CommitFetcher) fetchRange(ctx context.Context, start, end string) []domain.Commit {
	endpoint := searchEndpoint("commits",
		fmt.Sprintf("author:%s", f.username),
		fmt.Sprintf("committer-date:%s..%s", start, end),
	)
	body, ok := callHost(ctx, f.host, f.logger, endpoint, true)
	if !ok {
		return nil
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		f.logger.Warn("commit search response unparseable", zap.Error(err))
		return nil
	}

	commits := make([]domain.Commit, 0, len(result.Items))
	for _, raw := range result.Items {
		var item struct {
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
			Repository struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
			HTMLURL string `json:"html_url"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			f.logger.Warn("skipping unparseable commit", zap.Error(err))
			continue
		}
		commits = append(commits, domain.Commit{
			SHA:        item.SHA,
			Message:    item.Commit.Message,
			Repository: item.Repository.FullName,
			Date:       item.Commit.Committer.Date,
			AuthorDate: item.Commit.Author.Date,
			URL:        item.HTMLURL,
		})
	}
	f.logger.Debug("fetched commit range",
		zap.String("start", start), zap.String("end", end), zap.Int("count", len(commits)))
	return commits
}

// MergeCommits unions two commit lists by SHA. Entries in primary win over
// entries in secondary with the same SHA.
func MergeCommits(primary, secondary []domain.Commit) []domain.Commit {
	merged := make([]domain.Commit, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)
	merged = append(merged, secondary...)
	return dedupe(merged, func(c domain.Commit) string { return c.SHA })
}
