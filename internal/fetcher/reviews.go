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

// ReviewFetcher retrieves pull request reviews. Reviews have no search
// endpoint, so they are always fetched per PR.
type ReviewFetcher struct {
	host     Host
	username string
	logger   *zap.Logger
}

func NewReviewFetcher(host Host, username string, logger *zap.Logger) *ReviewFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewFetcher{host: host, username: username, logger: logger}
}

// FetchPeriod always returns nil: the host offers no review search by date.
// Reviews are reachable only through FetchForPRs and FetchOnAuthoredPRs.
func (f *ReviewFetcher) FetchPeriod(ctx context.Context, start, end time.Time) []domain.Review {
	return nil
}

// FetchForPRs returns the user's own reviews on the given PRs, limited to
// those submitted inside [start, end].
func (f *ReviewFetcher) FetchForPRs(ctx context.Context, prs []domain.PullRequest, start, end time.Time) []domain.Review {
	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)
	return f.fetch(ctx, prs, func(rv domain.Review) bool {
		return rv.User == f.username && timeutil.WithinRange(rv.SubmittedAt, startDate, endDate)
	})
}

// FetchOnAuthoredPRs returns reviews left by other people on the given PRs.
// These feed the time-to-first-review metric and are not date filtered: the
// earliest review matters even when it predates the report period.
func (f *ReviewFetcher) FetchOnAuthoredPRs(ctx context.Context, prs []domain.PullRequest) []domain.Review {
	return f.fetch(ctx, prs, func(rv domain.Review) bool { return rv.User != f.username })
}

func (f *ReviewFetcher) fetch(ctx context.Context, prs []domain.PullRequest, keep func(domain.Review) bool) []domain.Review {
	var reviews []domain.Review
	seen := make(map[string]struct{}, len(prs))
	for _, pr := range prs {
		if _, dup := seen[pr.Key()]; dup {
			continue
		}
		seen[pr.Key()] = struct{}{}

		body, ok := callHost(ctx, f.host, f.logger,
			fmt.Sprintf("/repos/%s/pulls/%d/reviews", pr.Repository, pr.Number), true)
		if !ok {
			continue
		}
		var items []struct {
			ID          int64  `json:"id"`
			State       string `json:"state"`
			SubmittedAt string `json:"submitted_at"`
			Body        string `json:"body"`
			User        struct {
				Login string `json:"login"`
			} `json:"user"`
		}
		if err := json.Unmarshal(body, &items); err != nil {
			f.logger.Warn("review list unparseable",
				zap.String("pr", pr.Key()), zap.Error(err))
			continue
		}
		for _, item := range items {
			rv := domain.Review{
				ID:          item.ID,
				PRNumber:    pr.Number,
				Repository:  pr.Repository,
				State:       item.State,
				SubmittedAt: item.SubmittedAt,
				BodyLength:  len(item.Body),
				User:        item.User.Login,
				RequestedAt: pr.CreatedAt,
			}
			if keep(rv) {
				reviews = append(reviews, rv)
			}
		}
	}
	return reviews
}
