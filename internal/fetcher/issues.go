package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/domain"
)

// IssueFetcher retrieves issues authored by the user via issue search.
type IssueFetcher struct {
	host      Host
	username  string
	threshold int
	logger    *zap.Logger
}

func NewIssueFetcher(host Host, username string, threshold int, logger *zap.Logger) *IssueFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueFetcher{host: host, username: username, threshold: threshold, logger: logger}
}

// FetchPeriod returns issues created by the user in [start, end],
// deduplicated by URL.
func (f *IssueFetcher) FetchPeriod(ctx context.Context, start, end time.Time) []domain.Issue {
	issues := fetchPeriod(ctx, f.fetchRange, start, end, f.threshold, f.logger, "issues")
	return dedupe(issues, func(i domain.Issue) string { return i.URL })
}

func (f *IssueFetcher) fetchRange(ctx context.Context, start, end string) []domain.Issue {
	endpoint := searchEndpoint("issues",
		fmt.Sprintf("author:%s", f.username),
		"type:issue",
		fmt.Sprintf("created:%s..%s", start, end),
	)
	body, ok := callHost(ctx, f.host, f.logger, endpoint, true)
	if !ok {
		return nil
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		f.logger.Warn("issue search response unparseable", zap.Error(err))
		return nil
	}

	issues := make([]domain.Issue, 0, len(result.Items))
	for _, raw := range result.Items {
		var item struct {
			Number        int    `json:"number"`
			Title         string `json:"title"`
			State         string `json:"state"`
			CreatedAt     string `json:"created_at"`
			ClosedAt      string `json:"closed_at"`
			RepositoryURL string `json:"repository_url"`
			HTMLURL       string `json:"html_url"`
			Labels        []struct {
				Name string `json:"name"`
			} `json:"labels"`
		}
		if err := json.Unmarshal(raw, &item); err != nil {
			f.logger.Warn("skipping unparseable issue", zap.Error(err))
			continue
		}
		labels := make([]string, 0, len(item.Labels))
		for _, l := range item.Labels {
			labels = append(labels, l.Name)
		}
		issues = append(issues, domain.Issue{
			Number:     item.Number,
			Title:      item.Title,
			State:      item.State,
			Repository: repoFromURL(item.RepositoryURL),
			CreatedAt:  item.CreatedAt,
			ClosedAt:   item.ClosedAt,
			URL:        item.HTMLURL,
			Labels:     labels,
		})
	}
	return issues
}
