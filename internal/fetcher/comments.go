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

// CommentFetcher retrieves the user's issue comments and review comments.
// Issue comments are found by searching for issues the user commented on and
// then listing each issue's comments; review comments come from the review
// comment endpoint of reviewed PRs.
type CommentFetcher struct {
	host      Host
	username  string
	threshold int
	logger    *zap.Logger
}

func NewCommentFetcher(host Host, username string, threshold int, logger *zap.Logger) *CommentFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentFetcher{host: host, username: username, threshold: threshold, logger: logger}
}

// FetchPeriod returns the user's issue comments created in [start, end],
// deduplicated by comment ID.
func (f *CommentFetcher) FetchPeriod(ctx context.Context, start, end time.Time) []domain.Comment {
	comments := fetchPeriod(ctx, f.fetchRange, start, end, f.threshold, f.logger, "comments")
	return dedupe(comments, commentKey)
}

func (f *CommentFetcher) fetchRange(ctx context.Context, start, end string) []domain.Comment {
	endpoint := searchEndpoint("issues",
		fmt.Sprintf("commenter:%s", f.username),
		fmt.Sprintf("updated:%s..%s", start, end),
	)
	body, ok := callHost(ctx, f.host, f.logger, endpoint, true)
	if !ok {
		return nil
	}

	var result searchResult
	if err := json.Unmarshal(body, &result); err != nil {
		f.logger.Warn("commenter search response unparseable", zap.Error(err))
		return nil
	}

	var comments []domain.Comment
	for _, raw := range result.Items {
		var issue struct {
			Number        int    `json:"number"`
			RepositoryURL string `json:"repository_url"`
			PullRequest   *struct {
				URL string `json:"url"`
			} `json:"pull_request"`
		}
		if err := json.Unmarshal(raw, &issue); err != nil {
			f.logger.Warn("skipping unparseable commented issue", zap.Error(err))
			continue
		}
		repo := repoFromURL(issue.RepositoryURL)
		comments = append(comments, f.fetchIssueComments(ctx, repo, issue.Number, issue.PullRequest != nil, start, end)...)
	}
	return comments
}

func (f *CommentFetcher) fetchIssueComments(ctx context.Context, repo string, number int, isPR bool, start, end string) []domain.Comment {
	body, ok := callHost(ctx, f.host, f.logger,
		fmt.Sprintf("/repos/%s/issues/%d/comments", repo, number), true)
	if !ok {
		return nil
	}
	var items []struct {
		ID        int64  `json:"id"`
		Body      string `json:"body"`
		CreatedAt string `json:"created_at"`
		UpdatedAt string `json:"updated_at"`
		HTMLURL   string `json:"html_url"`
		User      struct {
			Login string `json:"login"`
		} `json:"user"`
	}
	if err := json.Unmarshal(body, &items); err != nil {
		f.logger.Warn("issue comments unparseable",
			zap.String("repository", repo), zap.Int("number", number), zap.Error(err))
		return nil
	}

	var comments []domain.Comment
	for _, item := range items {
		if item.User.Login != f.username {
			continue
		}
		if !timeutil.WithinRange(item.CreatedAt, start, end) {
			continue
		}
		c := domain.Comment{
			ID:          item.ID,
			Type:        "issue_comment",
			Body:        item.Body,
			BodyLength:  len(item.Body),
			Repository:  repo,
			IssueNumber: number,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
			URL:         item.HTMLURL,
		}
		if isPR {
			c.PRNumber = number
		}
		comments = append(comments, c)
	}
	return comments
}

// FetchReviewComments returns the user's inline review comments on the given
// PRs, filtered to [start, end].
func (f *CommentFetcher) FetchReviewComments(ctx context.Context, prs []domain.PullRequest, start, end time.Time) []domain.Comment {
	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	var comments []domain.Comment
	seen := make(map[string]struct{}, len(prs))
	for _, pr := range prs {
		if _, dup := seen[pr.Key()]; dup {
			continue
		}
		seen[pr.Key()] = struct{}{}

		body, ok := callHost(ctx, f.host, f.logger,
			fmt.Sprintf("/repos/%s/pulls/%d/comments", pr.Repository, pr.Number), true)
		if !ok {
			continue
		}
		var items []struct {
			ID        int64  `json:"id"`
			Body      string `json:"body"`
			CreatedAt string `json:"created_at"`
			UpdatedAt string `json:"updated_at"`
			HTMLURL   string `json:"html_url"`
			Path      string `json:"path"`
			Line      int    `json:"line"`
			User      struct {
				Login string `json:"login"`
			} `json:"user"`
		}
		if err := json.Unmarshal(body, &items); err != nil {
			f.logger.Warn("review comments unparseable",
				zap.String("pr", pr.Key()), zap.Error(err))
			continue
		}
		for _, item := range items {
			if item.User.Login != f.username {
				continue
			}
			if !timeutil.WithinRange(item.CreatedAt, startDate, endDate) {
				continue
			}
			comments = append(comments, domain.Comment{
				ID:         item.ID,
				Type:       "review_comment",
				Body:       item.Body,
				BodyLength: len(item.Body),
				Repository: pr.Repository,
				PRNumber:   pr.Number,
				CreatedAt:  item.CreatedAt,
				UpdatedAt:  item.UpdatedAt,
				URL:        item.HTMLURL,
				Path:       item.Path,
				Line:       item.Line,
			})
		}
	}
	return dedupe(comments, commentKey)
}

// MergeComments unions comment lists in precedence order: when the same
// comment appears in several lists, the earliest list's copy wins.
func MergeComments(lists ...[]domain.Comment) []domain.Comment {
	var all []domain.Comment
	for _, list := range lists {
		all = append(all, list...)
	}
	return dedupe(all, commentKey)
}

func commentKey(c domain.Comment) string {
	if c.ID != 0 {
		return fmt.Sprintf("id:%d", c.ID)
	}
	return c.URL
}
