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

// EventFetcher reads the user's public event feed. The feed cannot be
// filtered server side, so the whole feed is pulled and filtered locally.
// Issue comment events double as a secondary comment source.
type EventFetcher struct {
	host     Host
	username string
	logger   *zap.Logger
}

func NewEventFetcher(host Host, username string, logger *zap.Logger) *EventFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventFetcher{host: host, username: username, logger: logger}
}

// FetchPeriod returns the user's events inside [start, end] plus the issue
// comments extracted from IssueCommentEvent payloads in the same window.
func (f *EventFetcher) FetchPeriod(ctx context.Context, start, end time.Time) ([]domain.Event, []domain.Comment) {
	endpoint := fmt.Sprintf("/users/%s/events?per_page=100", f.username)
	body, ok := callHost(ctx, f.host, f.logger, endpoint, true)
	if !ok {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		f.logger.Warn("event feed unparseable", zap.Error(err))
		return nil, nil
	}

	startDate := start.Format(time.DateOnly)
	endDate := end.Format(time.DateOnly)

	var events []domain.Event
	var comments []domain.Comment
	for _, r := range raw {
		var item struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			Repo struct {
				Name string `json:"name"`
			} `json:"repo"`
			CreatedAt string `json:"created_at"`
			Payload   struct {
				Issue struct {
					Number int `json:"number"`
				} `json:"issue"`
				Comment struct {
					ID        int64  `json:"id"`
					Body      string `json:"body"`
					CreatedAt string `json:"created_at"`
					UpdatedAt string `json:"updated_at"`
					HTMLURL   string `json:"html_url"`
				} `json:"comment"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(r, &item); err != nil {
			f.logger.Warn("skipping unparseable event", zap.Error(err))
			continue
		}
		if !timeutil.WithinRange(item.CreatedAt, startDate, endDate) {
			continue
		}
		events = append(events, domain.Event{
			ID:        item.ID,
			Type:      item.Type,
			Repo:      item.Repo.Name,
			CreatedAt: item.CreatedAt,
		})
		if item.Type == "IssueCommentEvent" && item.Payload.Comment.ID != 0 {
			comments = append(comments, domain.Comment{
				ID:          item.Payload.Comment.ID,
				Type:        "issue_comment",
				Body:        item.Payload.Comment.Body,
				BodyLength:  len(item.Payload.Comment.Body),
				Repository:  item.Repo.Name,
				IssueNumber: item.Payload.Issue.Number,
				CreatedAt:   item.Payload.Comment.CreatedAt,
				UpdatedAt:   item.Payload.Comment.UpdatedAt,
				URL:         item.Payload.Comment.HTMLURL,
			})
		}
	}
	f.logger.Debug("fetched events",
		zap.Int("events", len(events)), zap.Int("event_comments", len(comments)))
	return events, comments
}
