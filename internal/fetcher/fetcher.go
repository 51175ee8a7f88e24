// Package fetcher retrieves the user's activity from the GitHub API. Search
// based kinds share an adaptive period strategy: the period is split into
// week windows, and any window whose result count reaches the high-activity
// threshold is discarded and refetched day by day so that capped search
// responses cannot silently drop records.
//
// Fetchers never propagate host failures. Every failed call is logged as a
// warning and treated as an empty result, so one bad endpoint degrades the
// report instead of aborting it.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Host is the API surface fetchers need.
type Host interface {
	Call(ctx context.Context, endpoint string, paginate bool) (json.RawMessage, error)
}

type dateRange struct {
	start string // inclusive, YYYY-MM-DD
	end   string // inclusive, YYYY-MM-DD
}

// weekRanges partitions [start, end] into consecutive windows of at most
// seven days. The final window is truncated to end.
func weekRanges(start, end time.Time) []dateRange {
	var ranges []dateRange
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 7) {
		wEnd := cur.AddDate(0, 0, 6)
		if wEnd.After(end) {
			wEnd = end
		}
		ranges = append(ranges, dateRange{
			start: cur.Format(time.DateOnly),
			end:   wEnd.Format(time.DateOnly),
		})
	}
	return ranges
}

// dayRanges expands a window into one range per day.
func dayRanges(r dateRange) []dateRange {
	start, err := time.Parse(time.DateOnly, r.start)
	if err != nil {
		return []dateRange{r}
	}
	end, err := time.Parse(time.DateOnly, r.end)
	if err != nil {
		return []dateRange{r}
	}
	var days []dateRange
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		d := cur.Format(time.DateOnly)
		days = append(days, dateRange{start: d, end: d})
	}
	return days
}

// fetchPeriod runs fetchRange over week windows of [start, end]. A window
// that returns threshold or more records is assumed to have hit the search
// cap; its result is discarded entirely and every day of the window is
// fetched individually instead.
func fetchPeriod[T any](
	ctx context.Context,
	fetchRange func(ctx context.Context, start, end string) []T,
	start, end time.Time,
	threshold int,
	logger *zap.Logger,
	kind string,
) []T {
	var all []T
	for _, week := range weekRanges(start, end) {
		items := fetchRange(ctx, week.start, week.end)
		if len(items) >= threshold {
			logger.Info("high activity window, refetching day by day",
				zap.String("kind", kind),
				zap.String("start", week.start),
				zap.String("end", week.end),
				zap.Int("count", len(items)))
			items = items[:0]
			for _, day := range dayRanges(week) {
				items = append(items, fetchRange(ctx, day.start, day.end)...)
			}
		}
		all = append(all, items...)
	}
	return all
}

// dedupe removes records whose key was already seen, preserving order.
// Records with an empty key are kept unconditionally.
func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if k != "" {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}

// callHost performs one host call, converting failure into an empty result.
func callHost(ctx context.Context, host Host, logger *zap.Logger, endpoint string, paginate bool) (json.RawMessage, bool) {
	body, err := host.Call(ctx, endpoint, paginate)
	if err != nil {
		logger.Warn("host call failed, continuing with empty result",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, false
	}
	return body, true
}

// searchEndpoint builds a /search/{scope} endpoint for the given query terms.
func searchEndpoint(scope string, terms ...string) string {
	q := url.Values{}
	q.Set("q", strings.Join(terms, " "))
	q.Set("per_page", "100")
	return fmt.Sprintf("/search/%s?%s", scope, q.Encode())
}

// repoFromURL extracts "owner/name" from an API repository URL.
func repoFromURL(repositoryURL string) string {
	const marker = "/repos/"
	if i := strings.Index(repositoryURL, marker); i >= 0 {
		return repositoryURL[i+len(marker):]
	}
	return repositoryURL
}

type searchResult struct {
	TotalCount int               `json:"total_count"`
	Items      []json.RawMessage `json:"items"`
}
