// Package githubclient wraps the GitHub REST API behind a small interface
// returning raw JSON. Responses are cached on disk, paced by a rate limiter
// and retried with exponential backoff.
package githubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v55/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kentaro0919/github-activity-report/internal/cache"
	"github.com/kentaro0919/github-activity-report/internal/config"
	apperrors "github.com/kentaro0919/github-activity-report/internal/errors"
)

// API is the host surface the fetchers depend on.
type API interface {
	// Call performs a GET against the given endpoint (path plus query) and
	// returns the raw JSON body. With paginate set, all pages are fetched
	// and merged into one document.
	Call(ctx context.Context, endpoint string, paginate bool) (json.RawMessage, error)
	// CurrentUser returns the login of the authenticated user.
	CurrentUser(ctx context.Context) (string, error)
	// CheckAuth verifies the configured token.
	CheckAuth(ctx context.Context) error
}

// Client implements API on top of go-github.
type Client struct {
	gh          *github.Client
	cache       cache.Cache
	limiter     *RateLimiter
	logger      *zap.Logger
	maxRetries  int
	backoffBase float64
}

// New builds a Client from settings. A nil cache disables caching.
func New(cfg *config.Settings, store cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.Noop{}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHubToken})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.Fetching.TimeoutDuration()

	return &Client{
		gh:          github.NewClient(httpClient),
		cache:       store,
		limiter:     NewRateLimiter(cfg.Fetching.RequestDelayDuration(), logger),
		logger:      logger,
		maxRetries:  cfg.Fetching.MaxRetries,
		backoffBase: cfg.Fetching.BackoffBase,
	}
}

// Call fetches an endpoint, serving from cache when possible.
func (c *Client) Call(ctx context.Context, endpoint string, paginate bool) (json.RawMessage, error) {
	cacheKey := endpoint
	if paginate {
		cacheKey += "|paginated"
	}
	if body, ok := c.cache.Get(cacheKey); ok {
		c.logger.Debug("cache hit", zap.String("endpoint", endpoint))
		return body, nil
	}

	var pages [][]byte
	pageURL := endpoint
	for {
		body, resp, err := c.getPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		pages = append(pages, body)
		if !paginate || resp.NextPage == 0 {
			break
		}
		next, err := withPage(endpoint, resp.NextPage)
		if err != nil {
			return nil, apperrors.NewInternalError("build pagination url", err)
		}
		pageURL = next
	}

	merged, err := mergePages(pages)
	if err != nil {
		return nil, apperrors.NewInternalError("merge response pages", err)
	}
	if err := c.cache.Set(cacheKey, merged); err != nil {
		c.logger.Warn("cache write failed", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return merged, nil
}

func (c *Client) getPage(ctx context.Context, endpoint string) ([]byte, *github.Response, error) {
	var body []byte
	var resp *github.Response

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := c.gh.NewRequest(http.MethodGet, strings.TrimPrefix(endpoint, "/"), nil)
		if err != nil {
			return apperrors.NewInternalError("build request", err)
		}
		var buf bytes.Buffer
		r, err := c.gh.Do(ctx, req, &buf)
		if r != nil {
			c.limiter.Update(r.Rate)
		}
		if err != nil {
			return classify(endpoint, err)
		}
		body = buf.Bytes()
		resp = r
		return nil
	}

	err := retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(time.Duration(c.backoffBase*float64(time.Second))),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(2*time.Minute),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying host call",
				zap.String("endpoint", endpoint),
				zap.Uint("attempt", n+1),
				zap.Error(err))
		}),
		retry.RetryIf(apperrors.IsHostCall),
	)
	if err != nil {
		return nil, nil, err
	}
	return body, resp, nil
}

// CurrentUser returns the authenticated user's login.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	user, resp, err := c.gh.Users.Get(ctx, "")
	if resp != nil {
		c.limiter.Update(resp.Rate)
	}
	if err != nil {
		return "", classify("/user", err)
	}
	return user.GetLogin(), nil
}

// CheckAuth verifies the token by looking up the authenticated user.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.CurrentUser(ctx)
	return err
}

func classify(endpoint string, err error) *apperrors.AppError {
	switch e := err.(type) {
	case *github.RateLimitError:
		return apperrors.NewRateLimitedError(fmt.Sprintf("rate limited on %s", endpoint), err)
	case *github.AbuseRateLimitError:
		return apperrors.NewRateLimitedError(fmt.Sprintf("secondary rate limit on %s", endpoint), err)
	case *github.ErrorResponse:
		if e.Response != nil {
			switch e.Response.StatusCode {
			case http.StatusUnauthorized:
				return apperrors.NewUnauthorizedError("token rejected", err)
			case http.StatusNotFound:
				return apperrors.NewNotFoundError(endpoint)
			case http.StatusForbidden, http.StatusTooManyRequests:
				return apperrors.NewRateLimitedError(fmt.Sprintf("forbidden on %s", endpoint), err)
			}
		}
	}
	return apperrors.NewHostCallError(fmt.Sprintf("call %s failed", endpoint), err)
}

// withPage rewrites the page query parameter of an endpoint.
func withPage(endpoint string, page int) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// mergePages combines successive response pages into one JSON document.
// Array responses are concatenated; search responses have their items
// concatenated under the first page's envelope.
func mergePages(pages [][]byte) (json.RawMessage, error) {
	if len(pages) == 0 {
		return json.RawMessage("[]"), nil
	}
	if len(pages) == 1 {
		return json.RawMessage(pages[0]), nil
	}

	first := bytes.TrimLeft(pages[0], " \t\r\n")
	if len(first) > 0 && first[0] == '[' {
		var all []json.RawMessage
		for _, p := range pages {
			var items []json.RawMessage
			if err := json.Unmarshal(p, &items); err != nil {
				return nil, err
			}
			all = append(all, items...)
		}
		return json.Marshal(all)
	}

	var envelope struct {
		TotalCount int               `json:"total_count"`
		Items      []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(pages[0], &envelope); err != nil {
		return nil, err
	}
	for _, p := range pages[1:] {
		var next struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(p, &next); err != nil {
			return nil, err
		}
		envelope.Items = append(envelope.Items, next.Items...)
	}
	return json.Marshal(map[string]any{
		"total_count":        envelope.TotalCount,
		"incomplete_results": false,
		"items":              envelope.Items,
	})
}
