// Package client is a Go client for the report server API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a running report server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ReportInfo mirrors the server's report listing entry.
type ReportInfo struct {
	Name     string    `json:"name"`
	Year     string    `json:"year"`
	Username string    `json:"username"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListReports returns the available reports, optionally filtered by user
// and year (empty strings mean no filter).
func (c *Client) ListReports(ctx context.Context, user, year string) ([]ReportInfo, error) {
	q := url.Values{}
	if user != "" {
		q.Set("user", user)
	}
	if year != "" {
		q.Set("year", year)
	}
	endpoint := c.baseURL + "/api/v1/reports"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list reports: unexpected status %d", resp.StatusCode)
	}
	var envelope struct {
		Data []ReportInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode report list: %w", err)
	}
	return envelope.Data, nil
}

// GetReport fetches the raw contents of one report file.
func (c *Client) GetReport(ctx context.Context, year, user, name string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/v1/reports/%s/%s/%s",
		c.baseURL, url.PathEscape(year), url.PathEscape(user), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("report %s/%s/%s not found", year, user, name)
	default:
		return nil, fmt.Errorf("get report: unexpected status %d", resp.StatusCode)
	}
}

// Health checks whether the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %d", resp.StatusCode)
	}
	return nil
}
