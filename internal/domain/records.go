// Package domain defines the activity records that flow through the fetch,
// aggregation and metrics stages. Timestamps are kept as the ISO-8601 strings
// delivered by the API; an empty string means the field was absent.
package domain

import "fmt"

// Commit is a single commit authored by the target user.
type Commit struct {
	SHA        string `json:"sha"`
	Message    string `json:"message"`
	Repository string `json:"repository"`
	Date       string `json:"date"`
	AuthorDate string `json:"author_date,omitempty"`
	URL        string `json:"url,omitempty"`
	// FromPR marks commits recovered from an unmerged pull request branch
	// rather than from commit search.
	FromPR bool `json:"from_pr,omitempty"`
}

// PullRequest is a pull request authored by the target user.
type PullRequest struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	State      string `json:"state"`
	Repository string `json:"repository"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	MergedAt   string `json:"merged_at,omitempty"`
	ClosedAt   string `json:"closed_at,omitempty"`
	URL        string `json:"url,omitempty"`

	// Filled by detail enrichment; zero when the detail call failed.
	CommitsCount int `json:"commits_count,omitempty"`
	Additions    int `json:"additions,omitempty"`
	Deletions    int `json:"deletions,omitempty"`

	// HasPeriodActivity marks PRs created outside the report period that
	// nevertheless saw reviews, comments or commits inside it.
	HasPeriodActivity bool `json:"has_period_activity,omitempty"`
}

// Key identifies a pull request across fetch sources.
func (p PullRequest) Key() string {
	return fmt.Sprintf("%s#%d", p.Repository, p.Number)
}

// Issue is an issue authored by the target user.
type Issue struct {
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	State      string   `json:"state"`
	Repository string   `json:"repository"`
	CreatedAt  string   `json:"created_at"`
	ClosedAt   string   `json:"closed_at,omitempty"`
	URL        string   `json:"url,omitempty"`
	Labels     []string `json:"labels,omitempty"`
}

// Review is a pull request review.
type Review struct {
	ID          int64  `json:"id"`
	PRNumber    int    `json:"pr_number"`
	Repository  string `json:"repository"`
	State       string `json:"state"`
	SubmittedAt string `json:"submitted_at"`
	BodyLength  int    `json:"body_length,omitempty"`
	User        string `json:"user"`
	// RequestedAt is the fallback anchor for turnaround when the owning PR
	// is not in the lookup set.
	RequestedAt string `json:"requested_at,omitempty"`
}

// PRKey identifies the pull request a review belongs to.
func (r Review) PRKey() string {
	return fmt.Sprintf("%s#%d", r.Repository, r.PRNumber)
}

// Comment is an issue comment or a pull request review comment.
type Comment struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Body        string `json:"body,omitempty"`
	BodyLength  int    `json:"body_length,omitempty"`
	Repository  string `json:"repository"`
	IssueNumber int    `json:"issue_number,omitempty"`
	PRNumber    int    `json:"pr_number,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	URL         string `json:"url,omitempty"`
	Path        string `json:"path,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// ThreadKey groups comments belonging to one conversation. Review comments
// carry no issue number, so the PR number stands in for it.
func (c Comment) ThreadKey() string {
	n := c.IssueNumber
	if n == 0 {
		n = c.PRNumber
	}
	return fmt.Sprintf("%s#%d", c.Repository, n)
}

// Event is a raw entry from the user's public event feed.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Repo      string `json:"repo"`
	CreatedAt string `json:"created_at"`
}

// Reaction is an emoji reaction left by the target user. The pipeline does
// not fetch reactions today; the type exists for the engagement breakdown.
type Reaction struct {
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}
