package report

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/domain"
)

// WriteJSON renders the report as JSON and returns the file path.
func (w *Writer) WriteJSON(r *Report, period domain.Period) (string, error) {
	path, err := w.reportPath(r, period, "json")
	if err != nil {
		return "", err
	}

	out := *r
	if !w.includeLinks || w.messageFormat != "full" {
		out.Activity = w.transformActivity(r.Activity)
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	w.logger.Info("wrote json report", zap.String("path", path))
	return path, nil
}

// transformActivity applies link stripping and commit message formatting on
// a copy, leaving the aggregated data untouched.
func (w *Writer) transformActivity(a *aggregator.Data) *aggregator.Data {
	out := *a
	out.Commits = make([]domain.Commit, len(a.Commits))
	copy(out.Commits, a.Commits)
	for i := range out.Commits {
		out.Commits[i].Message = w.formatMessage(out.Commits[i].Message)
	}
	if w.includeLinks {
		return &out
	}

	for i := range out.Commits {
		out.Commits[i].URL = ""
	}
	out.PRs = make([]domain.PullRequest, len(a.PRs))
	copy(out.PRs, a.PRs)
	for i := range out.PRs {
		out.PRs[i].URL = ""
	}
	out.Issues = make([]domain.Issue, len(a.Issues))
	copy(out.Issues, a.Issues)
	for i := range out.Issues {
		out.Issues[i].URL = ""
	}
	out.Comments = make([]domain.Comment, len(a.Comments))
	copy(out.Comments, a.Comments)
	for i := range out.Comments {
		out.Comments[i].URL = ""
	}
	return &out
}
