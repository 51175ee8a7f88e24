package report

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/domain"
)

// WriteMarkdown renders the report as Markdown and returns the file path.
func (w *Writer) WriteMarkdown(r *Report, period domain.Period) (string, error) {
	path, err := w.reportPath(r, period, "md")
	if err != nil {
		return "", err
	}
	content := w.renderMarkdown(r)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	w.logger.Info("wrote markdown report", zap.String("path", path))
	return path, nil
}

func (w *Writer) renderMarkdown(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# GitHub Activity Report: %s (%s)\n\n", r.Metadata.Username, r.Metadata.Period)
	fmt.Fprintf(&b, "Period: %s to %s  \n", r.Metadata.StartDate, r.Metadata.EndDate)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.Metadata.GeneratedAt)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Commits | %d |\n", r.Summary.TotalCommits)
	fmt.Fprintf(&b, "| Pull requests | %d |\n", r.Summary.TotalPRs)
	fmt.Fprintf(&b, "| PRs merged | %d |\n", r.Summary.TotalPRsMerged)
	fmt.Fprintf(&b, "| PRs reviewed | %d |\n", r.Summary.TotalPRsReviewed)
	fmt.Fprintf(&b, "| Issues | %d |\n", r.Summary.TotalIssues)
	fmt.Fprintf(&b, "| Reviews | %d |\n", r.Summary.TotalReviews)
	fmt.Fprintf(&b, "| Comments | %d |\n", r.Summary.TotalComments)
	fmt.Fprintf(&b, "| Repositories | %d |\n", r.Summary.TotalRepositories)
	if r.Summary.MostActiveDay != "" {
		fmt.Fprintf(&b, "| Most active day | %s |\n", r.Summary.MostActiveDay)
	}
	if r.Summary.MostActiveRepo != "" {
		fmt.Fprintf(&b, "| Most active repository | %s |\n", r.Summary.MostActiveRepo)
	}
	b.WriteString("\n")

	if len(r.Activity.Repositories) > 0 {
		b.WriteString("## Repositories\n\n")
		for _, repo := range r.Activity.Repositories {
			fmt.Fprintf(&b, "- %s\n", repo)
		}
		b.WriteString("\n")
	}

	w.renderCommits(&b, r.Activity.Commits)
	w.renderPRs(&b, r.Activity.PRs)
	w.renderIssues(&b, r.Activity.Issues)
	w.renderReviews(&b, r.Activity.Reviews)

	if r.Metrics != nil {
		w.renderMetrics(&b, r)
	}
	return b.String()
}

func (w *Writer) renderCommits(b *strings.Builder, commits []domain.Commit) {
	if len(commits) == 0 {
		return
	}
	fmt.Fprintf(b, "## Commits (%d)\n\n", len(commits))
	byRepo := make(map[string][]domain.Commit)
	var repos []string
	for _, c := range commits {
		if _, ok := byRepo[c.Repository]; !ok {
			repos = append(repos, c.Repository)
		}
		byRepo[c.Repository] = append(byRepo[c.Repository], c)
	}
	sort.Strings(repos)
	for _, repo := range repos {
		fmt.Fprintf(b, "### %s\n\n", repo)
		for _, c := range byRepo[repo] {
			msg := w.formatMessage(c.Message)
			if w.includeLinks && c.URL != "" {
				fmt.Fprintf(b, "- [%s](%s) %s\n", shortSHA(c.SHA), c.URL, msg)
			} else {
				fmt.Fprintf(b, "- %s %s\n", shortSHA(c.SHA), msg)
			}
		}
		b.WriteString("\n")
	}
}

func (w *Writer) renderPRs(b *strings.Builder, prs []domain.PullRequest) {
	if len(prs) == 0 {
		return
	}
	fmt.Fprintf(b, "## Pull Requests (%d)\n\n", len(prs))
	for _, pr := range prs {
		state := pr.State
		if pr.MergedAt != "" {
			state = "merged"
		}
		title := pr.Title
		if w.includeLinks && pr.URL != "" {
			title = fmt.Sprintf("[%s](%s)", pr.Title, pr.URL)
		}
		fmt.Fprintf(b, "- %s#%d %s (%s)\n", pr.Repository, pr.Number, title, state)
	}
	b.WriteString("\n")
}

func (w *Writer) renderIssues(b *strings.Builder, issues []domain.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "## Issues (%d)\n\n", len(issues))
	for _, i := range issues {
		title := i.Title
		if w.includeLinks && i.URL != "" {
			title = fmt.Sprintf("[%s](%s)", i.Title, i.URL)
		}
		fmt.Fprintf(b, "- %s#%d %s (%s)\n", i.Repository, i.Number, title, i.State)
	}
	b.WriteString("\n")
}

func (w *Writer) renderReviews(b *strings.Builder, reviews []domain.Review) {
	if len(reviews) == 0 {
		return
	}
	fmt.Fprintf(b, "## Reviews (%d)\n\n", len(reviews))
	for _, r := range reviews {
		fmt.Fprintf(b, "- %s#%d %s\n", r.Repository, r.PRNumber, strings.ToLower(r.State))
	}
	b.WriteString("\n")
}

func (w *Writer) renderMetrics(b *strings.Builder, r *Report) {
	b.WriteString("## Metrics\n\n")
	if m := r.Metrics.PRs; m != nil {
		b.WriteString("### Pull Requests\n\n")
		fmt.Fprintf(b, "- Average commits per PR: %.2f\n", m.AvgCommitsPerPR)
		fmt.Fprintf(b, "- Average time to merge: %.2f h\n", m.AvgTimeToMergeHours)
		fmt.Fprintf(b, "- Average time to first review: %.2f h\n", m.AvgTimeToFirstReviewHours)
		fmt.Fprintf(b, "- Average review iterations: %.2f\n", m.AvgReviewIterations)
		fmt.Fprintf(b, "- PRs with requested changes: %d\n", m.PRsWithRequestedChanges)
		fmt.Fprintf(b, "- PRs merged without changes: %d\n\n", m.PRsMergedWithoutChanges)
	}
	if m := r.Metrics.Reviews; m != nil {
		b.WriteString("### Reviews Given\n\n")
		fmt.Fprintf(b, "- Total: %d (approvals %d, changes requested %d)\n", m.TotalReviews, m.Approvals, m.ChangesRequested)
		fmt.Fprintf(b, "- Reviews with comments: %d\n", m.ReviewsWithComments)
		fmt.Fprintf(b, "- Average turnaround: %.2f h\n\n", m.AvgTurnaroundHours)
	}
	if m := r.Metrics.Engagement; m != nil {
		b.WriteString("### Engagement\n\n")
		fmt.Fprintf(b, "- Comments: %d\n", m.TotalComments)
		fmt.Fprintf(b, "- Comment-to-code ratio: %.2f\n", m.CommentToCodeRatio)
		fmt.Fprintf(b, "- Average response time: %.2f h\n", m.AvgResponseTimeHours)
		fmt.Fprintf(b, "- Collaboration score: %.2f\n\n", m.CollaborationScore)
	}
	if m := r.Metrics.Productivity; m != nil {
		b.WriteString("### Productivity\n\n")
		if m.MostActiveDayName != "" {
			fmt.Fprintf(b, "- Most active day of week: %s\n", m.MostActiveDayName)
		}
		if m.MostActiveHour != "" {
			fmt.Fprintf(b, "- Most active hour: %s:00\n", m.MostActiveHour)
		}
		b.WriteString("\n")
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
