package metrics

import (
	"testing"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
)

func allEnabled() config.MetricsConfig {
	return config.MetricsConfig{
		PRMetricsEnabled:     true,
		ReviewMetricsEnabled: true,
		EngagementEnabled:    true,
		ProductivityEnabled:  true,
		ReactionsEnabled:     true,
	}
}

func emptyData() *aggregator.Data {
	return &aggregator.Data{
		Commits:  []domain.Commit{},
		PRs:      []domain.PullRequest{},
		Issues:   []domain.Issue{},
		Reviews:  []domain.Review{},
		Comments: []domain.Comment{},
	}
}

func TestDisabledGroupsAreNil(t *testing.T) {
	t.Parallel()

	c := NewCalculator(config.MetricsConfig{EngagementEnabled: true}, nil)
	d := emptyData()
	d.PRs = []domain.PullRequest{{Number: 1, CreatedAt: "2024-12-05T10:00:00Z"}}

	r := c.CalculateAll(Input{Data: d})
	if r.PRs != nil || r.Reviews != nil || r.Productivity != nil || r.Reactions != nil {
		t.Errorf("disabled groups should be nil: %+v", r)
	}
	if r.Engagement == nil {
		t.Error("engagement is enabled and should always compute")
	}
}

func TestEmptyPrimaryInputYieldsNil(t *testing.T) {
	t.Parallel()

	c := NewCalculator(allEnabled(), nil)
	r := c.CalculateAll(Input{Data: emptyData()})
	if r.PRs != nil {
		t.Error("pr_metrics should be nil without PRs")
	}
	if r.Reviews != nil {
		t.Error("review_metrics should be nil without reviews")
	}
	if r.Productivity != nil {
		t.Error("productivity should be nil without any activity")
	}
	if r.Reactions != nil {
		t.Error("reaction_breakdown should be nil without reactions")
	}
	if r.Engagement == nil {
		t.Fatal("engagement should compute over an empty period")
	}
	if r.Engagement.CollaborationScore != 0 || r.Engagement.CommentToCodeRatio != 0 {
		t.Errorf("empty engagement = %+v", r.Engagement)
	}
}

func TestAvgCommitsPerPR(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-01T10:00:00Z", CommitsCount: 3},
		{Number: 2, Repository: "org/r", CreatedAt: "2024-12-02T10:00:00Z", CommitsCount: 5},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.PRs.AvgCommitsPerPR != 4.0 {
		t.Errorf("avg_commits_per_pr = %v, want 4.0", r.PRs.AvgCommitsPerPR)
	}
}

func TestAvgTimeToMergeSkipsUnparseable(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z", MergedAt: "2024-12-02T00:00:00Z"},
		{Number: 2, Repository: "org/r", CreatedAt: "garbage", MergedAt: "2024-12-02T00:00:00Z"},
		{Number: 3, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z"}, // unmerged
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.PRs.AvgTimeToMergeHours != 24.0 {
		t.Errorf("avg_time_to_merge_hours = %v, want 24.0", r.PRs.AvgTimeToMergeHours)
	}
}

func TestTimeToFirstReviewUsesOthersEarliestReview(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z"},
	}
	reviews := []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 1, User: "alice", SubmittedAt: "2024-12-01T12:00:00Z"},
		{ID: 2, Repository: "org/r", PRNumber: 1, User: "bob", SubmittedAt: "2024-12-01T06:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, ReviewsOnAuthoredPRs: reviews})
	if r.PRs.AvgTimeToFirstReviewHours != 6.0 {
		t.Errorf("avg_time_to_first_review_hours = %v, want 6.0", r.PRs.AvgTimeToFirstReviewHours)
	}
}

func TestNegativeFirstReviewDiscarded(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-10T00:00:00Z"},
	}
	reviews := []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 1, User: "alice", SubmittedAt: "2024-12-01T00:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, ReviewsOnAuthoredPRs: reviews})
	if r.PRs.AvgTimeToFirstReviewHours != 0 {
		t.Errorf("negative review delay should be discarded, got %v", r.PRs.AvgTimeToFirstReviewHours)
	}
}

func TestReviewIterationsOverAllPRs(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z"},
		{Number: 2, Repository: "org/r", CreatedAt: "2024-12-02T00:00:00Z"},
	}
	reviews := []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 1, User: "alice", SubmittedAt: "2024-12-01T10:00:00Z"},
		{ID: 2, Repository: "org/r", PRNumber: 1, User: "alice", SubmittedAt: "2024-12-01T11:00:00Z"},
		{ID: 3, Repository: "org/r", PRNumber: 1, User: "bob", SubmittedAt: "2024-12-01T12:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, ReviewsOnAuthoredPRs: reviews})
	// 2 distinct reviewers over 2 PRs.
	if r.PRs.AvgReviewIterations != 1.0 {
		t.Errorf("avg_review_iterations = %v, want 1.0", r.PRs.AvgReviewIterations)
	}
}

func TestRequestedChangesSplit(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.PRs = []domain.PullRequest{
		{Number: 1, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z", MergedAt: "2024-12-03T00:00:00Z"},
		{Number: 2, Repository: "org/r", CreatedAt: "2024-12-02T00:00:00Z", MergedAt: "2024-12-04T00:00:00Z"},
		{Number: 3, Repository: "org/r", CreatedAt: "2024-12-05T00:00:00Z"},
	}
	reviews := []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 1, User: "alice", State: "CHANGES_REQUESTED", SubmittedAt: "2024-12-02T00:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, ReviewsOnAuthoredPRs: reviews})
	if r.PRs.PRsWithRequestedChanges != 1 {
		t.Errorf("prs_with_requested_changes = %d, want 1", r.PRs.PRsWithRequestedChanges)
	}
	// PR 2 merged without a changes-requested review even though it was
	// never reviewed at all.
	if r.PRs.PRsMergedWithoutChanges != 1 {
		t.Errorf("prs_merged_without_changes = %d, want 1", r.PRs.PRsMergedWithoutChanges)
	}
}

func TestReviewMetricsCountsAndTurnaround(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Reviews = []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 5, State: "APPROVED", SubmittedAt: "2024-12-02T00:00:00Z", BodyLength: 10},
		{ID: 2, Repository: "org/r", PRNumber: 6, State: "APPROVED", SubmittedAt: "2024-12-03T00:00:00Z", BodyLength: 5},
		{ID: 3, Repository: "org/r", PRNumber: 7, State: "CHANGES_REQUESTED", SubmittedAt: "2024-12-04T00:00:00Z", BodyLength: 20},
	}
	reviewedPRs := []domain.PullRequest{
		{Number: 5, Repository: "org/r", CreatedAt: "2024-12-01T00:00:00Z"},
		{Number: 6, Repository: "org/r", CreatedAt: "2024-12-02T00:00:00Z"},
		{Number: 7, Repository: "org/r", CreatedAt: "2024-12-03T00:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, ReviewedPRs: reviewedPRs})

	if r.Reviews.Approvals != 2 {
		t.Errorf("approvals = %d, want 2", r.Reviews.Approvals)
	}
	if r.Reviews.ChangesRequested != 1 {
		t.Errorf("changes_requested = %d, want 1", r.Reviews.ChangesRequested)
	}
	if r.Reviews.ReviewsWithComments != 3 {
		t.Errorf("reviews_with_comments = %d, want 3", r.Reviews.ReviewsWithComments)
	}
	if r.Reviews.PRsReviewed != 3 {
		t.Errorf("prs_reviewed = %d, want 3", r.Reviews.PRsReviewed)
	}
	// Each review came 24h after its PR was created.
	if r.Reviews.AvgTurnaroundHours != 24.0 {
		t.Errorf("avg_turnaround_hours = %v, want 24.0", r.Reviews.AvgTurnaroundHours)
	}
}

func TestTurnaroundFallsBackToRequestedAt(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Reviews = []domain.Review{
		{ID: 1, Repository: "org/r", PRNumber: 5, State: "APPROVED",
			SubmittedAt: "2024-12-02T12:00:00Z", RequestedAt: "2024-12-02T00:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.Reviews.AvgTurnaroundHours != 12.0 {
		t.Errorf("avg_turnaround_hours = %v, want 12.0 via requested_at", r.Reviews.AvgTurnaroundHours)
	}
}

func TestCollaborationScore(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Reviews = make([]domain.Review, 2)
	d.Comments = make([]domain.Comment, 3)
	reactions := make([]domain.Reaction, 4)

	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d, Reactions: reactions})
	// 3.0*2 + 1.0*3 + 0.5*4 = 11.0
	if r.Engagement.CollaborationScore != 11.0 {
		t.Errorf("collaboration_score = %v, want 11.0", r.Engagement.CollaborationScore)
	}
}

func TestCommentToCodeRatioGuard(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Comments = make([]domain.Comment, 5)
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.Engagement.CommentToCodeRatio != 0 {
		t.Errorf("ratio without commits = %v, want 0", r.Engagement.CommentToCodeRatio)
	}

	d.Commits = make([]domain.Commit, 2)
	r = NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.Engagement.CommentToCodeRatio != 2.5 {
		t.Errorf("ratio = %v, want 2.5", r.Engagement.CommentToCodeRatio)
	}
}

func TestAvgResponseTimeWindow(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Comments = []domain.Comment{
		// One thread: gaps of 2h and 200h; only the 2h gap qualifies.
		{ID: 1, Repository: "org/r", IssueNumber: 1, CreatedAt: "2024-12-01T00:00:00Z"},
		{ID: 2, Repository: "org/r", IssueNumber: 1, CreatedAt: "2024-12-01T02:00:00Z"},
		{ID: 3, Repository: "org/r", IssueNumber: 1, CreatedAt: "2024-12-09T10:00:00Z"},
		// Separate thread with a single comment contributes no gap.
		{ID: 4, Repository: "org/r", IssueNumber: 2, CreatedAt: "2024-12-05T00:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.Engagement.AvgResponseTimeHours != 2.0 {
		t.Errorf("avg_response_time_hours = %v, want 2.0", r.Engagement.AvgResponseTimeHours)
	}
}

func TestProductivityBucketsEvents(t *testing.T) {
	t.Parallel()

	// 2024-12-16 is a Monday.
	events := []domain.Event{
		{ID: "1", Type: "PushEvent", CreatedAt: "2024-12-16T09:00:00Z"},
		{ID: "2", Type: "PullRequestEvent", CreatedAt: "2024-12-16T09:30:00Z"},
		{ID: "3", Type: "IssuesEvent", CreatedAt: "2024-12-17T14:00:00Z"},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: emptyData(), Events: events})

	if r.Productivity.ByDayOfWeek["Monday"] != 2 {
		t.Errorf("Monday = %d, want 2", r.Productivity.ByDayOfWeek["Monday"])
	}
	if r.Productivity.ByHour["9"] != 2 {
		t.Errorf("hour 9 = %d, want 2", r.Productivity.ByHour["9"])
	}
	if r.Productivity.MostActiveDayName != "Monday" {
		t.Errorf("most_active_day_of_week = %q, want Monday", r.Productivity.MostActiveDayName)
	}
	if r.Productivity.MostActiveHour != "9" {
		t.Errorf("most_active_hour = %q, want 9", r.Productivity.MostActiveHour)
	}
}

func TestProductivityTieKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	events := []domain.Event{
		{ID: "1", Type: "PushEvent", CreatedAt: "2024-12-16T09:00:00Z"}, // Monday
		{ID: "2", Type: "PushEvent", CreatedAt: "2024-12-17T10:00:00Z"}, // Tuesday
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: emptyData(), Events: events})
	if r.Productivity.MostActiveDayName != "Monday" {
		t.Errorf("tie should keep first-seen day, got %q", r.Productivity.MostActiveDayName)
	}
	if r.Productivity.MostActiveHour != "9" {
		t.Errorf("tie should keep first-seen hour, got %q", r.Productivity.MostActiveHour)
	}
}

// Aggregated records alone never feed the histograms; only the event feed
// does.
func TestProductivityNilWithoutEvents(t *testing.T) {
	t.Parallel()

	d := emptyData()
	d.Commits = []domain.Commit{{SHA: "a", Date: "2024-12-16T09:00:00Z"}}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: d})
	if r.Productivity != nil {
		t.Errorf("productivity without events = %+v, want nil", r.Productivity)
	}
}

func TestReactionBreakdown(t *testing.T) {
	t.Parallel()

	reactions := []domain.Reaction{
		{Content: "+1"},
		{Content: "+1"},
		{Content: "heart"},
		{Content: ""},
	}
	r := NewCalculator(allEnabled(), nil).CalculateAll(Input{Data: emptyData(), Reactions: reactions})
	if r.Reactions.Total != 4 {
		t.Errorf("total = %d, want 4", r.Reactions.Total)
	}
	if r.Reactions.ByContent["+1"] != 2 || r.Reactions.ByContent["heart"] != 1 || r.Reactions.ByContent["unknown"] != 1 {
		t.Errorf("by_content = %v", r.Reactions.ByContent)
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	if got := round2(1.0 / 3.0); got != 0.33 {
		t.Errorf("round2(1/3) = %v, want 0.33", got)
	}
	if got := round2(4.0 / 3.0); got != 1.33 {
		t.Errorf("round2(4/3) = %v, want 1.33", got)
	}
}
