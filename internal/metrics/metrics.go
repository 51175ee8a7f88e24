// Package metrics computes the optional metric groups of a report. Each
// group is an independent pure calculation over aggregated activity, gated
// by its config flag. A disabled group, or one whose primary input is empty,
// renders as nil and is omitted from the report.
package metrics

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/timeutil"
)

// maxResponseGapHours caps thread response gaps; anything longer is treated
// as a new conversation, not a response.
const maxResponseGapHours = 168

// PRMetrics covers the user's authored pull requests.
type PRMetrics struct {
	AvgCommitsPerPR           float64 `json:"avg_commits_per_pr"`
	AvgTimeToMergeHours       float64 `json:"avg_time_to_merge_hours"`
	AvgTimeToFirstReviewHours float64 `json:"avg_time_to_first_review_hours"`
	AvgReviewIterations       float64 `json:"avg_review_iterations"`
	PRsWithRequestedChanges   int     `json:"prs_with_requested_changes"`
	PRsMergedWithoutChanges   int     `json:"prs_merged_without_changes"`
}

// ReviewMetrics covers reviews the user gave.
type ReviewMetrics struct {
	TotalReviews        int     `json:"total_reviews"`
	Approvals           int     `json:"approvals"`
	ChangesRequested    int     `json:"changes_requested"`
	ReviewsWithComments int     `json:"reviews_with_comments"`
	AvgTurnaroundHours  float64 `json:"avg_turnaround_hours"`
	PRsReviewed         int     `json:"prs_reviewed"`
}

// EngagementMetrics covers discussion activity.
type EngagementMetrics struct {
	TotalComments        int     `json:"total_comments"`
	CommentToCodeRatio   float64 `json:"comment_to_code_ratio"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	CollaborationScore   float64 `json:"collaboration_score"`
}

// ProductivityPatterns buckets activity by weekday and hour of day.
type ProductivityPatterns struct {
	ByDayOfWeek       map[string]int `json:"productivity_by_day"`
	ByHour            map[string]int `json:"productivity_by_hour"`
	MostActiveDayName string         `json:"most_active_day_of_week,omitempty"`
	MostActiveHour    string         `json:"most_active_hour,omitempty"`
}

// ReactionBreakdown tallies reactions the user left, by emoji content.
type ReactionBreakdown struct {
	Total     int            `json:"total"`
	ByContent map[string]int `json:"by_content"`
}

// Result bundles whichever groups were computed.
type Result struct {
	PRs          *PRMetrics            `json:"pr_metrics,omitempty"`
	Reviews      *ReviewMetrics        `json:"review_metrics,omitempty"`
	Engagement   *EngagementMetrics    `json:"engagement,omitempty"`
	Productivity *ProductivityPatterns `json:"productivity_patterns,omitempty"`
	Reactions    *ReactionBreakdown    `json:"reaction_breakdown,omitempty"`
}

// Input carries everything the calculators need beyond the aggregated data.
type Input struct {
	Data *aggregator.Data
	// Events is the user's event feed for the period; it feeds the
	// productivity histograms.
	Events []domain.Event
	// ReviewsOnAuthoredPRs are reviews other people left on the user's PRs.
	ReviewsOnAuthoredPRs []domain.Review
	// ReviewedPRs are PRs the user reviewed; they anchor turnaround times.
	ReviewedPRs []domain.PullRequest
	// Reactions is a forward-looking input; the pipeline does not populate
	// it today.
	Reactions []domain.Reaction
}

// Calculator computes metric groups according to its configuration.
type Calculator struct {
	cfg    config.MetricsConfig
	logger *zap.Logger
}

func NewCalculator(cfg config.MetricsConfig, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{cfg: cfg, logger: logger}
}

// CalculateAll runs every enabled group.
func (c *Calculator) CalculateAll(in Input) *Result {
	r := &Result{}
	if c.cfg.PRMetricsEnabled {
		r.PRs = c.prMetrics(in.Data.PRs, in.ReviewsOnAuthoredPRs)
	}
	if c.cfg.ReviewMetricsEnabled {
		r.Reviews = c.reviewMetrics(in.Data.Reviews, in.ReviewedPRs)
	}
	if c.cfg.EngagementEnabled {
		r.Engagement = c.engagement(in.Data, in.Reactions)
	}
	if c.cfg.ProductivityEnabled {
		r.Productivity = c.productivity(in.Events)
	}
	if c.cfg.ReactionsEnabled {
		r.Reactions = c.reactionBreakdown(in.Reactions)
	}
	return r
}

func (c *Calculator) prMetrics(prs []domain.PullRequest, reviewsOnPRs []domain.Review) *PRMetrics {
	if len(prs) == 0 {
		return nil
	}
	m := &PRMetrics{}

	totalCommits := 0
	for _, pr := range prs {
		totalCommits += pr.CommitsCount
	}
	m.AvgCommitsPerPR = round2(float64(totalCommits) / float64(len(prs)))

	var mergeHours []float64
	for _, pr := range prs {
		if pr.MergedAt == "" {
			continue
		}
		created, err := timeutil.ParseTimestamp(pr.CreatedAt)
		if err != nil {
			continue
		}
		merged, err := timeutil.ParseTimestamp(pr.MergedAt)
		if err != nil {
			continue
		}
		mergeHours = append(mergeHours, timeutil.HoursBetween(created, merged))
	}
	m.AvgTimeToMergeHours = round2(mean(mergeHours))

	m.AvgTimeToFirstReviewHours = round2(c.avgTimeToFirstReview(prs, reviewsOnPRs))

	// Iterations: distinct reviewers per PR, averaged over every PR
	// including those that got no review at all.
	reviewersByPR := make(map[string]map[string]struct{})
	for _, rv := range reviewsOnPRs {
		k := rv.PRKey()
		if reviewersByPR[k] == nil {
			reviewersByPR[k] = make(map[string]struct{})
		}
		reviewersByPR[k][rv.User] = struct{}{}
	}
	totalReviewers := 0
	for _, users := range reviewersByPR {
		totalReviewers += len(users)
	}
	m.AvgReviewIterations = round2(float64(totalReviewers) / float64(len(prs)))

	if len(reviewsOnPRs) > 0 {
		changesRequested := make(map[string]bool)
		for _, rv := range reviewsOnPRs {
			if rv.State == "CHANGES_REQUESTED" {
				changesRequested[rv.PRKey()] = true
			}
		}
		for _, pr := range prs {
			if changesRequested[pr.Key()] {
				m.PRsWithRequestedChanges++
			} else if pr.MergedAt != "" {
				m.PRsMergedWithoutChanges++
			}
		}
	}
	return m
}

func (c *Calculator) avgTimeToFirstReview(prs []domain.PullRequest, reviewsOnPRs []domain.Review) float64 {
	earliest := make(map[string]string)
	for _, rv := range reviewsOnPRs {
		if rv.SubmittedAt == "" {
			continue
		}
		k := rv.PRKey()
		if cur, ok := earliest[k]; !ok || rv.SubmittedAt < cur {
			earliest[k] = rv.SubmittedAt
		}
	}
	var hours []float64
	for _, pr := range prs {
		first, ok := earliest[pr.Key()]
		if !ok {
			continue
		}
		created, err := timeutil.ParseTimestamp(pr.CreatedAt)
		if err != nil {
			continue
		}
		reviewed, err := timeutil.ParseTimestamp(first)
		if err != nil {
			continue
		}
		h := timeutil.HoursBetween(created, reviewed)
		if h < 0 {
			continue
		}
		hours = append(hours, h)
	}
	return mean(hours)
}

func (c *Calculator) reviewMetrics(reviews []domain.Review, reviewedPRs []domain.PullRequest) *ReviewMetrics {
	if len(reviews) == 0 {
		return nil
	}
	m := &ReviewMetrics{TotalReviews: len(reviews)}

	prCreated := make(map[string]string, len(reviewedPRs))
	for _, pr := range reviewedPRs {
		prCreated[pr.Key()] = pr.CreatedAt
	}

	prsSeen := make(map[string]struct{})
	var turnarounds []float64
	for _, rv := range reviews {
		prsSeen[rv.PRKey()] = struct{}{}
		switch rv.State {
		case "APPROVED":
			m.Approvals++
		case "CHANGES_REQUESTED":
			m.ChangesRequested++
		}
		if rv.BodyLength > 0 {
			m.ReviewsWithComments++
		}

		anchor := prCreated[rv.PRKey()]
		if anchor == "" {
			anchor = rv.RequestedAt
		}
		if anchor == "" || rv.SubmittedAt == "" {
			continue
		}
		from, err := timeutil.ParseTimestamp(anchor)
		if err != nil {
			continue
		}
		to, err := timeutil.ParseTimestamp(rv.SubmittedAt)
		if err != nil {
			continue
		}
		h := timeutil.HoursBetween(from, to)
		if h < 0 {
			continue
		}
		turnarounds = append(turnarounds, h)
	}
	m.PRsReviewed = len(prsSeen)
	m.AvgTurnaroundHours = round2(mean(turnarounds))
	return m
}

// engagement always computes when enabled; a silent period is itself a
// signal.
func (c *Calculator) engagement(d *aggregator.Data, reactions []domain.Reaction) *EngagementMetrics {
	m := &EngagementMetrics{TotalComments: len(d.Comments)}

	if len(d.Commits) > 0 {
		m.CommentToCodeRatio = round2(float64(len(d.Comments)) / float64(len(d.Commits)))
	}
	m.AvgResponseTimeHours = round2(avgResponseTime(d.Comments))
	m.CollaborationScore = round2(
		3.0*float64(len(d.Reviews)) +
			1.0*float64(len(d.Comments)) +
			0.5*float64(len(reactions)))
	return m
}

// avgResponseTime averages the gaps between the user's consecutive comments
// within one thread. Gaps outside [0, 168] hours are discarded.
func avgResponseTime(comments []domain.Comment) float64 {
	threads := make(map[string][]string)
	var order []string
	for _, c := range comments {
		k := c.ThreadKey()
		if _, ok := threads[k]; !ok {
			order = append(order, k)
		}
		threads[k] = append(threads[k], c.CreatedAt)
	}

	var gaps []float64
	for _, k := range order {
		ts := threads[k]
		for i := 1; i < len(ts); i++ {
			prev, err := timeutil.ParseTimestamp(ts[i-1])
			if err != nil {
				continue
			}
			cur, err := timeutil.ParseTimestamp(ts[i])
			if err != nil {
				continue
			}
			h := timeutil.HoursBetween(prev, cur)
			if h < 0 || h > maxResponseGapHours {
				continue
			}
			gaps = append(gaps, h)
		}
	}
	return mean(gaps)
}

// productivity buckets the event feed by weekday and hour; events are the
// one source covering every activity kind with a fetch timestamp.
func (c *Calculator) productivity(events []domain.Event) *ProductivityPatterns {
	byDay := make(map[string]int, 7)
	byHour := make(map[string]int, 24)

	dayOrder := newFirstSeen()
	hourOrder := newFirstSeen()

	for _, ev := range events {
		t, err := timeutil.ParseTimestamp(ev.CreatedAt)
		if err != nil {
			continue
		}
		day := t.Weekday().String()
		hour := strconv.Itoa(t.Hour())
		byDay[day]++
		byHour[hour]++
		dayOrder.note(day)
		hourOrder.note(hour)
	}

	if len(byDay) == 0 {
		return nil
	}
	return &ProductivityPatterns{
		ByDayOfWeek:       byDay,
		ByHour:            byHour,
		MostActiveDayName: dayOrder.maxIn(byDay),
		MostActiveHour:    hourOrder.maxIn(byHour),
	}
}

func (c *Calculator) reactionBreakdown(reactions []domain.Reaction) *ReactionBreakdown {
	if len(reactions) == 0 {
		return nil
	}
	m := &ReactionBreakdown{
		Total:     len(reactions),
		ByContent: make(map[string]int),
	}
	for _, r := range reactions {
		content := r.Content
		if content == "" {
			content = "unknown"
		}
		m.ByContent[content]++
	}
	return m
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// firstSeen tracks key insertion order so that tied maxima resolve to the
// key encountered first.
type firstSeen struct {
	order []string
	seen  map[string]struct{}
}

func newFirstSeen() *firstSeen {
	return &firstSeen{seen: make(map[string]struct{})}
}

func (f *firstSeen) note(key string) {
	if _, ok := f.seen[key]; ok {
		return
	}
	f.seen[key] = struct{}{}
	f.order = append(f.order, key)
}

func (f *firstSeen) maxIn(counts map[string]int) string {
	best := ""
	bestCount := 0
	for _, key := range f.order {
		if counts[key] > bestCount {
			best = key
			bestCount = counts[key]
		}
	}
	return best
}
