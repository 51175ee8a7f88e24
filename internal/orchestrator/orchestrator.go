// Package orchestrator drives a report run end to end: resolve the user and
// period, fetch every activity kind, reconcile the sources, aggregate,
// compute metrics and write the report files. Fetching is sequential; the
// host client's rate limiter paces the calls.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/fetcher"
	"github.com/kentaro0919/github-activity-report/internal/metrics"
	"github.com/kentaro0919/github-activity-report/internal/repofilter"
	"github.com/kentaro0919/github-activity-report/internal/report"
)

// Host is what the orchestrator needs from the API client.
type Host interface {
	fetcher.Host
	CurrentUser(ctx context.Context) (string, error)
}

// Options configures one run.
type Options struct {
	// Username overrides config and auto-detection when non-empty.
	Username string
	Period   domain.Period
	// DryRun resolves the user and period and reports the plan without
	// touching the host's data endpoints.
	DryRun bool
}

// Result is the outcome of a run.
type Result struct {
	Report   *report.Report
	Paths    []string
	Username string
	Period   domain.Period
}

// Orchestrator owns the pipeline.
type Orchestrator struct {
	cfg    *config.Settings
	host   Host
	logger *zap.Logger
	now    func() time.Time
}

func New(cfg *config.Settings, host Host, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, host: host, logger: logger, now: time.Now}
}

// Run executes the pipeline and returns the written report.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	username, err := o.resolveUsername(ctx, opts.Username)
	if err != nil {
		return nil, err
	}
	start, end, err := opts.Period.Range()
	if err != nil {
		return nil, err
	}

	o.logger.Info("starting report run",
		zap.String("username", username),
		zap.String("period", opts.Period.Label()),
		zap.Bool("dry_run", opts.DryRun))

	if opts.DryRun {
		return &Result{Username: username, Period: opts.Period}, nil
	}

	data, events, reviewsOnAuthored, reviewedPRs := o.fetchAll(ctx, username, start, end)

	agg := aggregator.New(username, start, end, o.logger)
	aggregated := agg.Aggregate(data)

	calc := metrics.NewCalculator(o.cfg.Metrics, o.logger)
	m := calc.CalculateAll(metrics.Input{
		Data:                 aggregated,
		Events:               events,
		ReviewsOnAuthoredPRs: reviewsOnAuthored,
		ReviewedPRs:          reviewedPRs,
	})

	rpt := report.Build(opts.Period, aggregated, m, o.now())

	writer := report.NewWriter(o.cfg.Output, o.logger)
	var paths []string
	for _, format := range o.cfg.Output.Formats {
		var path string
		var err error
		switch format {
		case "json":
			path, err = writer.WriteJSON(rpt, opts.Period)
		case "markdown":
			path, err = writer.WriteMarkdown(rpt, opts.Period)
		default:
			err = fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			return nil, fmt.Errorf("write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}

	o.logger.Info("report run complete",
		zap.String("run_id", rpt.Metadata.RunID),
		zap.Strings("paths", paths))
	return &Result{Report: rpt, Paths: paths, Username: username, Period: opts.Period}, nil
}

// resolveUsername picks the report subject: explicit option, then config
// (already merged with the environment), then the authenticated user.
func (o *Orchestrator) resolveUsername(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if o.cfg.User.Username != "" {
		return o.cfg.User.Username, nil
	}
	username, err := o.host.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("detect authenticated user: %w", err)
	}
	o.logger.Info("auto-detected user", zap.String("username", username))
	return username, nil
}

// fetchAll pulls every activity kind and reconciles the overlapping
// sources. The order matters: PR commits depend on the enriched PR union,
// and comment merging gives API sources precedence over event payloads.
// Events travel past aggregation untouched; the productivity histograms
// are built from them.
func (o *Orchestrator) fetchAll(ctx context.Context, username string, start, end time.Time) (aggregator.Input, []domain.Event, []domain.Review, []domain.PullRequest) {
	threshold := o.cfg.Fetching.HighActivityThreshold

	eventF := fetcher.NewEventFetcher(o.host, username, o.logger)
	commitF := fetcher.NewCommitFetcher(o.host, username, threshold, o.logger)
	prF := fetcher.NewPRFetcher(o.host, username, threshold, o.logger)
	issueF := fetcher.NewIssueFetcher(o.host, username, threshold, o.logger)
	reviewF := fetcher.NewReviewFetcher(o.host, username, o.logger)
	commentF := fetcher.NewCommentFetcher(o.host, username, threshold, o.logger)

	events, eventComments := eventF.FetchPeriod(ctx, start, end)
	o.logger.Debug("event feed scanned", zap.Int("events", len(events)))

	searchCommits := commitF.FetchPeriod(ctx, start, end)

	prsCreated := prF.FetchPeriod(ctx, start, end)
	prsUpdated := prF.FetchUpdatedInPeriod(ctx, start, end)
	prsOpen := prF.FetchOpenWithActivity(ctx, start, end)
	prs := fetcher.UnionPRs(prsCreated, prsUpdated, prsOpen)
	prs = prF.EnrichDetails(ctx, prs)

	prCommits := prF.FetchCommitsFromPRs(ctx, prs, start, end)

	reviewedPRs := prF.FetchReviewedPRs(ctx, start, end)
	reviewTargets := fetcher.UnionPRs(prs, reviewedPRs)
	myReviews := reviewF.FetchForPRs(ctx, reviewTargets, start, end)
	reviewsOnAuthored := reviewF.FetchOnAuthoredPRs(ctx, prs)

	issues := issueF.FetchPeriod(ctx, start, end)

	apiComments := commentF.FetchPeriod(ctx, start, end)
	reviewComments := commentF.FetchReviewComments(ctx, reviewedPRs, start, end)
	comments := fetcher.MergeComments(apiComments, reviewComments, eventComments)

	commits := fetcher.MergeCommits(searchCommits, prCommits)

	filter := repofilter.New(o.cfg.Repositories, o.logger)
	in := aggregator.Input{
		Commits:  filter.Commits(commits),
		PRs:      filter.PRs(prs),
		Issues:   filter.Issues(issues),
		Reviews:  filter.Reviews(myReviews),
		Comments: filter.Comments(comments),
	}
	return in, filter.Events(events), filter.Reviews(reviewsOnAuthored), filter.PRs(reviewedPRs)
}
