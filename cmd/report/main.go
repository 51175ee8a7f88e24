// Command report generates GitHub activity reports from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/cache"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/githubclient"
	"github.com/kentaro0919/github-activity-report/internal/orchestrator"
)

var (
	flagConfig    string
	flagUser      string
	flagPeriod    string
	flagMonth     int
	flagQuarter   int
	flagYear      int
	flagFormats   []string
	flagOutputDir string
	flagNoCache   bool
	flagDryRun    bool
	flagVerbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate GitHub activity reports",
		Long:  "Generates monthly or quarterly activity reports for a GitHub user from commits, pull requests, issues, reviews and comments.",
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report for one period",
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVarP(&flagUser, "user", "u", "", "GitHub username (default: config, then authenticated user)")
	generateCmd.Flags().StringVarP(&flagPeriod, "period", "p", "", "period label, e.g. 2024-12 or 2024-Q4")
	generateCmd.Flags().IntVar(&flagMonth, "month", 0, "report month (1-12)")
	generateCmd.Flags().IntVar(&flagQuarter, "quarter", 0, "report quarter (1-4)")
	generateCmd.Flags().IntVar(&flagYear, "year", 0, "report year (default: current)")
	generateCmd.Flags().StringSliceVarP(&flagFormats, "format", "f", nil, "output formats: json, markdown")
	generateCmd.Flags().StringVarP(&flagOutputDir, "output-dir", "o", "", "report output directory")
	generateCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "bypass the response cache")
	generateCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve the user and period without fetching")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		RunE:  runCachePurge,
	})

	rootCmd.AddCommand(generateCmd, cacheCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagOutputDir != "" {
		cfg.Output.Directory = flagOutputDir
	}
	if len(flagFormats) > 0 {
		cfg.Output.Formats = flagFormats
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	period, err := resolvePeriod(cfg)
	if err != nil {
		return err
	}
	if cfg.GitHubToken == "" && !flagDryRun {
		return fmt.Errorf("GITHUB_TOKEN is not set")
	}

	store, err := openCache(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	host := githubclient.New(cfg, store, logger)
	orch := orchestrator.New(cfg, host, logger)

	res, err := orch.Run(context.Background(), orchestrator.Options{
		Username: flagUser,
		Period:   period,
		DryRun:   flagDryRun,
	})
	if err != nil {
		return err
	}

	if flagDryRun {
		fmt.Printf("Would generate a %s report for %s (%s)\n",
			period.Type, res.Username, period.Label())
		return nil
	}

	printSummary(res)
	return nil
}

func openCache(cfg *config.Settings, logger *zap.Logger) (cache.Cache, error) {
	if !cfg.Cache.Enabled || flagNoCache {
		return cache.Noop{}, nil
	}
	store, err := cache.NewSQLiteCache(cfg.Cache.Path, cfg.CacheTTL(), logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

// resolvePeriod applies flag precedence: --period, then --month/--quarter
// (+ --year), then the config default.
func resolvePeriod(cfg *config.Settings) (domain.Period, error) {
	if flagPeriod != "" {
		return domain.ParsePeriod(flagPeriod)
	}
	year := flagYear
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	if flagMonth != 0 && flagQuarter != 0 {
		return domain.Period{}, fmt.Errorf("--month and --quarter are mutually exclusive")
	}
	if flagMonth != 0 {
		p := domain.Period{Year: year, Type: domain.PeriodMonthly, Value: flagMonth}
		_, _, err := p.Range()
		return p, err
	}
	if flagQuarter != 0 {
		p := domain.Period{Year: year, Type: domain.PeriodQuarterly, Value: flagQuarter}
		_, _, err := p.Range()
		return p, err
	}

	now := time.Now().UTC()
	switch cfg.Period.Value {
	case "", "current":
		if cfg.Period.Type == string(domain.PeriodQuarterly) {
			return domain.CurrentQuarter(now), nil
		}
		return domain.CurrentMonth(now), nil
	default:
		return domain.ParsePeriod(cfg.Period.Value)
	}
}

func printSummary(res *orchestrator.Result) {
	s := res.Report.Summary

	fmt.Printf("\nActivity report for %s (%s)\n\n", res.Username, res.Period.Label())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Commits", strconv.Itoa(s.TotalCommits)})
	table.Append([]string{"Pull requests", strconv.Itoa(s.TotalPRs)})
	table.Append([]string{"PRs merged", strconv.Itoa(s.TotalPRsMerged)})
	table.Append([]string{"PRs reviewed", strconv.Itoa(s.TotalPRsReviewed)})
	table.Append([]string{"Issues", strconv.Itoa(s.TotalIssues)})
	table.Append([]string{"Reviews", strconv.Itoa(s.TotalReviews)})
	table.Append([]string{"Comments", strconv.Itoa(s.TotalComments)})
	table.Append([]string{"Repositories", strconv.Itoa(s.TotalRepositories)})
	if s.MostActiveDay != "" {
		table.Append([]string{"Most active day", s.MostActiveDay})
	}
	if s.MostActiveRepo != "" {
		table.Append([]string{"Most active repo", s.MostActiveRepo})
	}
	table.Render()

	fmt.Println()
	for _, path := range res.Paths {
		fmt.Printf("Wrote %s\n", path)
	}
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	store, err := cache.NewSQLiteCache(cfg.Cache.Path, cfg.CacheTTL(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Purge()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired cache entries\n", n)
	return nil
}
