// Package report renders aggregated activity into report files. Reports are
// written under {output_dir}/{year}/{username}/ with versioned filenames so
// regenerating a period never overwrites an earlier run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/aggregator"
	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
	"github.com/kentaro0919/github-activity-report/internal/metrics"
)

// SchemaVersion identifies the JSON report layout.
const SchemaVersion = "1.0"

// Metadata describes one report run.
type Metadata struct {
	GeneratedAt string `json:"generated_at"`
	RunID       string `json:"run_id"`
	Username    string `json:"username"`
	Period      string `json:"period"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// Report is the complete output of one run.
type Report struct {
	SchemaVersion string             `json:"schema_version"`
	Metadata      Metadata           `json:"metadata"`
	Summary       aggregator.Summary `json:"summary"`
	Activity      *aggregator.Data   `json:"activity"`
	Metrics       *metrics.Result    `json:"metrics,omitempty"`
}

// Build assembles a report from aggregated data and computed metrics.
func Build(period domain.Period, data *aggregator.Data, m *metrics.Result, now time.Time) *Report {
	return &Report{
		SchemaVersion: SchemaVersion,
		Metadata: Metadata{
			GeneratedAt: now.UTC().Format(time.RFC3339),
			RunID:       uuid.New().String(),
			Username:    data.Username,
			Period:      period.Label(),
			StartDate:   data.StartDate,
			EndDate:     data.EndDate,
		},
		Summary:  data.Summarize(),
		Activity: data,
		Metrics:  m,
	}
}

// Writer renders reports to disk.
type Writer struct {
	outputDir     string
	includeLinks  bool
	messageFormat string
	logger        *zap.Logger
}

func NewWriter(cfg config.OutputConfig, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	format := cfg.CommitMessageFormat
	if format == "" {
		format = "full"
	}
	return &Writer{
		outputDir:     cfg.Directory,
		includeLinks:  cfg.IncludeLinks,
		messageFormat: format,
		logger:        logger,
	}
}

// reportPath picks the first free versioned filename for a period.
func (w *Writer) reportPath(r *Report, period domain.Period, ext string) (string, error) {
	dir := filepath.Join(w.outputDir, fmt.Sprintf("%d", period.Year), r.Metadata.Username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s-github-activity-%d.%s", period.Label(), n, ext)
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
}

// formatMessage renders a commit message per the configured style.
func (w *Writer) formatMessage(msg string) string {
	switch w.messageFormat {
	case "first_line":
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			return msg[:i]
		}
		return msg
	case "truncated":
		line := msg
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		if len(line) > 72 {
			return line[:72] + "..."
		}
		return line
	default:
		return msg
	}
}
