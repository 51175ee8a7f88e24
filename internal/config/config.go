// Package config loads tool settings from a YAML file, a .env file and
// environment variables. Precedence is CLI flag > environment > file >
// built-in default; the CLI layer applies its own flags on top of the
// Settings returned here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/kentaro0919/github-activity-report/internal/errors"
)

// Settings holds all tool configuration.
type Settings struct {
	Period       PeriodConfig       `yaml:"period"`
	User         UserConfig         `yaml:"user"`
	Repositories RepositoriesConfig `yaml:"repositories"`
	Fetching     FetchingConfig     `yaml:"fetching"`
	Cache        CacheConfig        `yaml:"cache"`
	Output       OutputConfig       `yaml:"output"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Server       ServerConfig       `yaml:"server"`

	// GitHubToken comes from the environment only, never from YAML.
	GitHubToken string `yaml:"-"`
}

// PeriodConfig selects the default report period when no CLI flag is given.
type PeriodConfig struct {
	Type  string `yaml:"type"`  // "monthly" or "quarterly"
	Value string `yaml:"value"` // "2024-12", "2024-Q4" or "current"
}

// UserConfig names the user to report on.
type UserConfig struct {
	Username string `yaml:"username"`
}

// RepositoriesConfig filters which repositories contribute to the report.
type RepositoriesConfig struct {
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	IncludePrivate bool     `yaml:"include_private"`
	IncludeForks   bool     `yaml:"include_forks"`
}

// FetchingConfig tunes the host client and the adaptive fetch strategy.
// Delays are in seconds.
type FetchingConfig struct {
	HighActivityThreshold int     `yaml:"high_activity_threshold"`
	RequestDelay          float64 `yaml:"request_delay"`
	MaxRetries            int     `yaml:"max_retries"`
	BackoffBase           float64 `yaml:"backoff_base"`
	Timeout               int     `yaml:"timeout"`
}

// RequestDelayDuration returns the minimum delay between host calls.
func (f FetchingConfig) RequestDelayDuration() time.Duration {
	return time.Duration(f.RequestDelay * float64(time.Second))
}

// TimeoutDuration returns the per-request timeout.
func (f FetchingConfig) TimeoutDuration() time.Duration {
	return time.Duration(f.Timeout) * time.Second
}

// CacheConfig controls the on-disk response cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	TTLHours int    `yaml:"ttl_hours"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Directory           string   `yaml:"directory"`
	Formats             []string `yaml:"formats"`
	IncludeLinks        bool     `yaml:"include_links"`
	CommitMessageFormat string   `yaml:"commit_message_format"` // full, first_line, truncated
}

// MetricsConfig enables or disables each metric group independently.
type MetricsConfig struct {
	PRMetricsEnabled     bool `yaml:"pr_metrics_enabled"`
	ReviewMetricsEnabled bool `yaml:"review_metrics_enabled"`
	EngagementEnabled    bool `yaml:"engagement_enabled"`
	ProductivityEnabled  bool `yaml:"productivity_enabled"`
	ReactionsEnabled     bool `yaml:"reactions_enabled"`
}

// ServerConfig configures the report server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Period: PeriodConfig{Type: "monthly", Value: "current"},
		Fetching: FetchingConfig{
			HighActivityThreshold: 100,
			RequestDelay:          1.0,
			MaxRetries:            3,
			BackoffBase:           2.0,
			Timeout:               30,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Path:     ".cache/github-activity.db",
			TTLHours: 24,
		},
		Output: OutputConfig{
			Directory:           "reports",
			Formats:             []string{"json", "markdown"},
			IncludeLinks:        true,
			CommitMessageFormat: "full",
		},
		Metrics: MetricsConfig{
			PRMetricsEnabled:     true,
			ReviewMetricsEnabled: true,
			EngagementEnabled:    true,
			ProductivityEnabled:  true,
			ReactionsEnabled:     true,
		},
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
	}
}

// Load reads settings from the given YAML path (skipped when empty or
// missing), then applies environment variable overrides. A .env file in the
// working directory is loaded first if present.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	s.applyEnv()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	s.GitHubToken = getEnv("GITHUB_TOKEN", s.GitHubToken)
	s.User.Username = getEnv("GITHUB_ACTIVITY_USER", s.User.Username)
	s.Output.Directory = getEnv("GITHUB_ACTIVITY_OUTPUT_DIR", s.Output.Directory)
	if v := os.Getenv("GITHUB_ACTIVITY_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Cache.Enabled = b
		}
	}
	if v := os.Getenv("GITHUB_ACTIVITY_SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			s.Server.Port = p
		}
	}
}

// Validate checks settings for values the pipeline cannot work with.
func (s *Settings) Validate() error {
	if s.Fetching.HighActivityThreshold <= 0 {
		return apperrors.NewConfigError("fetching.high_activity_threshold must be positive")
	}
	if s.Fetching.MaxRetries < 0 {
		return apperrors.NewConfigError("fetching.max_retries must not be negative")
	}
	if s.Fetching.BackoffBase < 1 {
		return apperrors.NewConfigError("fetching.backoff_base must be at least 1")
	}
	if s.Cache.Enabled && s.Cache.TTLHours <= 0 {
		return apperrors.NewConfigError("cache.ttl_hours must be positive when cache is enabled")
	}
	switch s.Output.CommitMessageFormat {
	case "", "full", "first_line", "truncated":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown output.commit_message_format %q", s.Output.CommitMessageFormat))
	}
	for _, f := range s.Output.Formats {
		if f != "json" && f != "markdown" {
			return apperrors.NewConfigError(fmt.Sprintf("unknown output format %q", f))
		}
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port %d", s.Server.Port))
	}
	return nil
}

// CacheTTL returns the configured cache entry lifetime.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.Cache.TTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
