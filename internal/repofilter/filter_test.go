package repofilter

import (
	"testing"

	"github.com/kentaro0919/github-activity-report/internal/config"
	"github.com/kentaro0919/github-activity-report/internal/domain"
)

func TestAllows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		include []string
		exclude []string
		repo    string
		want    bool
	}{
		{"no patterns admits all", nil, nil, "org/repo", true},
		{"exact include", []string{"org/repo"}, nil, "org/repo", true},
		{"include miss", []string{"org/repo"}, nil, "org/other", false},
		{"glob include", []string{"org/*"}, nil, "org/anything", true},
		{"glob include other owner", []string{"org/*"}, nil, "elsewhere/repo", false},
		{"exclude wins over include", []string{"org/*"}, []string{"org/secret"}, "org/secret", false},
		{"glob exclude", nil, []string{"*/fork-*"}, "org/fork-of-thing", false},
		{"empty repository kept", []string{"org/*"}, nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := New(config.RepositoriesConfig{Include: tt.include, Exclude: tt.exclude}, nil)
			if got := f.Allows(tt.repo); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.repo, got, tt.want)
			}
		})
	}
}

func TestFilterLists(t *testing.T) {
	t.Parallel()

	f := New(config.RepositoriesConfig{Exclude: []string{"org/noise"}}, nil)

	commits := f.Commits([]domain.Commit{
		{SHA: "a", Repository: "org/signal"},
		{SHA: "b", Repository: "org/noise"},
	})
	if len(commits) != 1 || commits[0].Repository != "org/signal" {
		t.Errorf("filtered commits = %+v", commits)
	}

	prs := f.PRs([]domain.PullRequest{
		{Number: 1, Repository: "org/noise"},
	})
	if len(prs) != 0 {
		t.Errorf("filtered prs = %+v", prs)
	}

	comments := f.Comments([]domain.Comment{
		{ID: 1, Repository: "org/signal"},
	})
	if len(comments) != 1 {
		t.Errorf("filtered comments = %+v", comments)
	}

	events := f.Events([]domain.Event{
		{ID: "1", Repo: "org/signal"},
		{ID: "2", Repo: "org/noise"},
	})
	if len(events) != 1 || events[0].Repo != "org/signal" {
		t.Errorf("filtered events = %+v", events)
	}
}
