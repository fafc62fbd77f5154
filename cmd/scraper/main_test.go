package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startup-roles/backend/internal/cleanup"
	"github.com/startup-roles/backend/internal/domain"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"run", "cleanup", "schedule", "migrate", "sources"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.NotNil(t, down.Flags().Lookup("steps"))

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	for _, flag := range []string{"sources", "api", "no-browser"} {
		assert.NotNil(t, run.Flags().Lookup(flag), flag)
	}
}

func TestSourcesCommand(t *testing.T) {
	t.Setenv("SCRAPE_SOURCES", "ycombinator")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sources"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Y Combinator")
	assert.Contains(t, out.String(), "https://www.ycombinator.com/jobs")
	assert.Contains(t, out.String(), "Wellfound")
}

func TestCleanupCommandInMemory(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cleanup", "--dry-run", "--store", "memory"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Checked 0, kept 0, would deactivate 0, failed 0")
}

func TestRunCommandRejectsUnknownSource(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--store", "memory", "--sources", "myspace"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "no extractor matches")
}

func TestRunWithoutBrowserNeedsAStaticSource(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--store", "memory", "--sources", "wellfound", "--no-browser"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "needs headless Chrome")
}

func TestRenderSummary(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	run := &domain.ScrapeRun{
		ID:     uuid.New(),
		Status: domain.RunStatusCompleted,
		Summary: &domain.RunSummary{
			TotalJobs: 5, SuccessCount: 1, FailureCount: 1,
			StartedAt: start, FinishedAt: start.Add(3 * time.Minute),
			Sources: []domain.SourceSummary{
				{Name: "Y Combinator", Success: true, Extracted: 5, NewRoles: 4, ExistingRoles: 1, NewSources: 5},
				{Name: "Wellfound", Success: false, Error: "navigation timeout"},
			},
		},
	}

	var out bytes.Buffer
	renderSummary(&out, run)
	assert.Contains(t, out.String(), "Y Combinator")
	assert.Contains(t, out.String(), "1 ok / 1 failed")
	assert.Contains(t, out.String(), "Wellfound: navigation timeout")
}

func TestRenderCleanup(t *testing.T) {
	var out bytes.Buffer
	renderCleanup(&out, &cleanup.Report{
		Checked: 2, Kept: 1, Deactivated: 1,
		Rejected: []cleanup.Rejected{{CompanyName: "Acme", RoleTitle: "Sign up for job alerts", Check: "title_blocklist"}},
	})
	assert.Contains(t, out.String(), "title_blocklist")
	assert.Contains(t, out.String(), "Checked 2, kept 1, deactivated 1, failed 0")
}
