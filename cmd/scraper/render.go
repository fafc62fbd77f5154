package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/startup-roles/backend/internal/cleanup"
	"github.com/startup-roles/backend/internal/domain"
	"github.com/startup-roles/backend/internal/scraper"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderSummary(w io.Writer, run *domain.ScrapeRun) {
	s := run.Summary
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Run %s (%s)", run.ID, run.Status))
	t.AppendHeader(table.Row{"Source", "Status", "Extracted", "New roles", "Existing", "New links", "Updated links", "Skipped", "Time"})
	for _, src := range s.Sources {
		status := text.FgGreen.Sprint("ok")
		if !src.Success {
			status = text.FgRed.Sprint("failed")
		}
		t.AppendRow(table.Row{
			src.Name, status, src.Extracted, src.NewRoles, src.ExistingRoles,
			src.NewSources, src.UpdatedSources, src.PersistFailures, src.Duration.Round(100 * time.Millisecond),
		})
	}
	t.AppendFooter(table.Row{
		"Total", fmt.Sprintf("%d ok / %d failed", s.SuccessCount, s.FailureCount), s.TotalJobs,
		"", "", "", "", "", s.Duration().Round(time.Second),
	})
	t.Render()

	for _, src := range s.Sources {
		if src.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", src.Name, src.Error)
		}
	}
	if run.Error != "" {
		fmt.Fprintf(w, "run aborted: %s\n", run.Error)
	}
}

func renderCleanup(w io.Writer, report *cleanup.Report) {
	verb := "deactivated"
	if report.DryRun {
		verb = "would deactivate"
	}
	if len(report.Rejected) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Company", "Title", "Failed check", "Link", "Error"})
		for _, r := range report.Rejected {
			t.AppendRow(table.Row{r.CompanyName, r.RoleTitle, r.Check, r.Link, r.Err})
		}
		t.Render()
	}
	fmt.Fprintf(w, "Checked %d, kept %d, %s %d, failed %d\n",
		report.Checked, report.Kept, verb, report.Deactivated, report.Failed)
}

func renderSources(w io.Writer, extractors []scraper.Extractor, enabled map[string]bool) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "Source", "Mode", "Enabled", "URL"})
	for i, e := range extractors {
		target := e.Target()
		t.AppendRow(table.Row{i + 1, e.Name(), e.Source(), target.Mode, enabled[e.Name()], target.URL})
	}
	t.Render()
}
