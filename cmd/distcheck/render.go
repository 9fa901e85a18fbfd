// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"distcheck/internal/orchestrator"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// stageHeaders maps stage names to compact column headers.
var stageHeaders = map[string]string{
	orchestrator.StageExports:    "EXPORTS",
	orchestrator.StageMetadata:   "METADATA",
	orchestrator.StageSyntax:     "SYNTAX",
	orchestrator.StageSourcemaps: "MAPS",
	orchestrator.StageSize:       "SIZE",
	orchestrator.StageESMPurity:  "ESM",
}

// renderReport renders the run summary: one table row per package, a
// distribution-level baseline row, failure details, and the verdict.
func renderReport(r *orchestrator.Report, verbose bool) string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("Distribution check"))
	sb.WriteString("\n\n")
	sb.WriteString(renderSummaryTable(r))
	sb.WriteString("\n")

	if r.Baseline.Passed {
		sb.WriteString(SuccessStyle.Render("✓") + " baseline (distribution-wide)\n")
	} else {
		sb.WriteString(ErrorStyle.Render("✗") + " baseline (distribution-wide)\n")
	}

	if details := renderFailureDetails(r, verbose); details != "" {
		sb.WriteString("\n")
		sb.WriteString(details)
	}

	sb.WriteString("\n")
	if r.Passed() {
		sb.WriteString(SuccessStyle.Render("All packages passed."))
	} else {
		sb.WriteString(ErrorStyle.Render("Validation failed."))
	}
	return sb.String()
}

func renderSummaryTable(r *orchestrator.Report) string {
	headers := []string{"PACKAGE"}
	for _, stage := range orchestrator.PackageStages {
		headers = append(headers, stageHeaders[stage])
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)

	for _, pr := range r.Packages {
		row := []string{PkgStyle.Render(pr.Package.Name)}
		for _, stage := range orchestrator.PackageStages {
			row = append(row, renderCell(pr, stage))
		}
		t.Row(row...)
	}
	return t.String()
}

// renderCell picks the glyph for one stage result. The size column shows the
// measured compressed size instead of a glyph, amber when over budget.
func renderCell(pr *orchestrator.PackageReport, stage string) string {
	res := pr.Results[stage]
	if stage == orchestrator.StageSize {
		if pr.Metrics.GzipBytes == 0 && res.Detail != "" {
			return WarningStyle.Render("n/a")
		}
		cell := formatKB(pr.Metrics.GzipBytes)
		if res.Detail != "" {
			return WarningStyle.Render(cell + " !")
		}
		return cell
	}
	if res.Passed {
		return SuccessStyle.Render("✓")
	}
	return ErrorStyle.Render("✗")
}

// renderFailureDetails lists every failed stage with its diagnostic. Verbose
// mode includes size warnings as well.
func renderFailureDetails(r *orchestrator.Report, verbose bool) string {
	var sb strings.Builder
	for _, pr := range r.Packages {
		for _, stage := range orchestrator.PackageStages {
			res := pr.Results[stage]
			switch {
			case !res.Passed:
				sb.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					ErrorStyle.Render("✗"), PkgStyle.Render(pr.Package.Name), stage, res.Detail))
			case res.Detail != "" && verbose:
				sb.WriteString(fmt.Sprintf("%s %s %s: %s\n",
					WarningStyle.Render("!"), PkgStyle.Render(pr.Package.Name), stage, res.Detail))
			}
		}
	}
	if !r.Baseline.Passed {
		sb.WriteString(fmt.Sprintf("%s baseline: %s\n", ErrorStyle.Render("✗"), r.Baseline.Detail))
	}
	return sb.String()
}

func formatKB(b int64) string {
	return fmt.Sprintf("%.1fKB", float64(b)/1024)
}
