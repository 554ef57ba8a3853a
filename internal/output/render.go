package output

import (
	"fmt"
	"io"

	"devguard/internal/report"

	"github.com/fatih/color"
)

// maxRemediationEntries bounds how much of the analysis remediation list the
// human summary shows.
const maxRemediationEntries = 5

// RenderStructured writes the report document verbatim.
func RenderStructured(w io.Writer, doc *report.Document) error {
	raw, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}

// RenderHuman writes the summary counters, every failed check with its
// message, and the analysis headline when present. A missing analysis block
// is simply not rendered.
func RenderHuman(w io.Writer, doc *report.Document) error {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint("devguard report"), doc.RunMetadata.RunID)
	fmt.Fprintf(w, "revision %s, %s\n\n", doc.RunMetadata.Revision, doc.RunMetadata.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))

	s := doc.Summary
	fmt.Fprintf(w, "checks: %d total, %d passed, %d failed, %d skipped\n", s.Total, s.Passed, s.Failed, s.Skipped)

	if failed := doc.FailedChecks(); len(failed) > 0 {
		fmt.Fprintf(w, "\n%s\n", red.Sprint("failed checks:"))
		for _, rec := range failed {
			fmt.Fprintf(w, "  %s: %s\n", rec.Name, rec.Message)
		}
	}
	if skipped := doc.SkippedChecks(); len(skipped) > 0 {
		fmt.Fprintf(w, "\n%s\n", yellow.Sprint("skipped checks:"))
		for _, rec := range skipped {
			fmt.Fprintf(w, "  %s: %s\n", rec.Name, rec.Message)
		}
	}

	renderAnalysis(w, bold, doc.Analysis)
	return nil
}

func renderAnalysis(w io.Writer, bold *color.Color, analysis map[string]any) {
	if len(analysis) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n", bold.Sprint("analysis:"))
	if v, ok := analysis["mode"].(string); ok {
		fmt.Fprintf(w, "  mode: %s\n", v)
	}
	if v, ok := analysis["priority"].(string); ok {
		fmt.Fprintf(w, "  priority: %s\n", v)
	}
	if v, ok := analysis["summary"].(string); ok {
		fmt.Fprintf(w, "  summary: %s\n", v)
	}

	steps, ok := analysis["remediation_steps"].([]any)
	if !ok || len(steps) == 0 {
		return
	}
	fmt.Fprintln(w, "  remediation:")
	shown := 0
	for _, step := range steps {
		if shown == maxRemediationEntries {
			fmt.Fprintf(w, "    ... and %d more\n", len(steps)-shown)
			break
		}
		m, ok := step.(map[string]any)
		if !ok {
			continue
		}
		check, _ := m["check"].(string)
		fix, _ := m["fix"].(string)
		fmt.Fprintf(w, "    %s: %s\n", check, fix)
		shown++
	}
}
