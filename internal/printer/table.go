package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/droidpilot/droidpilot/internal/model"
)

// TablePrinter prints run information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRunResult prints a detailed run result.
func (t *TablePrinter) PrintRunResult(result model.OrchestratorResult) error {
	fmt.Fprintf(t.writer, "Run:        %s\n", result.RunID)
	fmt.Fprintf(t.writer, "Goal:       %s\n", result.Goal)
	fmt.Fprintf(t.writer, "Strategy:   %s\n", result.Strategy)
	fmt.Fprintf(t.writer, "Status:     %s\n", runStatus(result.Success, result.Aborted))

	if result.Aborted && result.AbortReason != "" {
		fmt.Fprintf(t.writer, "Reason:     %s\n", result.AbortReason)
	}

	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(result.StartedAt))
	fmt.Fprintf(t.writer, "Duration:   %s\n", FormatDuration(result.FinishedAt.Sub(result.StartedAt)))

	if len(result.TaskResults) > 0 {
		fmt.Fprintln(t.writer)
		if err := t.PrintTaskResults(result.TaskResults); err != nil {
			return err
		}
	}

	if result.Summary != "" {
		fmt.Fprintf(t.writer, "\n%s\n", result.Summary)
	}

	if result.Diagram != "" {
		fmt.Fprintf(t.writer, "\n%s\n", result.Diagram)
	}

	return nil
}

// PrintRunList prints run summaries in a table format.
func (t *TablePrinter) PrintRunList(runs []model.RunSummary) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "RUN\tGOAL\tSTRATEGY\tTASKS\tSTATUS\tSTARTED")

	// Print rows.
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID,
			truncate(r.Goal, 40),
			r.Strategy,
			r.TaskCount,
			runStatus(r.Success, r.Aborted),
			TimeAgo(r.StartedAt),
		)
	}

	return nil
}

// PrintTaskResults prints per-task results in a table format.
func (t *TablePrinter) PrintTaskResults(results []model.TaskResult) error {
	if len(results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "TASK\tDISPLAY\tSTEPS\tSTATUS\tDURATION\tMESSAGE")

	// Print rows.
	for _, r := range results {
		status := "ok"
		msg := r.Message
		if !r.Success {
			status = "failed"
			if r.FailureReason != "" {
				msg = r.FailureReason
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			r.TaskID,
			r.DisplayID,
			r.Steps,
			status,
			FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
			truncate(msg, 60),
		)
	}

	return nil
}

// PrintCheckResults prints preflight check results.
func (t *TablePrinter) PrintCheckResults(results []model.CheckResult) error {
	for _, r := range results {
		mark := "✓"
		switch r.Status {
		case model.CheckStatusWarning:
			mark = "!"
		case model.CheckStatusError:
			mark = "✗"
		}
		fmt.Fprintf(t.writer, "%s %-20s %s\n", mark, r.ID, r.Message)
	}

	ok, warnings, errors := model.CountByStatus(results)
	fmt.Fprintf(t.writer, "\n%d ok, %d warnings, %d errors\n", ok, warnings, errors)

	return nil
}

// PrintDeviceList prints connected device serials.
func (t *TablePrinter) PrintDeviceList(serials []string) error {
	for _, s := range serials {
		fmt.Fprintln(t.writer, s)
	}
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func runStatus(success, aborted bool) string {
	switch {
	case aborted:
		return "aborted"
	case success:
		return "succeeded"
	default:
		return "failed"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
