package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/droidpilot/droidpilot/internal/model"
)

// JSONPrinter prints run information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// runOutput represents the full run result output.
type runOutput struct {
	RunID       string       `json:"run_id"`
	Goal        string       `json:"goal"`
	Strategy    string       `json:"strategy"`
	Success     bool         `json:"success"`
	Aborted     bool         `json:"aborted"`
	AbortReason string       `json:"abort_reason,omitempty"`
	Summary     string       `json:"summary,omitempty"`
	Diagram     string       `json:"diagram,omitempty"`
	Tasks       []taskOutput `json:"tasks"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// taskOutput represents a per-task result output.
type taskOutput struct {
	TaskID        string    `json:"task_id"`
	Success       bool      `json:"success"`
	Steps         int       `json:"steps"`
	DisplayID     int       `json:"display_id"`
	Message       string    `json:"message,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// listItem represents a run in the list output (subset of fields).
type listItem struct {
	RunID     string    `json:"run_id"`
	Goal      string    `json:"goal"`
	Strategy  string    `json:"strategy"`
	TaskCount int       `json:"task_count"`
	Success   bool      `json:"success"`
	Aborted   bool      `json:"aborted"`
	StartedAt time.Time `json:"started_at"`
}

// checkOutput represents a preflight check result output.
type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintRunResult prints a detailed run result in JSON format.
func (j *JSONPrinter) PrintRunResult(result model.OrchestratorResult) error {
	output := runOutput{
		RunID:       result.RunID,
		Goal:        result.Goal,
		Strategy:    string(result.Strategy),
		Success:     result.Success,
		Aborted:     result.Aborted,
		AbortReason: result.AbortReason,
		Summary:     result.Summary,
		Diagram:     result.Diagram,
		Tasks:       taskOutputs(result.TaskResults),
		StartedAt:   result.StartedAt.UTC(),
		FinishedAt:  result.FinishedAt.UTC(),
	}

	return j.encode(output)
}

// PrintRunList prints run summaries in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(runs []model.RunSummary) error {
	items := make([]listItem, len(runs))
	for i, r := range runs {
		items[i] = listItem{
			RunID:     r.RunID,
			Goal:      r.Goal,
			Strategy:  string(r.Strategy),
			TaskCount: r.TaskCount,
			Success:   r.Success,
			Aborted:   r.Aborted,
			StartedAt: r.StartedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintTaskResults prints per-task results in JSON format.
func (j *JSONPrinter) PrintTaskResults(results []model.TaskResult) error {
	return j.encode(taskOutputs(results))
}

// PrintCheckResults prints preflight check results in JSON format.
func (j *JSONPrinter) PrintCheckResults(results []model.CheckResult) error {
	items := make([]checkOutput, len(results))
	for i, r := range results {
		items[i] = checkOutput{
			ID:      r.ID,
			Status:  string(r.Status),
			Message: r.Message,
		}
	}

	return j.encode(items)
}

// PrintDeviceList prints connected device serials in JSON format.
func (j *JSONPrinter) PrintDeviceList(serials []string) error {
	if serials == nil {
		serials = []string{}
	}
	return j.encode(serials)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func taskOutputs(results []model.TaskResult) []taskOutput {
	items := make([]taskOutput, len(results))
	for i, r := range results {
		items[i] = taskOutput{
			TaskID:        r.TaskID,
			Success:       r.Success,
			Steps:         r.Steps,
			DisplayID:     r.DisplayID,
			Message:       r.Message,
			FailureReason: r.FailureReason,
			StartedAt:     r.StartedAt.UTC(),
			FinishedAt:    r.FinishedAt.UTC(),
		}
	}
	return items
}
