package printer

import "github.com/droidpilot/droidpilot/internal/model"

// Printer knows how to print run and device information in different formats.
type Printer interface {
	PrintRunResult(result model.OrchestratorResult) error
	PrintRunList(runs []model.RunSummary) error
	PrintTaskResults(results []model.TaskResult) error
	PrintCheckResults(results []model.CheckResult) error
	PrintDeviceList(serials []string) error
	PrintMessage(msg string) error
}
