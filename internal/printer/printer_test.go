package printer_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/printer"
)

func testResult() model.OrchestratorResult {
	started := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	return model.OrchestratorResult{
		RunID:    "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Goal:     "Check email and reply",
		Strategy: model.StrategyConcurrent,
		Success:  true,
		Summary:  "Both tasks finished.",
		TaskResults: []model.TaskResult{
			{TaskID: "check-email", Success: true, DisplayID: 2, Steps: 4, Message: "inbox read", StartedAt: started, FinishedAt: started.Add(42 * time.Second)},
			{TaskID: "reply", Success: false, DisplayID: 0, Steps: 7, FailureReason: "step ceiling of 7 reached without completion", StartedAt: started, FinishedAt: started.Add(2 * time.Minute)},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Minute),
	}
}

func TestTablePrintRunResult(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewTablePrinter(&b)

	require.NoError(t, p.PrintRunResult(testResult()))

	out := b.String()
	assert.Contains(t, out, "Run:        01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.Contains(t, out, "Goal:       Check email and reply")
	assert.Contains(t, out, "Status:     succeeded")
	assert.Contains(t, out, "Started:    2026-02-03 10:00:00 UTC")
	assert.Contains(t, out, "Duration:   3m00s")
	assert.Contains(t, out, "TASK")
	assert.Contains(t, out, "check-email")
	assert.Contains(t, out, "inbox read")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Both tasks finished.")
}

func TestTablePrintRunResultAborted(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewTablePrinter(&b)

	result := testResult()
	result.Success = false
	result.Aborted = true
	result.AbortReason = "device unusable"

	require.NoError(t, p.PrintRunResult(result))

	out := b.String()
	assert.Contains(t, out, "Status:     aborted")
	assert.Contains(t, out, "Reason:     device unusable")
}

func TestTablePrintRunList(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewTablePrinter(&b)

	require.NoError(t, p.PrintRunList([]model.RunSummary{
		{
			RunID:     "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Goal:      "A goal long enough that the list view has to cut it off somewhere",
			Strategy:  model.StrategyHybrid,
			TaskCount: 3,
			Success:   true,
			StartedAt: time.Now().Add(-2 * time.Hour),
		},
	}))

	out := b.String()
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "GOAL")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "hybrid")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "2 hours ago")
	assert.NotContains(t, out, "cut it off somewhere")
}

func TestTablePrintRunListEmpty(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewTablePrinter(&b)

	require.NoError(t, p.PrintRunList(nil))
	assert.Empty(t, b.String())
}

func TestTablePrintCheckResults(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewTablePrinter(&b)

	require.NoError(t, p.PrintCheckResults([]model.CheckResult{
		{ID: "shell_channel", Status: model.CheckStatusOK, Message: "device responds"},
		{ID: "platform_version", Status: model.CheckStatusWarning, Message: "virtual displays unavailable"},
		{ID: "screencap_binary", Status: model.CheckStatusError, Message: "screencap not found"},
	}))

	out := b.String()
	assert.Contains(t, out, "✓ shell_channel")
	assert.Contains(t, out, "! platform_version")
	assert.Contains(t, out, "✗ screencap_binary")
	assert.Contains(t, out, "1 ok, 1 warnings, 1 errors")
}

func TestJSONPrintRunResult(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewJSONPrinter(&b)

	require.NoError(t, p.PrintRunResult(testResult()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))

	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", got["run_id"])
	assert.Equal(t, "concurrent", got["strategy"])
	assert.Equal(t, true, got["success"])
	assert.Equal(t, false, got["aborted"])

	tasks, ok := got["tasks"].([]interface{})
	require.True(t, ok)
	require.Len(t, tasks, 2)

	first := tasks[0].(map[string]interface{})
	assert.Equal(t, "check-email", first["task_id"])
	assert.Equal(t, float64(2), first["display_id"])
	assert.Equal(t, "inbox read", first["message"])

	second := tasks[1].(map[string]interface{})
	assert.Equal(t, false, second["success"])
	assert.Contains(t, second["failure_reason"], "step ceiling")
}

func TestJSONPrintRunList(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewJSONPrinter(&b)

	require.NoError(t, p.PrintRunList([]model.RunSummary{
		{RunID: "run-1", Goal: "goal", Strategy: model.StrategySequential, TaskCount: 1, Success: true},
	}))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0]["run_id"])
	assert.Equal(t, "sequential", got[0]["strategy"])
	assert.Equal(t, float64(1), got[0]["task_count"])
}

func TestJSONPrintDeviceListEmpty(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewJSONPrinter(&b)

	require.NoError(t, p.PrintDeviceList(nil))
	assert.JSONEq(t, "[]", b.String())
}

func TestJSONPrintMessage(t *testing.T) {
	var b bytes.Buffer
	p := printer.NewJSONPrinter(&b)

	require.NoError(t, p.PrintMessage("run deleted"))
	assert.JSONEq(t, `{"message": "run deleted"}`, b.String())
}

func TestTimeAgo(t *testing.T) {
	now := time.Now()

	tests := map[string]struct {
		ts  time.Time
		exp string
	}{
		"Seconds ago.":    {ts: now.Add(-30 * time.Second), exp: "30 seconds ago (UTC)"},
		"One minute ago.": {ts: now.Add(-1 * time.Minute), exp: "1 minute ago (UTC)"},
		"Minutes ago.":    {ts: now.Add(-45 * time.Minute), exp: "45 minutes ago (UTC)"},
		"Hours ago.":      {ts: now.Add(-3 * time.Hour), exp: "3 hours ago (UTC)"},
		"Days ago.":       {ts: now.Add(-49 * time.Hour), exp: "2 days ago (UTC)"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.TimeAgo(test.ts))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]struct {
		d   time.Duration
		exp string
	}{
		"Seconds only.":        {d: 42 * time.Second, exp: "42s"},
		"Minutes and seconds.": {d: 3*time.Minute + 12*time.Second, exp: "3m12s"},
		"Hours and minutes.":   {d: time.Hour + 4*time.Minute, exp: "1h04m"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatDuration(test.d))
		})
	}
}
