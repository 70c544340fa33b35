package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/droidpilot/droidpilot/internal/agent"
	"github.com/droidpilot/droidpilot/internal/executor"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/orchestrator"
	"github.com/droidpilot/droidpilot/internal/scheduler"
	"github.com/droidpilot/droidpilot/internal/storage/sqlite"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	goal string

	// Model flags.
	modelURL    string
	modelAPIKey string
	modelName   string

	// Run option flags.
	maxTasks          int
	noVirtualDisplays bool
	noFallback        bool
	maxSteps          int
	captureQuality    int
	retryLimit        int
	adaptiveThreshold float64
	fallbackApp       string

	format string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run a high level goal on the device.")
	c.Cmd.Arg("goal", "Goal to accomplish.").Required().StringVar(&c.goal)

	// Model flags.
	c.Cmd.Flag("model-url", "Base URL of the model API.").Required().StringVar(&c.modelURL)
	c.Cmd.Flag("model-api-key", "API key for the model API.").StringVar(&c.modelAPIKey)
	c.Cmd.Flag("model", "Model identifier sent with every request.").StringVar(&c.modelName)

	// Run option flags.
	defaults := model.DefaultRunOptions()
	c.Cmd.Flag("max-tasks", "Maximum tasks running concurrently.").Default(fmt.Sprintf("%d", defaults.MaxConcurrentTasks)).IntVar(&c.maxTasks)
	c.Cmd.Flag("no-virtual-displays", "Run every task on the primary display.").BoolVar(&c.noVirtualDisplays)
	c.Cmd.Flag("no-fallback", "Fail instead of degrading when no virtual display is available.").BoolVar(&c.noFallback)
	c.Cmd.Flag("max-steps", "Maximum steps per task.").Default(fmt.Sprintf("%d", defaults.MaxStepsPerTask)).IntVar(&c.maxSteps)
	c.Cmd.Flag("capture-quality", "Screenshot quality (1-100).").Default(fmt.Sprintf("%d", defaults.CaptureQuality)).IntVar(&c.captureQuality)
	c.Cmd.Flag("retry-limit", "Subtask retry limit.").Default(fmt.Sprintf("%d", defaults.SubtaskRetryLimit)).IntVar(&c.retryLimit)
	c.Cmd.Flag("adaptive-threshold", "Failure ratio that narrows the adaptive strategy to sequential.").Default(fmt.Sprintf("%g", defaults.AdaptiveFailureThreshold)).Float64Var(&c.adaptiveThreshold)
	c.Cmd.Flag("fallback-app", "App targeted when goal analysis degrades to a single task.").StringVar(&c.fallbackApp)

	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	opts := model.RunOptions{
		MaxConcurrentTasks:       c.maxTasks,
		EnableVirtualDisplays:    !c.noVirtualDisplays,
		FallbackToSequential:     !c.noFallback,
		MaxStepsPerTask:          c.maxSteps,
		CaptureQuality:           c.captureQuality,
		SubtaskRetryLimit:        c.retryLimit,
		AdaptiveFailureThreshold: c.adaptiveThreshold,
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Wire the device side.
	stack, err := buildDeviceStack(c.rootCmd, repo, opts)
	if err != nil {
		return err
	}
	defer stack.Displays.Close(context.WithoutCancel(ctx))

	// Model client.
	modelClient, err := agent.NewHTTPClient(agent.HTTPClientConfig{
		BaseURL: c.modelURL,
		APIKey:  c.modelAPIKey,
		Model:   c.modelName,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create model client: %w", err)
	}

	// Task runner and scheduler.
	runner, err := executor.NewService(executor.ServiceConfig{
		Displays: stack.Displays,
		Registry: stack.Registry,
		Launcher: stack.Launcher,
		Input:    stack.Input,
		Capture:  stack.Capture,
		Model:    modelClient,
		Options:  opts,
		OnStep: func(taskID string, rec model.StepRecord) {
			logger.WithValues(log.Kv{"task": taskID, "step": rec.Number}).
				Debugf("Step finished (success: %t)", rec.Success)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create task executor: %w", err)
	}

	sched, err := scheduler.NewService(scheduler.ServiceConfig{
		Runner:  runner,
		Options: opts,
		Capture: stack.Capture,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create scheduler: %w", err)
	}

	// Orchestrator.
	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Scheduler:     sched,
		Model:         modelClient,
		Repository:    repo,
		Options:       opts,
		FallbackAppID: c.fallbackApp,
		OnResult: func(res model.TaskResult) {
			logger.WithValues(log.Kv{"task": res.TaskID}).
				Infof("Task finished (success: %t, steps: %d)", res.Success, res.Steps)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}

	// Execute the goal.
	result, err := svc.Run(ctx, c.goal)
	if err != nil {
		return fmt.Errorf("could not run goal: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintRunResult(*result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("goal did not complete successfully")
	}

	return nil
}
