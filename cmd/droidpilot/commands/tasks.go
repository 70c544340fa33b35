package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/droidpilot/droidpilot/internal/agent"
	"github.com/droidpilot/droidpilot/internal/executor"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/scheduler"
	storageio "github.com/droidpilot/droidpilot/internal/storage/io"
	"github.com/droidpilot/droidpilot/internal/storage/sqlite"
)

type TasksCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	batchFile string

	// Model flags.
	modelURL    string
	modelAPIKey string
	modelName   string

	format string
}

// NewTasksCommand returns the tasks command.
func NewTasksCommand(rootCmd *RootCommand, app *kingpin.Application) *TasksCommand {
	c := &TasksCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("tasks", "Run a predefined task batch from a YAML file.")
	c.Cmd.Flag("file", "Path to the batch YAML file.").Short('f').Required().StringVar(&c.batchFile)

	// Model flags.
	c.Cmd.Flag("model-url", "Base URL of the model API.").Required().StringVar(&c.modelURL)
	c.Cmd.Flag("model-api-key", "API key for the model API.").StringVar(&c.modelAPIKey)
	c.Cmd.Flag("model", "Model identifier sent with every request.").StringVar(&c.modelName)

	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c TasksCommand) Name() string { return c.Cmd.FullCommand() }

func (c TasksCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Load the batch file.
	abs, err := filepath.Abs(c.batchFile)
	if err != nil {
		return fmt.Errorf("invalid batch file path: %w", err)
	}
	loader := storageio.NewBatchYAMLRepository(os.DirFS(filepath.Dir(abs)))
	tasks, opts, err := loader.GetBatch(ctx, filepath.Base(abs))
	if err != nil {
		return fmt.Errorf("could not load batch: %w", err)
	}

	// Initialize storage (SQLite), used for the capability registry only.
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

	// Execute the batch.
	results, err := sched.Run(ctx, tasks)
	if err != nil {
		return fmt.Errorf("could not run batch: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintTaskResults(results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	if !model.AllSucceeded(results) {
		return fmt.Errorf("batch did not complete successfully")
	}

	return nil
}
