// Package orchestrator is the top-level decision loop: it analyzes a user
// goal, plans subtask waves under an execution strategy, supervises their
// execution and decides after every wave whether to continue, spawn more
// work, retry failures, finish or abort.
package orchestrator

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/droidpilot/droidpilot/internal/agent"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/scheduler"
	"github.com/droidpilot/droidpilot/internal/storage"
)

// ResultCallback receives task results as waves complete. Implementations
// must not block: the orchestrator calls it inline from the decision loop.
type ResultCallback func(model.TaskResult)

// ServiceConfig is the configuration for the orchestrator service.
type ServiceConfig struct {
	Scheduler scheduler.Scheduler
	Model     agent.Client
	// Repository persists finished runs. Optional: a storage failure never
	// fails a run.
	Repository storage.Repository
	Options    model.RunOptions
	// FallbackAppID is the app targeted when goal analysis degrades to a
	// single undecomposed task.
	FallbackAppID string
	// OnResult is invoked for every task result as its wave completes.
	// Optional.
	OnResult ResultCallback
	Logger   log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Scheduler == nil {
		return fmt.Errorf("scheduler is required")
	}
	if c.Model == nil {
		return fmt.Errorf("model client is required")
	}
	if err := c.Options.Validate(); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	if c.FallbackAppID == "" {
		c.FallbackAppID = "com.android.launcher"
	}
	if c.OnResult == nil {
		c.OnResult = func(model.TaskResult) {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Service"})
	return nil
}

// Service implements the orchestration decision loop.
type Service struct {
	scheduler     scheduler.Scheduler
	model         agent.Client
	repo          storage.Repository
	opts          model.RunOptions
	fallbackAppID string
	onResult      ResultCallback
	logger        log.Logger
}

// NewService creates a new orchestrator service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		scheduler:     cfg.Scheduler,
		model:         cfg.Model,
		repo:          cfg.Repository,
		opts:          cfg.Options,
		fallbackAppID: cfg.FallbackAppID,
		onResult:      cfg.OnResult,
		logger:        cfg.Logger,
	}, nil
}

// run tracks the mutable state of one orchestration.
type run struct {
	result *model.OrchestratorResult
	// waves is the FIFO queue of planned waves.
	waves [][]model.TaskDefinition
	// order remembers first-submission order of task ids.
	order []string
	// latest holds the most recent result per task id.
	latest map[string]model.TaskResult
	// defs holds every submitted definition by id, for retries.
	defs map[string]model.TaskDefinition
	// nodes maps task ids to their execution tree node index.
	nodes map[string]int
	// retries counts how often each task id was retried.
	retries map[string]int
	// narrowed is set when the adaptive strategy downgraded to sequential.
	narrowed bool
}

// Run drives a user goal to a terminal state. The returned result is only
// constructed on reaching DONE or ABORTED; cancellations surface as aborts
// carrying whatever partial results exist.
func (s *Service) Run(ctx context.Context, goal string) (*model.OrchestratorResult, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, fmt.Errorf("goal is empty: %w", model.ErrNotValid)
	}

	runID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	logger := s.logger.WithValues(log.Kv{"run": runID})
	logger.Infof("Orchestrating goal: %s", goal)

	r := &run{
		result: &model.OrchestratorResult{
			RunID:     runID,
			Goal:      goal,
			Tree:      model.NewExecutionTree(goal),
			StartedAt: time.Now(),
		},
		latest:  map[string]model.TaskResult{},
		defs:    map[string]model.TaskDefinition{},
		nodes:   map[string]int{},
		retries: map[string]int{},
	}

	// ANALYZING.
	subtasks, strategy := s.analyze(ctx, logger, goal)
	r.result.Strategy = strategy

	// PLANNING. A decomposition the model produced but that doesn't plan
	// (duplicate ids, unknown or cyclic dependencies) gets the same tolerance
	// as a failed analysis: degrade to a single conservative task.
	if err := s.plan(r, subtasks, strategy); err != nil {
		logger.Warningf("Unusable decomposition, treating as a single task: %s", err)
		r.defs = map[string]model.TaskDefinition{}
		r.waves = nil
		r.result.Strategy = model.StrategySequential
		if err := s.plan(r, []model.TaskDefinition{s.singleTask(goal)}, model.StrategySequential); err != nil {
			return nil, err
		}
	}

	// EXECUTING / DECIDING loop.
	s.superviseWaves(ctx, logger, r)

	// SUMMARIZING, unless aborted.
	if r.result.Aborted {
		r.result.Summary = fmt.Sprintf("Run aborted: %s", r.result.AbortReason)
	} else {
		s.summarize(ctx, logger, r)
	}

	r.result.TaskResults = r.orderedResults()
	r.result.Success = !r.result.Aborted && model.AllSucceeded(r.result.TaskResults)
	r.result.FinishedAt = time.Now()

	s.persist(ctx, logger, r.result)

	return r.result, nil
}

// analyze asks the model whether the goal decomposes. A collaborator failure
// degrades to a conservative single-task plan instead of failing the run.
func (s *Service) analyze(ctx context.Context, logger log.Logger, goal string) ([]model.TaskDefinition, model.ExecutionStrategy) {
	analysis, err := s.model.Analyze(ctx, goal)
	if err != nil {
		logger.Warningf("Goal analysis failed, treating as a single task: %s", err)
		return []model.TaskDefinition{s.singleTask(goal)}, model.StrategySequential
	}

	if !analysis.RequiresDecomposition || len(analysis.Subtasks) == 0 {
		return []model.TaskDefinition{s.singleTask(goal)}, model.StrategySequential
	}

	subtasks := make([]model.TaskDefinition, 0, len(analysis.Subtasks))
	for _, st := range analysis.Subtasks {
		subtasks = append(subtasks, st.TaskDefinition)
	}

	strategy := analysis.Strategy
	switch strategy {
	case model.StrategySequential, model.StrategyConcurrent, model.StrategyHybrid, model.StrategyAdaptive:
	default:
		logger.Warningf("Unknown strategy %q from analysis, defaulting to sequential", strategy)
		strategy = model.StrategySequential
	}

	logger.Infof("Goal decomposed into %d subtasks (%s): %s", len(subtasks), strategy, analysis.Rationale)
	return subtasks, strategy
}

func (s *Service) singleTask(goal string) model.TaskDefinition {
	return model.TaskDefinition{
		ID:          "task-1",
		Description: goal,
		AppID:       s.fallbackAppID,
	}
}

// plan turns subtasks into the initial wave queue for the strategy.
func (s *Service) plan(r *run, subtasks []model.TaskDefinition, strategy model.ExecutionStrategy) error {
	for _, t := range subtasks {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, ok := r.defs[t.ID]; ok {
			return fmt.Errorf("duplicate subtask id %q: %w", t.ID, model.ErrNotValid)
		}
		r.defs[t.ID] = t
	}

	waves, err := wavesFor(subtasks, strategy)
	if err != nil {
		return err
	}
	r.waves = append(r.waves, waves...)

	return nil
}

// wavesFor groups subtasks into dispatch waves under a strategy.
func wavesFor(subtasks []model.TaskDefinition, strategy model.ExecutionStrategy) ([][]model.TaskDefinition, error) {
	switch strategy {
	case model.StrategySequential:
		waves := make([][]model.TaskDefinition, 0, len(subtasks))
		for _, t := range subtasks {
			waves = append(waves, []model.TaskDefinition{t})
		}
		return waves, nil

	case model.StrategyConcurrent, model.StrategyAdaptive:
		return [][]model.TaskDefinition{subtasks}, nil

	case model.StrategyHybrid:
		return dependencyWaves(subtasks)

	default:
		return nil, fmt.Errorf("unknown strategy %q: %w", strategy, model.ErrNotValid)
	}
}

// dependencyWaves groups subtasks into dependency levels: every subtask runs
// in the first wave after all of its dependencies.
func dependencyWaves(subtasks []model.TaskDefinition) ([][]model.TaskDefinition, error) {
	known := map[string]bool{}
	for _, t := range subtasks {
		known[t.ID] = true
	}

	level := map[string]int{}
	var resolve func(id string, path map[string]bool) (int, error)
	byID := map[string]model.TaskDefinition{}
	for _, t := range subtasks {
		byID[t.ID] = t
	}
	resolve = func(id string, path map[string]bool) (int, error) {
		if l, ok := level[id]; ok {
			return l, nil
		}
		if path[id] {
			return 0, fmt.Errorf("dependency cycle through %q: %w", id, model.ErrNotValid)
		}
		path[id] = true
		defer delete(path, id)

		max := -1
		for _, dep := range byID[id].DependsOn {
			if !known[dep] {
				return 0, fmt.Errorf("unknown dependency %q of %q: %w", dep, id, model.ErrNotValid)
			}
			l, err := resolve(dep, path)
			if err != nil {
				return 0, err
			}
			if l > max {
				max = l
			}
		}

		level[id] = max + 1
		return max + 1, nil
	}

	maxLevel := 0
	for _, t := range subtasks {
		l, err := resolve(t.ID, map[string]bool{})
		if err != nil {
			return nil, err
		}
		if l > maxLevel {
			maxLevel = l
		}
	}

	waves := make([][]model.TaskDefinition, maxLevel+1)
	for _, t := range subtasks {
		waves[level[t.ID]] = append(waves[level[t.ID]], t)
	}

	return waves, nil
}

// superviseWaves runs the EXECUTING/DECIDING loop until the wave queue
// drains, the model short-circuits, or the run aborts.
func (s *Service) superviseWaves(ctx context.Context, logger log.Logger, r *run) {
	for len(r.waves) > 0 {
		if err := ctx.Err(); err != nil {
			s.abort(r, fmt.Sprintf("cancelled: %s", err))
			return
		}

		wave := r.waves[0]
		r.waves = r.waves[1:]

		// The adaptive downgrade turns any still-queued multi-task wave
		// into single-task waves.
		if r.narrowed && len(wave) > 1 {
			rest := make([][]model.TaskDefinition, 0, len(wave)-1)
			for _, t := range wave[1:] {
				rest = append(rest, []model.TaskDefinition{t})
			}
			r.waves = append(rest, r.waves...)
			wave = wave[:1]
		}

		// EXECUTING.
		results := s.dispatch(ctx, logger, r, wave)

		if r.result.Strategy == model.StrategyAdaptive && !r.narrowed {
			failed := 0
			for _, res := range results {
				if !res.Success {
					failed++
				}
			}
			ratio := float64(failed) / float64(len(results))
			if ratio > s.opts.AdaptiveFailureThreshold {
				logger.Warningf("Wave failure ratio %.2f exceeds %.2f, narrowing to sequential execution", ratio, s.opts.AdaptiveFailureThreshold)
				r.narrowed = true
			}
		}

		// DECIDING.
		decision := s.decideNext(ctx, logger, results, len(r.waves))
		switch decision.Decision {
		case model.DecisionContinue:
			continue

		case model.DecisionComplete:
			logger.Infof("Model declared the goal complete, %d waves skipped", len(r.waves))
			r.waves = nil
			return

		case model.DecisionAbort:
			s.abort(r, decision.Reason)
			return

		case model.DecisionRetry:
			s.planRetry(logger, r, wave, results)

		case model.DecisionSpawnNew:
			s.planSpawned(logger, r, decision.NewSubtasks)

		default:
			logger.Warningf("Unknown decision %q, continuing", decision.Decision)
		}
	}
}

// dispatch delegates one wave to the scheduler and folds its results into
// the run state and execution tree.
func (s *Service) dispatch(ctx context.Context, logger log.Logger, r *run, wave []model.TaskDefinition) []model.TaskResult {
	for _, t := range wave {
		if _, ok := r.nodes[t.ID]; !ok {
			idx := r.result.Tree.Append(0, model.ExecutionNode{
				Kind:   model.NodeKindTask,
				TaskID: t.ID,
				Label:  t.Description,
			})
			r.nodes[t.ID] = idx
			r.order = append(r.order, t.ID)
		}
	}

	results, err := s.scheduler.Run(ctx, wave)
	if err != nil {
		// The scheduler only errors on invalid input, which planning has
		// already validated. Treat defensively as a failed wave.
		logger.Errorf("Wave dispatch failed: %s", err)
		results = make([]model.TaskResult, 0, len(wave))
		for _, t := range wave {
			results = append(results, model.TaskResult{
				TaskID:        t.ID,
				FailureReason: fmt.Sprintf("dispatch failed: %s", err),
			})
		}
	}

	for _, res := range results {
		r.latest[res.TaskID] = res
		if idx, ok := r.nodes[res.TaskID]; ok {
			r.result.Tree.Nodes[idx].Success = res.Success
		}
		s.onResult(res)
	}

	return results
}

// decideNext classifies the wave outcome, degrading to COMPLETE when the
// model collaborator is unavailable.
func (s *Service) decideNext(ctx context.Context, logger log.Logger, results []model.TaskResult, wavesRemaining int) agent.NextDecision {
	decision, err := s.model.DecideNext(ctx, results, wavesRemaining)
	if err != nil {
		logger.Warningf("Wave decision failed, treating as complete: %s", err)
		return agent.NextDecision{Decision: model.DecisionComplete, Reason: "model unavailable"}
	}
	return *decision
}

// planRetry re-queues only the failed subtasks of the wave, bounded per
// subtask by the retry limit. Exhausted subtasks stay as permanent failures.
func (s *Service) planRetry(logger log.Logger, r *run, wave []model.TaskDefinition, results []model.TaskResult) {
	var retry []model.TaskDefinition
	for _, res := range results {
		if res.Success {
			continue
		}
		if r.retries[res.TaskID] >= s.opts.SubtaskRetryLimit {
			logger.Warningf("Subtask %s exhausted its %d retries, keeping as permanent failure", res.TaskID, s.opts.SubtaskRetryLimit)
			continue
		}
		r.retries[res.TaskID]++

		def := r.defs[res.TaskID]
		retry = append(retry, def)

		parent := r.nodes[res.TaskID]
		idx := r.result.Tree.Append(parent, model.ExecutionNode{
			Kind:   model.NodeKindRetry,
			TaskID: def.ID,
			Label:  fmt.Sprintf("retry %d", r.retries[res.TaskID]),
		})
		r.nodes[def.ID] = idx
	}

	if len(retry) == 0 {
		return
	}

	logger.Infof("Retrying %d failed subtasks", len(retry))
	r.waves = append([][]model.TaskDefinition{retry}, r.waves...)
}

// planSpawned appends model-provided subtasks as new waves.
func (s *Service) planSpawned(logger log.Logger, r *run, spawned []model.SubTaskDefinition) {
	var defs []model.TaskDefinition
	for _, st := range spawned {
		if err := st.TaskDefinition.Validate(); err != nil {
			logger.Warningf("Ignoring invalid spawned subtask: %s", err)
			continue
		}
		if _, ok := r.defs[st.ID]; ok {
			logger.Warningf("Ignoring spawned subtask with duplicate id %q", st.ID)
			continue
		}
		r.defs[st.ID] = st.TaskDefinition
		defs = append(defs, st.TaskDefinition)

		idx := r.result.Tree.Append(0, model.ExecutionNode{
			Kind:   model.NodeKindSpawned,
			TaskID: st.ID,
			Label:  st.Description,
		})
		r.nodes[st.ID] = idx
		r.order = append(r.order, st.ID)
	}

	if len(defs) == 0 {
		return
	}

	strategy := r.result.Strategy
	if r.narrowed {
		strategy = model.StrategySequential
	}

	waves, err := wavesFor(defs, strategy)
	if err != nil {
		// Spawned dependencies may reference ids outside this group; fall
		// back to one concurrent wave.
		waves = [][]model.TaskDefinition{defs}
	}

	logger.Infof("Model spawned %d new subtasks", len(defs))
	r.waves = append(r.waves, waves...)
}

// summarize asks the model for the closing report, degrading to a templated
// summary when the collaborator fails.
func (s *Service) summarize(ctx context.Context, logger log.Logger, r *run) {
	results := r.orderedResults()

	summary, err := s.model.Summarize(ctx, r.result.Tree, results)
	if err == nil {
		r.result.Summary = summary.Text
		r.result.Diagram = summary.Diagram
		return
	}

	logger.Warningf("Summary generation failed, using templated summary: %s", err)

	ok := 0
	var failures []string
	for _, res := range results {
		if res.Success {
			ok++
		} else {
			failures = append(failures, fmt.Sprintf("%s (%s)", res.TaskID, res.FailureReason))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", r.result.Goal)
	fmt.Fprintf(&b, "%d/%d subtasks succeeded.", ok, len(results))
	if len(failures) > 0 {
		fmt.Fprintf(&b, " Failed: %s.", strings.Join(failures, ", "))
	}
	r.result.Summary = b.String()
	r.result.Diagram = templateDiagram(r.result.Tree)
}

// templateDiagram renders the execution tree as a mermaid flowchart.
func templateDiagram(tree *model.ExecutionTree) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, n := range tree.Nodes {
		label := n.Label
		if n.TaskID != "" {
			label = n.TaskID
		}
		fmt.Fprintf(&b, "    n%d[%q]\n", n.Index, label)
	}
	for _, n := range tree.Nodes {
		for _, child := range n.Children {
			fmt.Fprintf(&b, "    n%d --> n%d\n", n.Index, child)
		}
	}
	return b.String()
}

func (s *Service) abort(r *run, reason string) {
	r.result.Aborted = true
	r.result.AbortReason = reason
	s.logger.Warningf("Run %s aborted: %s", r.result.RunID, reason)
}

func (r *run) orderedResults() []model.TaskResult {
	results := make([]model.TaskResult, 0, len(r.order))
	for _, id := range r.order {
		if res, ok := r.latest[id]; ok {
			results = append(results, res)
		}
	}
	return results
}

func (s *Service) persist(ctx context.Context, logger log.Logger, result *model.OrchestratorResult) {
	if s.repo == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.repo.SaveRun(saveCtx, *result); err != nil {
		logger.Warningf("Could not persist run %s: %s", result.RunID, err)
	}
}
