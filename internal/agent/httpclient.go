package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// HTTPClientConfig is the configuration for the HTTP model client.
type HTTPClientConfig struct {
	BaseURL string
	APIKey  string
	// Model is the model identifier sent with every request.
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "agent.HTTPClient"})
	return nil
}

// HTTPClient is a Client implementation over a JSON HTTP API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  log.Logger
}

// NewHTTPClient creates a new HTTP model client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
	}, nil
}

type decideRequest struct {
	Model       string           `json:"model,omitempty"`
	Screenshot  string           `json:"screenshot"`
	Format      string           `json:"format"`
	TaskID      string           `json:"task_id"`
	Description string           `json:"description"`
	AppID       string           `json:"app_id"`
	Step        int              `json:"step"`
	MaxSteps    int              `json:"max_steps"`
	History     []stepRecordWire `json:"history,omitempty"`
}

type stepRecordWire struct {
	Number    int    `json:"number"`
	Action    string `json:"action"`
	Rationale string `json:"rationale,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

type pointWire struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type actionWire struct {
	Kind       string      `json:"kind"`
	X          int         `json:"x,omitempty"`
	Y          int         `json:"y,omitempty"`
	Path       []pointWire `json:"path,omitempty"`
	DurationMS int         `json:"duration_ms,omitempty"`
	KeyCode    int         `json:"key_code,omitempty"`
	AppID      string      `json:"app_id,omitempty"`
	Message    string      `json:"message,omitempty"`
}

type decideResponse struct {
	Action    actionWire `json:"action"`
	Rationale string     `json:"rationale"`
}

// Decide returns the next UI action for a task given the current screen.
func (c *HTTPClient) Decide(ctx context.Context, shot *model.Screenshot, tc TaskContext) (*StepDecision, error) {
	req := decideRequest{
		Model:       c.model,
		Screenshot:  base64.StdEncoding.EncodeToString(shot.Data),
		Format:      shot.Format,
		TaskID:      tc.TaskID,
		Description: tc.Description,
		AppID:       tc.AppID,
		Step:        tc.Step,
		MaxSteps:    tc.MaxSteps,
	}
	for _, h := range tc.History {
		req.History = append(req.History, stepRecordWire{
			Number:    h.Number,
			Action:    string(h.Action),
			Rationale: h.Rationale,
			Success:   h.Success,
			Error:     h.Error,
		})
	}

	var resp decideResponse
	if err := c.post(ctx, "/v1/decide", req, &resp); err != nil {
		return nil, err
	}

	action := model.Action{
		Kind:     model.ActionKind(resp.Action.Kind),
		Target:   model.Point{X: resp.Action.X, Y: resp.Action.Y},
		Duration: time.Duration(resp.Action.DurationMS) * time.Millisecond,
		KeyCode:  resp.Action.KeyCode,
		AppID:    resp.Action.AppID,
		Message:  resp.Action.Message,
	}
	for _, p := range resp.Action.Path {
		action.Path = append(action.Path, model.Point{X: p.X, Y: p.Y})
	}

	return &StepDecision{Action: action, Rationale: resp.Rationale}, nil
}

type analyzeResponse struct {
	RequiresDecomposition bool          `json:"requires_decomposition"`
	Rationale             string        `json:"rationale"`
	Strategy              string        `json:"strategy"`
	Subtasks              []subtaskWire `json:"subtasks"`
}

type subtaskWire struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	AppID       string   `json:"app_id"`
	DependsOn   []string `json:"depends_on,omitempty"`
	Rationale   string   `json:"rationale,omitempty"`
}

// Analyze decides whether a user goal decomposes into subtasks.
func (c *HTTPClient) Analyze(ctx context.Context, goal string) (*TaskAnalysis, error) {
	req := map[string]string{"model": c.model, "goal": goal}

	var resp analyzeResponse
	if err := c.post(ctx, "/v1/analyze", req, &resp); err != nil {
		return nil, err
	}

	analysis := &TaskAnalysis{
		RequiresDecomposition: resp.RequiresDecomposition,
		Rationale:             resp.Rationale,
		Strategy:              model.ExecutionStrategy(resp.Strategy),
	}
	for _, st := range resp.Subtasks {
		analysis.Subtasks = append(analysis.Subtasks, model.SubTaskDefinition{
			TaskDefinition: model.TaskDefinition{
				ID:          st.ID,
				Description: st.Description,
				AppID:       st.AppID,
				DependsOn:   st.DependsOn,
			},
			ParentGoal: goal,
			Rationale:  st.Rationale,
		})
	}

	return analysis, nil
}

type decideNextRequest struct {
	Model          string           `json:"model,omitempty"`
	WavesRemaining int              `json:"waves_remaining"`
	Results        []taskResultWire `json:"results"`
}

type taskResultWire struct {
	TaskID        string `json:"task_id"`
	Success       bool   `json:"success"`
	Steps         int    `json:"steps"`
	Message       string `json:"message,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type decideNextResponse struct {
	Decision    string        `json:"decision"`
	Reason      string        `json:"reason"`
	NewSubtasks []subtaskWire `json:"new_subtasks,omitempty"`
}

// DecideNext classifies a wave outcome.
func (c *HTTPClient) DecideNext(ctx context.Context, waveResults []model.TaskResult, wavesRemaining int) (*NextDecision, error) {
	req := decideNextRequest{Model: c.model, WavesRemaining: wavesRemaining}
	for _, r := range waveResults {
		req.Results = append(req.Results, taskResultWire{
			TaskID:        r.TaskID,
			Success:       r.Success,
			Steps:         r.Steps,
			Message:       r.Message,
			FailureReason: r.FailureReason,
		})
	}

	var resp decideNextResponse
	if err := c.post(ctx, "/v1/decide-next", req, &resp); err != nil {
		return nil, err
	}

	decision := &NextDecision{
		Decision: model.Decision(resp.Decision),
		Reason:   resp.Reason,
	}
	for _, st := range resp.NewSubtasks {
		decision.NewSubtasks = append(decision.NewSubtasks, model.SubTaskDefinition{
			TaskDefinition: model.TaskDefinition{
				ID:          st.ID,
				Description: st.Description,
				AppID:       st.AppID,
				DependsOn:   st.DependsOn,
			},
			Rationale: st.Rationale,
		})
	}

	return decision, nil
}

type summarizeRequest struct {
	Model   string                `json:"model,omitempty"`
	Nodes   []model.ExecutionNode `json:"nodes"`
	Results []taskResultWire      `json:"results"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
	Diagram string `json:"diagram"`
}

// Summarize produces the closing report of a run.
func (c *HTTPClient) Summarize(ctx context.Context, tree *model.ExecutionTree, results []model.TaskResult) (*Summary, error) {
	req := summarizeRequest{Model: c.model, Nodes: tree.Nodes}
	for _, r := range results {
		req.Results = append(req.Results, taskResultWire{
			TaskID:        r.TaskID,
			Success:       r.Success,
			Steps:         r.Steps,
			Message:       r.Message,
			FailureReason: r.FailureReason,
		})
	}

	var resp summarizeResponse
	if err := c.post(ctx, "/v1/summarize", req, &resp); err != nil {
		return nil, err
	}

	return &Summary{Text: resp.Summary, Diagram: resp.Diagram}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, reqBody, respBody any) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("model call failed: %w: %w", err, model.ErrModelCollaborator)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("model call returned %d (%s): %w", resp.StatusCode, bytes.TrimSpace(body), model.ErrModelCollaborator)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("could not decode model response: %w: %w", err, model.ErrModelCollaborator)
	}

	return nil
}
