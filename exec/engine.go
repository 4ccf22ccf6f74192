// Package exec implements PERA's Execution Engine (EXE): the component
// that takes a single planned task, resolves it to a concrete tool,
// dispatches the call with a bounded deadline, classifies any failure, and
// retries according to policy before handing back a Result the Orchestrator
// folds into the episode under construction.
package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/enum"
	"github.com/zero-day-ai/pera/input"
	"github.com/zero-day-ai/pera/registry"
	"github.com/zero-day-ai/pera/result"
)

// Task is a single unit of work the Execution Engine dispatches. It is the
// leaf node of a Plan produced by the Planner.
type Task struct {
	ID          string
	ToolName    string // explicit tool name, or "" / "auto" to resolve by TaskType
	TaskType    string // used for auto-resolution against the tool catalog
	Params      map[string]any
	Timeout     time.Duration // per-task override; zero uses the engine default
	Suspendable bool          // suspendable tasks bypass the bounded worker pool
}

// Result is the outcome of dispatching a Task, including enough detail for
// the Learning Loop's tool-performance analysis and the Episodic Log.
type Result struct {
	TaskID         string
	ToolName       string
	Success        bool
	Output         any
	Err            error
	Classification Classification
	Attempts       int
	DurationMS     int64
	StartedAt      time.Time
	EndedAt        time.Time

	// Quality and Confidence are populated only when Output is a
	// map[string]any; they carry the Validator's verdict on whether a
	// successful call actually returned anything meaningful.
	Quality    result.Quality
	Confidence float64
	Warnings   []string
}

// Invoker is the narrow capability the Execution Engine depends on to
// actually run a tool. Concrete tool implementations — HTTP calls, shell
// commands, delegated sub-agents — live outside this module; Invoker is the
// seam where they are plugged in.
type Invoker interface {
	Invoke(ctx context.Context, toolName string, params map[string]any) (any, error)
}

// Engine is the Execution Engine. A single Engine is shared across
// concurrently executing sessions; WorkerPoolSize bounds how many blocking
// (non-suspendable) tasks run at once.
type Engine struct {
	catalog   registry.Catalog
	invoker   Invoker
	policy    RetryPolicy
	cfg       config.ExecutionConfig
	slots     chan struct{}
	validator *result.Validator
	metrics   *Metrics
}

// NewEngine constructs an Execution Engine.
func NewEngine(cfg config.ExecutionConfig, catalog registry.Catalog, invoker Invoker) *Engine {
	poolSize := cfg.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Engine{
		catalog:   catalog,
		invoker:   invoker,
		policy:    NewRetryPolicy(cfg),
		cfg:       cfg,
		slots:     make(chan struct{}, poolSize),
		validator: result.NewValidator(),
		metrics:   NewMetrics(nil),
	}
}

// WithMetrics attaches an OpenTelemetry-backed Metrics recorder, replacing
// the no-op default NewEngine installs.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// Dispatch validates, resolves, and executes a single task, retrying on
// recoverable failures according to the engine's retry policy.
func (e *Engine) Dispatch(ctx context.Context, task Task) (Result, error) {
	if err := e.validate(task); err != nil {
		return Result{}, err
	}

	toolName, err := e.resolve(ctx, task)
	if err != nil {
		return Result{}, err
	}

	task.Params = normalizeParams(toolName, task.Params)

	if err := e.validateParams(ctx, toolName, task); err != nil {
		return Result{}, err
	}

	if task.Timeout <= 0 {
		task.Timeout = input.GetTimeout(task.Params, "timeout", 0)
	}

	deadline := e.cfg.DefaultTimeout
	if task.Timeout > 0 && task.Timeout < deadline || deadline <= 0 {
		deadline = task.Timeout
	}

	res := Result{TaskID: task.ID, ToolName: toolName, StartedAt: time.Now()}

	if !task.Suspendable {
		e.slots <- struct{}{}
		defer func() { <-e.slots }()
	}

	var lastErr error
	var lastCls Classification
	for attempt := 1; ; attempt++ {
		callCtx := ctx
		var cancel context.CancelFunc
		if deadline > 0 {
			callCtx, cancel = context.WithTimeout(ctx, deadline)
		}
		start := time.Now()
		output, err := e.invoker.Invoke(callCtx, toolName, task.Params)
		durationMS := time.Since(start).Milliseconds()
		if cancel != nil {
			cancel()
		}

		res.Attempts = attempt
		if err == nil {
			res.Success = true
			res.Output = output
			res.EndedAt = time.Now()
			res.DurationMS = time.Since(res.StartedAt).Milliseconds()
			if asMap, ok := output.(map[string]any); ok {
				verdict := e.validator.Validate(asMap)
				res.Quality = verdict.Quality
				res.Confidence = verdict.Confidence
				res.Warnings = verdict.Warnings
			}
			if e.catalog != nil {
				_ = e.catalog.RecordOutcome(ctx, toolName, true, durationMS)
			}
			e.metrics.RecordDispatch(ctx, toolName, true, durationMS)
			return res, nil
		}

		lastErr = err
		lastCls = Classify(err)
		if e.catalog != nil {
			_ = e.catalog.RecordOutcome(ctx, toolName, false, durationMS)
		}
		e.metrics.RecordDispatch(ctx, toolName, false, durationMS)

		if ctx.Err() != nil {
			break
		}
		if !e.policy.ShouldRetry(attempt, lastCls) {
			break
		}
		select {
		case <-time.After(e.policy.Delay(attempt)):
		case <-ctx.Done():
			break
		}
	}

	res.Success = false
	res.Err = lastErr
	res.Classification = lastCls
	res.EndedAt = time.Now()
	res.DurationMS = time.Since(res.StartedAt).Milliseconds()
	return res, nil
}

func (e *Engine) validate(task Task) error {
	if task.ID == "" {
		return fmt.Errorf("exec: task ID required")
	}
	if task.ToolName == "" && task.TaskType == "" {
		return fmt.Errorf("exec: task %s has neither tool name nor task type", task.ID)
	}
	return nil
}

// validateParams checks task.Params against the resolved tool's
// InputSchema, when the catalog has one on record, the same validate-before-
// dispatch step the teacher's plugin.builder applies to plugin-method calls.
// A tool with a zero-value (unset) InputSchema is left unchecked.
func (e *Engine) validateParams(ctx context.Context, toolName string, task Task) error {
	if e.catalog == nil {
		return nil
	}
	d, err := e.catalog.Get(ctx, toolName)
	if err != nil {
		return nil
	}
	if d.InputSchema.Type == "" {
		return nil
	}
	if err := d.InputSchema.Validate(task.Params); err != nil {
		return fmt.Errorf("exec: task %s: params invalid for tool %s: %w", task.ID, toolName, err)
	}
	return nil
}

// normalizeParams rewrites shorthand param values (e.g. "fast" for a
// tool's "mode" field) to the canonical values a tool was registered to
// expect, via enum.Normalize. A tool with no registered mappings, or
// params that don't round-trip through JSON, pass through unchanged.
func normalizeParams(toolName string, params map[string]any) map[string]any {
	if len(params) == 0 {
		return params
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return params
	}
	normalized := enum.Normalize(toolName, string(raw))
	var out map[string]any
	if err := json.Unmarshal([]byte(normalized), &out); err != nil {
		return params
	}
	return out
}

func (e *Engine) resolve(ctx context.Context, task Task) (string, error) {
	if task.ToolName != "" && task.ToolName != "auto" {
		return task.ToolName, nil
	}
	if e.catalog == nil {
		return "", fmt.Errorf("exec: cannot auto-resolve task %s without a catalog", task.ID)
	}
	candidates, err := e.catalog.ListByTaskType(ctx, task.TaskType)
	if err != nil {
		return "", fmt.Errorf("exec: resolve task %s: %w", task.ID, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("exec: no tool registered for task type %q", task.TaskType)
	}
	return candidates[0].Name, nil
}
