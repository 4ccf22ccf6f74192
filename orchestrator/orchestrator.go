// Package orchestrator implements PERA's state machine (ORC): it drives a
// goal through init -> planning -> executing -> recording ->
// learning-scheduled -> done|error, dispatching a Plan's tasks band by band
// against the Execution Engine and recording the outcome as an Episode.
//
// Session lifecycle (constraints, status, cancellation) generalizes the
// teacher's mission package from a security-testing "mission" to a
// goal-orchestration "session"; band-parallel dispatch follows the
// teacher's worker-pool idiom of goroutines, a sync.WaitGroup, and a
// buffered result channel.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/exec"
	"github.com/zero-day-ai/pera/memory"
	"github.com/zero-day-ai/pera/planning"
)

// Planner is the narrow capability the Orchestrator needs from the
// planning package: produce a validated Plan for a goal, and evaluate a
// task's precondition against accumulated prior outputs.
type Planner interface {
	GeneratePlan(ctx context.Context, goal string) (*planning.Plan, error)
	EvalPrecondition(expr string, params, outputs map[string]any) (bool, error)
}

// Executor is the narrow capability the Orchestrator needs from the
// execution engine: dispatch one task and return its result.
type Executor interface {
	Dispatch(ctx context.Context, task exec.Task) (exec.Result, error)
}

// Learner is the narrow capability the Orchestrator needs from the
// learning loop: accept a freshly-recorded episode for asynchronous
// analysis. Submit does not block on Learner — ScheduleLearning is expected
// to enqueue and return quickly, or be nil if learning is disabled.
type Learner interface {
	ScheduleLearning(ctx context.Context, episode *memory.Episode) error
}

// Orchestrator coordinates the Plan -> Execute -> Record -> Adapt cycle for
// incoming goals.
type Orchestrator struct {
	cfg     config.Config
	mem     memory.Store
	planner Planner
	exec    Executor
	learner Learner
	logger  *slog.Logger

	systemVersion string

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithLearner attaches a Learner; without one, the learning-scheduled phase
// is a no-op and Submit transitions straight from recording to done.
func WithLearner(l Learner) Option {
	return func(o *Orchestrator) { o.learner = l }
}

// WithLogger overrides the default slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithSystemVersion sets the version string baked into every Episode's
// checksum. Defaults to "dev" when unset.
func WithSystemVersion(v string) Option {
	return func(o *Orchestrator) { o.systemVersion = v }
}

// NewOrchestrator constructs an Orchestrator wired to the given memory
// store, planner, and execution engine.
func NewOrchestrator(cfg config.Config, mem memory.Store, planner Planner, executor Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:           cfg,
		mem:           mem,
		planner:       planner,
		exec:          executor,
		logger:        slog.Default(),
		systemVersion: "dev",
		sessions:      make(map[string]*session),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit drives goal through a full PERA cycle and returns the session's
// final Result. It blocks until the session reaches done or error;
// cancelling ctx moves the session to PhaseError with a cancellation result.
func (o *Orchestrator) Submit(ctx context.Context, goal string, constraints Constraints) (Result, error) {
	if goal == "" {
		return Result{}, fmt.Errorf("orchestrator: goal required")
	}

	sessionID := "session_" + uuid.New().String()
	sessCtx, cancel := context.WithCancel(ctx)
	if constraints.MaxDuration > 0 {
		// PlanSlack pads the hard session deadline so the recording and
		// learning-scheduling phases aren't starved by a budget sized for
		// task execution alone.
		budget := time.Duration(float64(constraints.MaxDuration) * (1 + o.cfg.Planning.PlanSlack))
		sessCtx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	sess := &session{
		info: Info{
			ID:        sessionID,
			Goal:      goal,
			Phase:     PhaseInit,
			CreatedAt: time.Now(),
		},
		constraints: constraints,
		cancel:      cancel,
	}
	o.mu.Lock()
	o.sessions[sessionID] = sess
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.sessions, sessionID)
		o.mu.Unlock()
	}()

	logger := o.logger.With("session_id", sessionID, "goal", goal)
	startedAt := time.Now()

	maxReplans := o.effectiveMaxReplans(constraints)

	var plan *planning.Plan
	for {
		p, err := o.plan(sessCtx, sess, logger)
		if err != nil {
			return o.fail(sess, startedAt, err), nil
		}
		plan = p

		if err := o.executeAll(sessCtx, sess, plan, logger); err != nil {
			return o.fail(sess, startedAt, err), nil
		}

		if !hasFailedTask(sess.tasks) || sess.replans >= maxReplans {
			break
		}
		sess.replans++
		logger.Warn("replanning after task failures", "attempt", sess.replans, "max_replans", maxReplans)
		sess.tasks = nil
	}

	episode, err := o.record(sessCtx, sess, plan, startedAt, logger)
	if err != nil {
		return o.fail(sess, startedAt, err), nil
	}

	if o.learner != nil {
		sess.info.Phase = PhaseLearningScheduled
	}
	o.scheduleLearning(sessCtx, episode, logger)

	sess.info.Phase = PhaseDone
	return Result{
		SessionID: sessionID,
		Phase:     PhaseDone,
		Output:    map[string]any{"episode_id": episode.ID},
		Metrics: Metrics{
			Duration:        time.Since(startedAt),
			TasksDispatched: len(sess.tasks),
			TasksSucceeded:  countSuccesses(sess.tasks),
			TasksFailed:     len(sess.tasks) - countSuccesses(sess.tasks),
			ReplanCount:     sess.replans,
		},
		CompletedAt: time.Now(),
	}, nil
}

func (o *Orchestrator) plan(ctx context.Context, sess *session, logger *slog.Logger) (*planning.Plan, error) {
	sess.info.Phase = PhasePlanning
	logger.Info("planning")
	p, err := o.planner.GeneratePlan(ctx, sess.info.Goal)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: plan: %w", err)
	}
	if sess.constraints.MaxTasks > 0 && len(p.Tasks) > sess.constraints.MaxTasks {
		return nil, fmt.Errorf("orchestrator: plan has %d tasks, exceeding session limit %d", len(p.Tasks), sess.constraints.MaxTasks)
	}
	return p, nil
}

func (o *Orchestrator) fail(sess *session, startedAt time.Time, cause error) Result {
	sess.info.Phase = PhaseError
	return Result{
		SessionID: sess.info.ID,
		Phase:     PhaseError,
		Error:     cause.Error(),
		Metrics: Metrics{
			Duration:        time.Since(startedAt),
			TasksDispatched: len(sess.tasks),
			TasksSucceeded:  countSuccesses(sess.tasks),
			TasksFailed:     len(sess.tasks) - countSuccesses(sess.tasks),
			ReplanCount:     sess.replans,
		},
		CompletedAt: time.Now(),
	}
}

func countSuccesses(tasks []EpisodeTaskOutcome) int {
	n := 0
	for _, t := range tasks {
		if t.Success {
			n++
		}
	}
	return n
}

// hasFailedTask reports whether any dispatched (non-skipped) task failed.
func hasFailedTask(tasks []EpisodeTaskOutcome) bool {
	for _, t := range tasks {
		if !t.Success {
			return true
		}
	}
	return false
}

// effectiveMaxReplans resolves the replan budget for a session: the
// session's own Constraints.MaxReplans, capped by the system-wide
// config.PlanningConfig.MaxReplanAttempts. A zero Constraints.MaxReplans
// defers entirely to the system-wide cap.
func (o *Orchestrator) effectiveMaxReplans(constraints Constraints) int {
	max := o.cfg.Planning.MaxReplanAttempts
	if constraints.MaxReplans > 0 && constraints.MaxReplans < max {
		max = constraints.MaxReplans
	}
	if max < 0 {
		max = 0
	}
	return max
}

// Cancel aborts an in-flight session by ID, if one exists.
func (o *Orchestrator) Cancel(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, ok := o.sessions[sessionID]
	if !ok {
		return false
	}
	sess.cancel()
	return true
}
