package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zero-day-ai/pera/exec"
	"github.com/zero-day-ai/pera/planning"
)

// executeAll dispatches a Plan's tasks band by band: every task in a band
// runs concurrently (grounded on the teacher's worker-pool idiom of
// goroutines, a WaitGroup, and a buffered result channel), and a band only
// starts once every task in the prior band has completed, since later
// bands may depend on earlier tasks' outputs.
func (o *Orchestrator) executeAll(ctx context.Context, sess *session, plan *planning.Plan, logger *slog.Logger) error {
	sess.info.Phase = PhaseExecuting
	byID := make(map[string]planning.PlanTask, len(plan.Tasks))
	for _, t := range plan.Tasks {
		byID[t.ID] = t
	}

	outputs := make(map[string]any, len(plan.Tasks))
	var outputsMu sync.Mutex

	for bandIdx, band := range plan.Bands {
		if ctx.Err() != nil {
			return fmt.Errorf("orchestrator: session cancelled during band %d: %w", bandIdx, ctx.Err())
		}

		results := make(chan taskOutcome, len(band))
		var wg sync.WaitGroup
		for _, taskID := range band {
			task := byID[taskID]
			wg.Add(1)
			go func(t planning.PlanTask) {
				defer wg.Done()
				results <- o.runOne(ctx, t, outputs, &outputsMu, logger)
			}(task)
		}
		wg.Wait()
		close(results)

		for outcome := range results {
			sess.tasks = append(sess.tasks, outcome.episodeTask)
			if outcome.output != nil {
				outputsMu.Lock()
				outputs[outcome.episodeTask.ID] = outcome.output
				outputsMu.Unlock()
			}
			if !outcome.episodeTask.Success && !outcome.skipped {
				logger.Error("task failed", "task_id", outcome.episodeTask.ID, "tool", outcome.episodeTask.ToolName, "error_kind", outcome.episodeTask.ErrorKind)
			}
		}
	}
	return nil
}

type taskOutcome struct {
	episodeTask EpisodeTaskOutcome
	output      any
	skipped     bool
}

func (o *Orchestrator) runOne(ctx context.Context, task planning.PlanTask, outputs map[string]any, outputsMu *sync.Mutex, logger *slog.Logger) taskOutcome {
	if task.Precondition != "" {
		outputsMu.Lock()
		snapshot := make(map[string]any, len(outputs))
		for k, v := range outputs {
			snapshot[k] = v
		}
		outputsMu.Unlock()

		ok, err := o.planner.EvalPrecondition(task.Precondition, task.Params, snapshot)
		if err != nil {
			return taskOutcome{episodeTask: EpisodeTaskOutcome{ID: task.ID, ToolName: task.ToolName, Success: false, ErrorKind: "precondition_error"}}
		}
		if !ok {
			logger.Debug("task skipped: precondition false", "task_id", task.ID)
			return taskOutcome{episodeTask: EpisodeTaskOutcome{ID: task.ID, ToolName: task.ToolName, Success: true}, skipped: true}
		}
	}

	result, err := o.exec.Dispatch(ctx, exec.Task{
		ID:       task.ID,
		ToolName: task.ToolName,
		TaskType: task.TaskType,
		Params:   task.Params,
	})
	if err != nil {
		return taskOutcome{episodeTask: EpisodeTaskOutcome{ID: task.ID, ToolName: task.ToolName, Success: false, ErrorKind: "dispatch_error"}}
	}

	errorKind := ""
	if !result.Success {
		errorKind = string(result.Classification.Kind)
	}
	return taskOutcome{
		episodeTask: EpisodeTaskOutcome{
			ID:         task.ID,
			ToolName:   result.ToolName,
			Success:    result.Success,
			DurationMS: result.DurationMS,
			RetryCount: result.Attempts - 1,
			ErrorKind:  errorKind,
		},
		output: result.Output,
	}
}
