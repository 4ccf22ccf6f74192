package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/pera/memory"
	"github.com/zero-day-ai/pera/planning"
)

// record folds a session's dispatched tasks into an Episode, appends it to
// the Episodic Log, and clears the session's working-store scratch state.
func (o *Orchestrator) record(ctx context.Context, sess *session, plan *planning.Plan, startedAt time.Time, logger *slog.Logger) (*memory.Episode, error) {
	sess.info.Phase = PhaseRecording

	tasks := make([]memory.EpisodeTask, len(sess.tasks))
	for i, t := range sess.tasks {
		tasks[i] = memory.EpisodeTask{
			ID:         t.ID,
			ToolName:   t.ToolName,
			Success:    t.Success,
			DurationMS: t.DurationMS,
			RetryCount: t.RetryCount,
			ErrorKind:  t.ErrorKind,
		}
	}

	ep := &memory.Episode{
		ID:            "episode_" + uuid.New().String(),
		SessionID:     sess.info.ID,
		Goal:          sess.info.Goal,
		Status:        episodeStatus(sess.tasks),
		Tasks:         tasks,
		StartedAt:     startedAt,
		EndedAt:       time.Now(),
		SystemVersion: o.systemVersion,
		Metadata:      map[string]any{"strategy": string(plan.Strategy)},
	}
	ep.Checksum = memory.ComputeChecksum(ep)

	if err := o.mem.Episodic().Append(ctx, ep); err != nil {
		return nil, fmt.Errorf("orchestrator: append episode: %w", err)
	}

	if err := o.mem.Working().ClearSession(ctx, sess.info.ID); err != nil {
		logger.Warn("failed to clear working store for session", "error", err)
	}

	logger.Info("episode recorded", "episode_id", ep.ID, "status", ep.Status)
	return ep, nil
}

func episodeStatus(tasks []EpisodeTaskOutcome) memory.EpisodeStatus {
	if len(tasks) == 0 {
		return memory.EpisodeFailed
	}
	succeeded := 0
	for _, t := range tasks {
		if t.Success {
			succeeded++
		}
	}
	switch {
	case succeeded == len(tasks):
		return memory.EpisodeSucceeded
	case succeeded == 0:
		return memory.EpisodeFailed
	default:
		return memory.EpisodePartial
	}
}

// scheduleLearning hands a freshly-recorded episode to the Learner, if one
// is configured. It never blocks Submit's return on learning outcome: a
// Learner implementation is expected to enqueue and return, with analysis
// happening on its own cycle.
func (o *Orchestrator) scheduleLearning(ctx context.Context, ep *memory.Episode, logger *slog.Logger) {
	if o.learner == nil {
		return
	}
	if err := o.learner.ScheduleLearning(ctx, ep); err != nil {
		logger.Warn("failed to schedule learning", "episode_id", ep.ID, "error", err)
	}
}
