package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RemoteInvoker lets the Execution Engine dispatch a Task to a worker
// process over Redis instead of running it in this binary: it pushes a
// WorkItem onto the tool's queue and blocks on a per-job pub/sub channel
// until a matching Result arrives or ctx is cancelled. It satisfies the
// same narrow invocation seam as any in-process exec.Invoker, so the
// Engine does not need to know a tool is remote.
type RemoteInvoker struct {
	client  Client
	timeout time.Duration
}

// NewRemoteInvoker returns a RemoteInvoker backed by client. timeout bounds
// how long Invoke waits for a worker to publish a result once it has been
// queued; zero means wait until ctx is cancelled.
func NewRemoteInvoker(client Client, timeout time.Duration) *RemoteInvoker {
	return &RemoteInvoker{client: client, timeout: timeout}
}

// Invoke pushes params as a single-item WorkItem to tool:<toolName>:queue
// and waits for the corresponding Result on results:<jobID>. It returns the
// decoded OutputJSON on success, or an error built from Result.Error (or
// from the wait itself timing out or ctx being cancelled).
func (r *RemoteInvoker) Invoke(ctx context.Context, toolName string, params map[string]any) (any, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal params: %w", err)
	}

	jobID := uuid.NewString()
	channel := fmt.Sprintf("results:%s", jobID)

	results, err := r.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("queue: subscribe to %s: %w", channel, err)
	}

	item := WorkItem{
		JobID:       jobID,
		Index:       0,
		Total:       1,
		Tool:        toolName,
		ParamsJSON:  string(paramsJSON),
		SubmittedAt: time.Now().UnixMilli(),
	}
	if err := item.IsValid(); err != nil {
		return nil, fmt.Errorf("queue: invalid work item: %w", err)
	}

	queueName := formatKeyName("tool", toolName, "queue")
	if err := r.client.Push(ctx, queueName, item); err != nil {
		return nil, fmt.Errorf("queue: push to %s: %w", queueName, err)
	}

	select {
	case res, ok := <-results:
		if !ok {
			return nil, fmt.Errorf("queue: result channel %s closed before a result arrived", channel)
		}
		if res.HasError() {
			return nil, fmt.Errorf("tool %s: %s", toolName, res.Error)
		}
		var output any
		if err := json.Unmarshal([]byte(res.OutputJSON), &output); err != nil {
			// Not every tool's output is JSON; hand back the raw string
			// rather than fail a call that otherwise succeeded.
			return res.OutputJSON, nil
		}
		return output, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("queue: waiting for result on %s: %w", channel, ctx.Err())
	}
}
