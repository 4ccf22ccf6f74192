package exec

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/pera/parser"
)

// ShellInvoker satisfies Invoker by running the tool name as an external
// binary, passing each param as a "--key=value" flag. It is one concrete
// way to plug a tool into the Execution Engine; network- or
// in-process-backed invokers implement the same interface without
// depending on this package at all.
type ShellInvoker struct {
	Timeout func() string // optional, reserved for future use
}

// NewShellInvoker returns an Invoker that shells out to toolName directly.
func NewShellInvoker() Invoker {
	return ShellInvoker{}
}

func (ShellInvoker) Invoke(ctx context.Context, toolName string, params map[string]any) (any, error) {
	if !BinaryExists(toolName) {
		return nil, fmt.Errorf("binary not found: %s", toolName)
	}
	args := make([]string, 0, len(params))
	for k, v := range params {
		args = append(args, fmt.Sprintf("--%s=%v", k, v))
	}
	res, err := RunShell(ctx, ShellConfig{Command: toolName, Args: args})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("tool %s exited with code %d: %s", toolName, res.ExitCode, string(res.Stderr))
	}
	if out, err := parser.ParseJSON[any](res.Stdout); err == nil {
		return *out, nil
	}
	return string(res.Stdout), nil
}
