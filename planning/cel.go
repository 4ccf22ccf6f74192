package planning

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// celEvaluator compiles and runs task precondition expressions. Expressions
// see two variables: params (the task's own Params) and outputs (a map of
// prior task ID to that task's output), matching the shape the Orchestrator
// accumulates as a plan's bands complete.
type celEvaluator struct {
	env *cel.Env
}

func newCELEvaluator() (*celEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.DynType),
		cel.Variable("outputs", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("planning: build CEL env: %w", err)
	}
	return &celEvaluator{env: env}, nil
}

// Eval compiles expr on every call and evaluates it against the given activation,
// returning the boolean result. A precondition that does not evaluate to a
// bool is a configuration error, not a false precondition.
func (e *celEvaluator) Eval(expr string, params map[string]any, outputs map[string]any) (bool, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPreconds, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPreconds, err)
	}
	out, _, err := prg.Eval(map[string]any{"params": params, "outputs": outputs})
	if err != nil {
		return false, fmt.Errorf("planning: evaluate precondition %q: %w", expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("planning: precondition %q did not evaluate to a bool", expr)
	}
	return result, nil
}
