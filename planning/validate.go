package planning

import (
	"context"
	"fmt"
)

// Validate checks a Plan's structural invariants: it is non-empty, its
// dependency graph is acyclic, every dependency references a task present
// in the plan, every task's tool is known to the catalog (when ToolName is
// set explicitly), and every task's precondition (if any) compiles.
func (p *Planner) Validate(ctx context.Context, plan *Plan) error {
	if len(plan.Tasks) == 0 {
		return ErrEmptyPlan
	}

	ids := make(map[string]bool, len(plan.Tasks))
	for _, t := range plan.Tasks {
		ids[t.ID] = true
	}
	for _, t := range plan.Tasks {
		for _, dep := range t.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("%w: task %s depends on %s", ErrDanglingDep, t.ID, dep)
			}
		}
	}

	if bands := topoBands(plan.Tasks); countBanded(bands) != len(plan.Tasks) {
		return ErrCyclicPlan
	}

	for _, t := range plan.Tasks {
		if t.ToolName != "" && t.ToolName != "auto" && p.catalog != nil {
			if _, err := p.catalog.Get(ctx, t.ToolName); err != nil {
				return fmt.Errorf("%w: %s", ErrUnknownTool, t.ToolName)
			}
		}
		if t.Precondition != "" {
			if _, issues := p.cel.env.Compile(t.Precondition); issues != nil && issues.Err() != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPreconds, issues.Err())
			}
		}
	}

	return nil
}

func countBanded(bands [][]string) int {
	n := 0
	for _, b := range bands {
		n += len(b)
	}
	return n
}
