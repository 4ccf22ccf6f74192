// Package planning implements PERA's Planner (PLN): it turns a goal string
// into a validated, optimized Plan. GeneratePlan first tries to adapt an
// existing Skill from the Knowledge Store; if none matches with enough
// confidence, it falls back to LLM reasoning (or grafts the two together as
// a hybrid), then validates the result — non-empty, acyclic, every tool
// known to the registry, every precondition a well-formed CEL expression —
// and assigns parallel execution bands before caching it.
//
// It also carries the narrower PlanningContext/StepHints interfaces that
// let an executing tool or agent observe its place in a Plan and feed
// confidence/replan signals back, independent of how the Plan itself was
// produced. This package enables agents to:
//   - Be aware of their position in mission execution
//   - Access budget constraints (step and mission level)
//   - Provide feedback to the planning system
//   - Suggest next steps and recommend replanning
//
// # PlanningContext
//
// The PlanningContext interface provides read-only access to the mission plan state.
// Agents receive this through the harness:
//
//	func (a *MyAgent) Execute(ctx context.Context, task agent.Task, harness harness.AgentHarness) (agent.Result, error) {
//	    planCtx := harness.PlanContext()
//	    if planCtx == nil {
//	        // Planning not enabled, proceed normally
//	        return a.executeNormal(ctx, task, harness)
//	    }
//
//	    // Adapt based on plan position
//	    if planCtx.CurrentStepIndex() == 0 {
//	        // First step - initialize mission state
//	    }
//
//	    if planCtx.StepBudget() < 1000 {
//	        // Low budget - use efficient strategy
//	    }
//
//	    if planCtx.CurrentStepIndex() == planCtx.TotalSteps()-1 {
//	        // Last step - summarize findings
//	    }
//
//	    // ...
//	}
//
// # StepHints
//
// The StepHints builder allows agents to provide feedback to the planner.
// Use the fluent builder pattern to construct hints:
//
//	hints := planning.NewStepHints().
//	    WithConfidence(0.85).
//	    WithKeyFinding("Admin panel discovered at /admin").
//	    WithKeyFinding("Default credentials may be in use").
//	    WithSuggestion("auth_bypass_agent").
//	    RecommendReplan("Target uses custom auth - standard attacks ineffective")
//
//	// Report to the framework
//	harness.ReportStepHints(ctx, hints)
//
// StepHints only carries these signals; nothing else in this module reads
// them, so acting on them is up to the harness that receives them.
//
// # Design Principles
//
// The PlanningContext and StepHints types use only the standard library.
// The Planner itself depends on cel-go, golang-lru and this module's
// config, memory and registry packages.
//
// The interfaces are read-only to prevent agents from modifying mission state directly.
// All state changes flow through the harness to maintain consistency.
package planning
