package planning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/memory"
	"github.com/zero-day-ai/pera/registry"
)

// Strategy names how a Plan was produced.
type Strategy string

const (
	StrategySkillBased   Strategy = "skill_based"
	StrategyLLMReasoning Strategy = "llm_reasoning"
	StrategyHybrid       Strategy = "hybrid"
)

// PlanTask is one node of a Plan's dependency DAG.
type PlanTask struct {
	ID        string         `json:"id"`
	ToolName  string         `json:"tool_name"`
	TaskType  string         `json:"task_type"`
	Params    map[string]any `json:"params"`
	DependsOn []string       `json:"depends_on"`

	// Precondition is an optional CEL expression over Params and prior
	// task outputs ("outputs"); the task is skipped if it evaluates false.
	Precondition string `json:"precondition,omitempty"`
}

// Plan is a validated, executable DAG of tasks for a single goal.
type Plan struct {
	ID       string     `json:"id"`
	Goal     string     `json:"goal"`
	Strategy Strategy   `json:"strategy"`
	Tasks    []PlanTask `json:"tasks"`

	// Bands groups task IDs into parallel execution waves: every task in
	// Bands[i] depends only on tasks in Bands[0..i-1].
	Bands [][]string `json:"bands"`
}

// Errors returned by plan validation.
var (
	ErrEmptyPlan       = errors.New("planning: plan has no tasks")
	ErrCyclicPlan      = errors.New("planning: plan dependency graph has a cycle")
	ErrUnknownTool     = errors.New("planning: task references an unregistered tool")
	ErrDanglingDep     = errors.New("planning: task depends on a task ID not present in the plan")
	ErrInvalidPreconds = errors.New("planning: task precondition failed to compile")
)

// LLMClient is the narrow capability the Planner uses for LLM-reasoning
// fallback: a single text-in, text-out completion call. Production callers
// plug in a real provider.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Planner generates and validates Plans for incoming goals.
type Planner struct {
	knowledge memory.KnowledgeStore
	catalog   registry.Catalog
	llm       LLMClient
	cel       *celEvaluator
	cache     *lru.Cache[string, *Plan]
	cfg       config.PlanningConfig
}

// NewPlanner constructs a Planner. llm may be nil, in which case goals with
// no matching skill fail planning rather than falling back to LLM reasoning.
func NewPlanner(cfg config.PlanningConfig, knowledge memory.KnowledgeStore, catalog registry.Catalog, llmClient LLMClient) (*Planner, error) {
	cap := cfg.CacheCapacity
	if cap <= 0 {
		cap = 1
	}
	cache, err := lru.New[string, *Plan](cap)
	if err != nil {
		return nil, fmt.Errorf("planning: construct cache: %w", err)
	}
	cel, err := newCELEvaluator()
	if err != nil {
		return nil, fmt.Errorf("planning: construct precondition evaluator: %w", err)
	}
	return &Planner{
		knowledge: knowledge,
		catalog:   catalog,
		llm:       llmClient,
		cel:       cel,
		cache:     cache,
		cfg:       cfg,
	}, nil
}

// EvalPrecondition evaluates a task precondition expression against its
// params and the accumulated outputs of prior tasks. Exported so the
// Orchestrator can skip a task whose precondition evaluates false without
// reaching into the Planner's internals.
func (p *Planner) EvalPrecondition(expr string, params, outputs map[string]any) (bool, error) {
	return p.cel.Eval(expr, params, outputs)
}

func cacheKey(goal string) string {
	sum := sha256.Sum256([]byte(goal))
	return hex.EncodeToString(sum[:])
}

// GeneratePlan produces a validated, optimized Plan for goal. It first
// checks the plan cache, then attempts skill-based adaptation against the
// Knowledge Store, and falls back to LLM reasoning (or a hybrid of the two,
// grafting LLM-filled gaps onto a partial skill match) when no sufficiently
// confident skill is found.
func (p *Planner) GeneratePlan(ctx context.Context, goal string) (*Plan, error) {
	if goal == "" {
		return nil, fmt.Errorf("%w: empty goal", ErrEmptyPlan)
	}

	if cached, ok := p.cache.Get(cacheKey(goal)); ok {
		return cached, nil
	}

	plan, err := p.generate(ctx, goal)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(ctx, plan); err != nil {
		return nil, err
	}
	optimize(plan)

	p.cache.Add(cacheKey(goal), plan)
	return plan, nil
}

func (p *Planner) generate(ctx context.Context, goal string) (*Plan, error) {
	matches, err := p.knowledge.SearchSkills(ctx, goal, 1)
	if err != nil {
		return nil, fmt.Errorf("planning: search skills: %w", err)
	}

	if len(matches) > 0 && matches[0].Score >= p.cfg.SkillConfidenceThreshold {
		return planFromSkill(goal, matches[0].Skill, StrategySkillBased), nil
	}

	if p.llm == nil {
		if len(matches) == 0 {
			return nil, fmt.Errorf("planning: no matching skill and no LLM client configured")
		}
		// Partial match below confidence threshold, used as-is (hybrid
		// without an LLM gap-filler degrades to the best skill we have).
		return planFromSkill(goal, matches[0].Skill, StrategyHybrid), nil
	}

	tasks, err := p.reasonWithLLM(ctx, goal)
	if err != nil {
		return nil, err
	}

	strategy := StrategyLLMReasoning
	if len(matches) > 0 {
		strategy = StrategyHybrid
		merged := planFromSkill(goal, matches[0].Skill, StrategyHybrid).Tasks
		seen := make(map[string]bool, len(merged))
		for _, t := range merged {
			seen[t.ID] = true
		}
		for _, t := range tasks {
			if !seen[t.ID] {
				merged = append(merged, t)
			}
		}
		tasks = merged
	}
	return &Plan{ID: cacheKey(goal), Goal: goal, Strategy: strategy, Tasks: tasks}, nil
}

func planFromSkill(goal string, sk *memory.Skill, strategy Strategy) *Plan {
	tasks := make([]PlanTask, 0, len(sk.Steps))
	for i, step := range sk.Steps {
		deps := make([]string, 0, len(step.DependsOn))
		for _, d := range step.DependsOn {
			deps = append(deps, fmt.Sprintf("step-%d", d))
		}
		tasks = append(tasks, PlanTask{
			ID:        fmt.Sprintf("step-%d", i),
			ToolName:  step.ToolName,
			Params:    step.Params,
			DependsOn: deps,
		})
	}
	return &Plan{ID: cacheKey(goal), Goal: goal, Strategy: strategy, Tasks: tasks}
}

// llmPlanTask is the JSON shape the LLM-reasoning prompt asks the model to
// produce, decoded into PlanTask once extracted from the response.
type llmPlanTask struct {
	ID        string         `json:"id"`
	ToolName  string         `json:"tool_name"`
	TaskType  string         `json:"task_type"`
	Params    map[string]any `json:"params"`
	DependsOn []string       `json:"depends_on"`
}

func (p *Planner) reasonWithLLM(ctx context.Context, goal string) ([]PlanTask, error) {
	tools, _ := p.catalog.ListByTaskType(ctx, "")
	prompt := buildPlanningPrompt(goal, tools)

	raw, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning: llm generate: %w", err)
	}

	jsonStart := strings.IndexByte(raw, '[')
	jsonEnd := strings.LastIndexByte(raw, ']')
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("planning: could not find a JSON task array in LLM output")
	}

	var decoded []llmPlanTask
	if err := json.Unmarshal([]byte(raw[jsonStart:jsonEnd+1]), &decoded); err != nil {
		return nil, fmt.Errorf("planning: decode LLM plan: %w", err)
	}

	tasks := make([]PlanTask, len(decoded))
	for i, d := range decoded {
		tasks[i] = PlanTask{ID: d.ID, ToolName: d.ToolName, TaskType: d.TaskType, Params: d.Params, DependsOn: d.DependsOn}
	}
	return tasks, nil
}

func buildPlanningPrompt(goal string, tools []registry.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("Produce a JSON array of tasks that accomplishes this goal: ")
	sb.WriteString(goal)
	sb.WriteString("\nEach task has: id, tool_name, task_type, params, depends_on (list of task ids).\n")
	sb.WriteString("Available tools:\n")
	for _, t := range tools {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", t.Name, strings.Join(t.TaskTypes, ","), t.Description))
	}
	return sb.String()
}

// optimize assigns Bands via topological sort, the parallel execution
// waves the Orchestrator dispatches band-by-band.
func optimize(plan *Plan) {
	plan.Bands = topoBands(plan.Tasks)
}

func topoBands(tasks []PlanTask) [][]string {
	byID := make(map[string]PlanTask, len(tasks))
	inDegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		inDegree[t.ID] = len(t.DependsOn)
		for _, d := range t.DependsOn {
			dependents[d] = append(dependents[d], t.ID)
		}
	}

	var bands [][]string
	remaining := len(tasks)
	for remaining > 0 {
		var band []string
		for id, deg := range inDegree {
			if deg == 0 {
				band = append(band, id)
			}
		}
		if len(band) == 0 {
			break // cycle; caller validates separately
		}
		sort.Strings(band)
		bands = append(bands, band)
		for _, id := range band {
			delete(inDegree, id)
			remaining--
			for _, dep := range dependents[id] {
				inDegree[dep]--
			}
		}
	}
	return bands
}
