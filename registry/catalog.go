package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrToolNotFound is returned when a catalog lookup finds no matching tool.
var ErrToolNotFound = errors.New("registry: tool not found")

// Catalog is the Tool Registry's domain-facing half: it tracks which tools
// are known, what task types they serve, and how well they have performed,
// so the execution engine can resolve a task's tool either explicitly or by
// asking the catalog for the best fit. It is independent of, and typically
// composed with, the etcd-backed Registry above for multi-instance
// discovery — Catalog answers "which tool", Registry answers "which
// instance of it is alive and where".
type Catalog interface {
	// Register adds or replaces a tool's catalog entry.
	Register(ctx context.Context, d Descriptor) error

	// Get returns a tool's descriptor by name.
	Get(ctx context.Context, name string) (Descriptor, error)

	// ListByTaskType returns every registered tool capable of the given
	// task type, ordered by descending fitness score.
	ListByTaskType(ctx context.Context, taskType string) ([]Descriptor, error)

	// RecordOutcome updates a tool's fitness metrics after an invocation.
	RecordOutcome(ctx context.Context, name string, success bool, durationMS int64) error

	// Fitness returns a tool's current fitness score, or 0.5 if unknown.
	Fitness(name string) float64
}

type memCatalog struct {
	mu      sync.RWMutex
	tools   map[string]Descriptor
	metrics map[string]*Metrics
}

// NewCatalog constructs an in-process Catalog.
func NewCatalog() Catalog {
	return &memCatalog{
		tools:   make(map[string]Descriptor),
		metrics: make(map[string]*Metrics),
	}
}

func (c *memCatalog) Register(_ context.Context, d Descriptor) error {
	if d.Name == "" {
		return errors.New("registry: tool name required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[d.Name] = d
	if _, ok := c.metrics[d.Name]; !ok {
		c.metrics[d.Name] = &Metrics{}
	}
	return nil
}

func (c *memCatalog) Get(_ context.Context, name string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.tools[name]
	if !ok {
		return Descriptor{}, ErrToolNotFound
	}
	return d, nil
}

func (c *memCatalog) ListByTaskType(_ context.Context, taskType string) ([]Descriptor, error) {
	c.mu.RLock()
	type scored struct {
		d     Descriptor
		score float64
	}
	var candidates []scored
	for _, d := range c.tools {
		for _, t := range d.TaskTypes {
			if t == taskType {
				candidates = append(candidates, scored{d: d, score: c.metrics[d.Name].FitnessScore()})
				break
			}
		}
	}
	c.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	out := make([]Descriptor, len(candidates))
	for i, s := range candidates {
		out[i] = s.d
	}
	return out, nil
}

func (c *memCatalog) RecordOutcome(_ context.Context, name string, success bool, durationMS int64) error {
	c.mu.Lock()
	m, ok := c.metrics[name]
	if !ok {
		m = &Metrics{}
		c.metrics[name] = m
	}
	c.mu.Unlock()

	if success {
		m.RecordSuccess(durationMS)
	} else {
		m.RecordFailure(durationMS)
	}
	return nil
}

func (c *memCatalog) Fitness(name string) float64 {
	c.mu.RLock()
	m, ok := c.metrics[name]
	c.mu.RUnlock()
	if !ok {
		return 0.5
	}
	return m.FitnessScore()
}
