// Package pera implements PERA — Plan, Execute, Record, Adapt — a
// goal-orchestration library. A caller constructs a pera.System with
// New, wiring in an LLM client and a tool Invoker, and drives goals
// through System.Submit: each call generates a Plan for the goal,
// dispatches its tasks band by band against the Execution Engine,
// records the outcome as an Episode, and schedules it for asynchronous
// learning.
//
// The seven components — Memory Substrate, Tool Registry, Execution
// Engine, Planner, Orchestrator, Learning Loop, and Bus — live in their
// own packages (memory, registry, exec, planning, orchestrator, learning,
// bus); this package wires them together the way the teacher's root
// package wired its agent/tool/plugin registries into one Framework.
package pera
