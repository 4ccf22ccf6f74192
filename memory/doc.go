// Package memory implements PERA's Memory Substrate (MEM), the triple-layer
// store every other component reads from and writes to:
//
//   - Working Store: ephemeral, TTL-bounded, per-session scratch space for
//     an in-flight goal cycle (intermediate results, partial plan state).
//   - Knowledge Store: durable skills and preferences, searchable by
//     semantic similarity to a new goal, that the Learning Loop populates
//     and the Planner consults.
//   - Episodic Log: an append-only, checksummed history of completed goal
//     cycles, the Learning Loop's raw material and the audit trail for
//     "what did the orchestrator actually do".
//
// All three are reachable through a single Store, obtained via NewStore:
//
//	st, err := memory.NewStore(cfg.Memory, redisClient, memory.NewHashEmbedder())
//	st.Working().Set(ctx, sessionID, "cursor", 3, time.Minute)
//	matches, _ := st.Knowledge().SearchSkills(ctx, goal, 5)
//	st.Episodic().Append(ctx, episode)
package memory
