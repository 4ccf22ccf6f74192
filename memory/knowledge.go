package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memKnowledgeStore is an in-process KnowledgeStore. Skill search embeds
// each skill's description+goal pattern once at write time and compares
// against the query embedding with cosine similarity, the same technique
// the teacher SDK's long-term memory tier documents for LongTermMemory.Search.
type memKnowledgeStore struct {
	mu          sync.RWMutex
	skills      map[string]*Skill
	skillVecs   map[string][]float64
	preferences map[string]*Preference
	embedder    Embedder
	threshold   float64
}

// NewKnowledgeStore constructs an in-process KnowledgeStore. threshold is
// the minimum cosine similarity SearchSkills requires to return a match.
func NewKnowledgeStore(embedder Embedder, threshold float64) KnowledgeStore {
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	return &memKnowledgeStore{
		skills:      make(map[string]*Skill),
		skillVecs:   make(map[string][]float64),
		preferences: make(map[string]*Preference),
		embedder:    embedder,
		threshold:   threshold,
	}
}

func (s *memKnowledgeStore) PutSkill(ctx context.Context, skill *Skill) error {
	if skill == nil || skill.ID == "" {
		return ErrInvalidKey
	}
	vec, err := s.embedder.Embed(ctx, skill.Description+" "+skill.GoalPattern)
	if err != nil {
		return fmt.Errorf("%w: embed skill: %v", ErrStorageFailed, err)
	}
	now := time.Now()
	cp := *skill
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[cp.ID] = &cp
	s.skillVecs[cp.ID] = vec
	return nil
}

func (s *memKnowledgeStore) GetSkill(_ context.Context, id string) (*Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sk, ok := s.skills[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sk
	return &cp, nil
}

func (s *memKnowledgeStore) DeleteSkill(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.skills[id]; !ok {
		return ErrNotFound
	}
	delete(s.skills, id)
	delete(s.skillVecs, id)
	return nil
}

func (s *memKnowledgeStore) SearchSkills(ctx context.Context, goal string, topK int) ([]SkillMatch, error) {
	queryVec, err := s.embedder.Embed(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrStorageFailed, err)
	}

	s.mu.RLock()
	matches := make([]SkillMatch, 0, len(s.skills))
	for id, sk := range s.skills {
		score := cosineSimilarity(queryVec, s.skillVecs[id])
		if score < s.threshold {
			continue
		}
		cp := *sk
		matches = append(matches, SkillMatch{Skill: &cp, Score: score})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *memKnowledgeStore) ListSkills(_ context.Context) ([]*Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		cp := *sk
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memKnowledgeStore) PutPreference(_ context.Context, pref *Preference) error {
	if pref == nil || pref.Key == "" {
		return ErrInvalidKey
	}
	cp := *pref
	cp.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[cp.Key] = &cp
	return nil
}

func (s *memKnowledgeStore) GetPreference(_ context.Context, key string) (*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.preferences[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memKnowledgeStore) ListPreferences(_ context.Context) ([]*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Preference, 0, len(s.preferences))
	for _, p := range s.preferences {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// PruneUnused removes skills that have never been used (UsageCount==0) and
// whose CreatedAt is at least maxAge before now. It runs only when called;
// nothing in this module schedules it.
func PruneUnused(ctx context.Context, ks KnowledgeStore, maxAge time.Duration, now time.Time) (int, error) {
	all, err := ks.ListSkills(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, sk := range all {
		if sk.UsageCount > 0 {
			continue
		}
		if now.Sub(sk.CreatedAt) < maxAge {
			continue
		}
		if err := ks.DeleteSkill(ctx, sk.ID); err == nil {
			removed++
		}
	}
	return removed, nil
}
