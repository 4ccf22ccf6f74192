package memory

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/pera/config"
)

// store wires the three memory tiers behind the Store facade.
type store struct {
	working   WorkingStore
	knowledge KnowledgeStore
	episodic  EpisodicLog
}

func (s *store) Working() WorkingStore     { return s.working }
func (s *store) Knowledge() KnowledgeStore { return s.knowledge }
func (s *store) Episodic() EpisodicLog     { return s.episodic }

// NewStore constructs a Store from configuration. redisClient is required
// when cfg.Backend is config.BackendRedis and ignored otherwise; the
// Knowledge Store and Episodic Log are always in-process (see SPEC_FULL.md
// §4.1 for why no Redis-backed implementation is offered for those two).
func NewStore(cfg config.MemoryConfig, redisClient *redis.Client, embedder Embedder) (Store, error) {
	var working WorkingStore
	switch cfg.Backend {
	case config.BackendMemory, "":
		working = NewMemWorkingStore(cfg.WorkingTTL, cfg.SweepInterval)
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("%w: redis backend requires a client", ErrStorageFailed)
		}
		working = NewRedisWorkingStore(redisClient, cfg.WorkingTTL)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidValue, cfg.Backend)
	}

	return &store{
		working:   working,
		knowledge: NewKnowledgeStore(embedder, cfg.SimilarityThreshold),
		episodic:  NewEpisodicLog(),
	}, nil
}
