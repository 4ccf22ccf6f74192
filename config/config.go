// Package config defines the explicit configuration object threaded through
// every PERA component constructor. There is no package-level mutable state;
// callers load a Config (typically from YAML) and pass it down explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend selects the storage implementation a store uses.
type Backend string

const (
	// BackendMemory keeps all state in process memory. Suitable for tests
	// and single-process deployments; state does not survive a restart.
	BackendMemory Backend = "mem"

	// BackendRedis persists state in Redis, shared across processes.
	BackendRedis Backend = "redis"
)

// Backoff names a retry delay policy (execution.retry_backoff).
type Backoff string

const (
	BackoffNone        Backoff = "none"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
	BackoffFibonacci   Backoff = "fibonacci"
)

// Config is the root configuration object for the PERA orchestrator.
// Every field has a documented default; Default returns a fully populated
// Config so callers only need to override what they care about.
type Config struct {
	Memory    MemoryConfig    `yaml:"memory"`
	Execution ExecutionConfig `yaml:"execution"`
	Planning  PlanningConfig  `yaml:"planning"`
	Learning  LearningConfig  `yaml:"learning"`
	Bus       BusConfig       `yaml:"bus"`
	Monitor   MonitorConfig   `yaml:"monitoring"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// MemoryConfig configures the three memory sub-facades.
type MemoryConfig struct {
	Backend Backend `yaml:"backend"`

	// WorkingTTL is the default expiration applied to a WorkingEntry when
	// the caller does not supply an explicit TTL (memory.working.timeout).
	WorkingTTL time.Duration `yaml:"working_timeout"`

	// CompressionThreshold is a serialized-value size, in bytes, for
	// compressing working-store values. No working store reads it; values
	// are stored uncompressed whatever their size.
	CompressionThreshold int `yaml:"working_compression_threshold"`

	// SweepInterval is how often the working store's background sweeper
	// scans for expired entries.
	SweepInterval time.Duration `yaml:"working_sweep_interval"`

	// EpisodicURI and KnowledgePath mirror memory.episodic.uri and
	// memory.knowledge.path. Interpretation is backend-specific (a Redis
	// URL for BackendRedis, ignored for BackendMemory).
	EpisodicURI   string `yaml:"episodic_uri"`
	KnowledgePath string `yaml:"knowledge_path"`

	// KnowledgeOptimizeInterval is a cadence for knowledge-store pruning.
	// No component in this module reads it; the knowledge store runs no
	// background optimizer.
	KnowledgeOptimizeInterval time.Duration `yaml:"knowledge_optimize_interval"`

	// SkillMaxUnusedAge is an age limit for never-used skills. No component
	// in this module reads it; memory.PruneUnused takes its maximum age as
	// an argument and deletes matching skills outright.
	SkillMaxUnusedAge time.Duration `yaml:"skill_max_unused_age"`

	// SimilarityThreshold is the minimum cosine similarity for a semantic
	// search hit to be returned.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// ExecutionConfig configures the task execution engine (EXE).
type ExecutionConfig struct {
	DefaultTimeout  time.Duration `yaml:"default_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`
	RetryBackoff    Backoff       `yaml:"retry_backoff"`
	WorkerPoolSize  int           `yaml:"worker_pool_size"`
	QueueTimeout    time.Duration `yaml:"queue_timeout"`
}

// PlanningConfig configures the planner (PLN).
type PlanningConfig struct {
	SimilarityThreshold     float64 `yaml:"similarity_threshold"`
	SkillConfidenceThreshold float64 `yaml:"skill_confidence_threshold"`
	CacheCapacity           int     `yaml:"cache_capacity"`
	MaxReplanAttempts       int     `yaml:"max_replan_attempts"`
	PlanSlack               float64 `yaml:"plan_slack"`
}

// LearningConfig configures the learning loop (LRN).
type LearningConfig struct {
	CycleInterval        time.Duration `yaml:"cycle_interval"`
	WindowHours          int           `yaml:"window_hours"`
	MinEpisodesPerGroup  int           `yaml:"min_episodes_per_group"`
	QualityThreshold     float64       `yaml:"quality_threshold"`
	ImprovementThreshold float64       `yaml:"improvement_threshold"`

	// SuccessFraction is the minimum fraction of successful tasks an
	// episode must have for it to count toward skill derivation. Left
	// configurable because spec.md leaves the partial-episode threshold
	// an open question.
	SuccessFraction float64 `yaml:"success_fraction"`

	// DBSCANEps and DBSCANMinSamples parameterize the pattern-detection
	// clustering pass over the tool sets of successful episodes (Jaccard
	// similarity).
	DBSCANEps        float64 `yaml:"dbscan_eps"`
	DBSCANMinSamples int     `yaml:"dbscan_min_samples"`
}

// BusConfig configures the messaging/tracing substrate (MSG).
type BusConfig struct {
	URL            string        `yaml:"url"`
	ConsumerGroup  string        `yaml:"consumer_group"`
	ClaimMinIdle   time.Duration `yaml:"claim_min_idle"`
	PrefetchCount  int           `yaml:"prefetch_count"`
}

// MonitorConfig configures observability thresholds.
type MonitorConfig struct {
	LatencyWarn time.Duration `yaml:"latency_warn"`
}

// DiscoveryConfig configures the etcd-backed service registry that lets
// multiple PERA instances (and the tools they register) find one another
// in a distributed deployment. Discovery is opt-in: when Enabled is false,
// System never dials etcd and behaves as a single standalone instance.
type DiscoveryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Type names the discovery mode ("embedded" or "etcd"). Default:
	// "embedded". Nothing reads it: discovery always connects to the
	// external etcd cluster at Endpoints.
	Type string `yaml:"type"`

	// Endpoints lists the etcd cluster addresses for Type="etcd".
	Endpoints []string `yaml:"endpoints"`

	// Namespace is the etcd key prefix under which every PERA instance and
	// tool registers.
	Namespace string `yaml:"namespace"`

	// TTL is the registration lease lifetime; a registered instance is
	// renewed at TTL/3 and disappears from discovery if it stops renewing.
	TTL time.Duration `yaml:"ttl"`

	// DataDir and ListenAddress describe an embedded etcd server; nothing
	// reads them.
	DataDir       string `yaml:"data_dir"`
	ListenAddress string `yaml:"listen_address"`

	TLS *DiscoveryTLSConfig `yaml:"tls"`
}

// DiscoveryTLSConfig configures mutual TLS for the etcd connection.
type DiscoveryTLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// Default returns a Config populated with the defaults documented in
// spec.md §6.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			Backend:                   BackendMemory,
			WorkingTTL:                3600 * time.Second,
			CompressionThreshold:      4096,
			SweepInterval:             30 * time.Second,
			KnowledgeOptimizeInterval: time.Hour,
			SkillMaxUnusedAge:         90 * 24 * time.Hour,
			SimilarityThreshold:       0.7,
		},
		Execution: ExecutionConfig{
			DefaultTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 2 * time.Second,
			RetryBackoff:   BackoffExponential,
			WorkerPoolSize: 8,
			QueueTimeout:   10 * time.Second,
		},
		Planning: PlanningConfig{
			SimilarityThreshold:      0.7,
			SkillConfidenceThreshold: 0.8,
			CacheCapacity:            256,
			MaxReplanAttempts:        3,
			PlanSlack:                0.2,
		},
		Learning: LearningConfig{
			CycleInterval:        time.Hour,
			WindowHours:          24,
			MinEpisodesPerGroup:  3,
			QualityThreshold:     0.6,
			ImprovementThreshold: 0.1,
			SuccessFraction:      0.7,
			DBSCANEps:            0.3,
			DBSCANMinSamples:     3,
		},
		Bus: BusConfig{
			URL:           "redis://localhost:6379",
			ConsumerGroup: "pera",
			ClaimMinIdle:  30 * time.Second,
			PrefetchCount: 16,
		},
		Monitor: MonitorConfig{
			LatencyWarn: 5 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Enabled:   false,
			Type:      "embedded",
			Namespace: "pera",
			TTL:       30 * time.Second,
		},
	}
}

// Load reads a YAML configuration file and overlays it on top of Default.
// Missing fields keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}
