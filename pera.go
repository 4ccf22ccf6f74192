package pera

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/pera/bus"
	"github.com/zero-day-ai/pera/config"
	"github.com/zero-day-ai/pera/exec"
	"github.com/zero-day-ai/pera/health"
	"github.com/zero-day-ai/pera/learning"
	"github.com/zero-day-ai/pera/manifest"
	"github.com/zero-day-ai/pera/memory"
	"github.com/zero-day-ai/pera/orchestrator"
	"github.com/zero-day-ai/pera/planning"
	"github.com/zero-day-ai/pera/registry"
)

// System is the wired-together PERA runtime: the seven components
// constructed from one Config and one set of collaborator
// implementations (an LLM client, a tool Invoker, optionally a Redis
// connection and a message Broker).
type System struct {
	cfg          config.Config
	mem          memory.Store
	catalog      registry.Catalog
	engine       *exec.Engine
	planner      *planning.Planner
	orchestrator *orchestrator.Orchestrator
	learner      *learning.Learner
	broker       bus.Broker
	redisClient  *redis.Client
	logger       *slog.Logger

	discovery registry.Registry
	serviceID string
}

// ServiceInfo names this System instance for service discovery: Name
// identifies the deployment ("crawler-orchestrator"), Endpoint is the
// network address peers should use to reach it (may be empty for a
// library-embedded System with no RPC surface of its own).
type ServiceInfo struct {
	Name     string
	Endpoint string
}

// Memory returns the wired Memory Substrate, for callers that want direct
// access to the working store, knowledge store, or episodic log (e.g. to
// seed skills before the first goal is submitted).
func (s *System) Memory() memory.Store { return s.mem }

// Catalog returns the wired Tool Registry's in-process fitness catalog.
func (s *System) Catalog() registry.Catalog { return s.catalog }

// Broker returns the wired message Broker, or nil if none was configured.
func (s *System) Broker() bus.Broker { return s.broker }

// HealthCheck verifies the System's external dependencies are reachable: the
// Redis connection backing memory/bus, when one is configured, and every
// binary-backed tool named in toolBinaries. It never touches the LLM client
// or Invoker, since those are caller-supplied and opaque to this module.
func (s *System) HealthCheck(ctx context.Context, toolBinaries ...string) health.Status {
	var checks []health.Status

	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			checks = append(checks, health.NewUnhealthyStatus("redis unreachable", map[string]any{"error": err.Error()}))
		} else {
			checks = append(checks, health.NewHealthyStatus("redis reachable"))
		}
	}

	for _, bin := range toolBinaries {
		checks = append(checks, health.BinaryCheck(bin))
	}

	return health.Combine(checks...)
}

// RegisterToolFromManifest loads a tool.yaml at path and registers the
// resulting Descriptor with the System's Tool Registry. It returns the
// manifest's declared binary dependencies' health status alongside any
// registration error, so a caller can warn about a tool that registered
// successfully but whose binary isn't actually installed.
func (s *System) RegisterToolFromManifest(ctx context.Context, path string) ([]health.Status, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("pera: load manifest: %w", err)
	}
	d, err := m.ToDescriptor()
	if err != nil {
		return nil, fmt.Errorf("pera: convert manifest: %w", err)
	}
	if err := s.catalog.Register(ctx, d); err != nil {
		return nil, fmt.Errorf("pera: register tool %s: %w", d.Name, err)
	}

	if s.discovery != nil {
		info := registry.ServiceInfo{
			Kind:       "tool",
			Name:       m.Name,
			Version:    m.Version,
			InstanceID: uuid.NewString(),
			StartedAt:  time.Now(),
		}
		if err := s.discovery.Register(ctx, info); err != nil {
			return m.HealthChecks(), fmt.Errorf("pera: register tool %s with discovery: %w", d.Name, err)
		}
	}

	return m.HealthChecks(), nil
}

// DiscoverPeers returns every other System instance currently registered
// under the "orchestrator" kind, or nil if discovery is disabled. Useful
// for distributing goal submissions across a fleet of PERA instances.
func (s *System) DiscoverPeers(ctx context.Context) ([]registry.ServiceInfo, error) {
	if s.discovery == nil {
		return nil, nil
	}
	return s.discovery.DiscoverAll(ctx, "orchestrator")
}

// Submit drives one goal through the full PERA cycle: Plan, Execute,
// Record, Adapt. It blocks until the session reaches a terminal phase
// (done or error) or ctx/constraints.MaxDuration expires.
func (s *System) Submit(ctx context.Context, goal string, constraints orchestrator.Constraints) (orchestrator.Result, error) {
	return s.orchestrator.Submit(ctx, goal, constraints)
}

// Close releases background resources: the learning loop's cycle ticker,
// the message broker's consumer loops, and the discovery registration and
// client. The Redis client is not closed.
func (s *System) Close() error {
	var errs []error
	if s.learner != nil {
		s.learner.Close()
	}
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.discovery != nil {
		info := registry.ServiceInfo{Kind: "orchestrator", InstanceID: s.serviceID}
		if err := s.discovery.Deregister(context.Background(), info); err != nil {
			errs = append(errs, err)
		}
		if err := s.discovery.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pera: close: %v", errs)
	}
	return nil
}

// New wires a System from cfg and the supplied Options. At minimum the
// caller must provide an LLM client (WithLLMClient) so the Planner can
// fall back to reasoning when no skill matches, and a tool Invoker
// (WithInvoker) so the Execution Engine can actually run a task; New
// returns an error if either is missing.
func New(cfg config.Config, opts ...Option) (*System, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.llmClient == nil {
		return nil, fmt.Errorf("pera: New requires WithLLMClient")
	}
	if o.invoker == nil {
		return nil, fmt.Errorf("pera: New requires WithInvoker")
	}

	var redisClient *redis.Client
	if o.redisClient != nil {
		redisClient = o.redisClient
	} else if cfg.Memory.Backend == config.BackendRedis || cfg.Bus.URL != "" {
		opts, err := redis.ParseURL(firstNonEmpty(cfg.Bus.URL, cfg.Memory.EpisodicURI))
		if err != nil {
			return nil, fmt.Errorf("pera: parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)
	}

	mem, err := memory.NewStore(cfg.Memory, redisClient, memory.NewHashEmbedder())
	if err != nil {
		return nil, fmt.Errorf("pera: new memory store: %w", err)
	}

	catalog := o.catalog
	if catalog == nil {
		catalog = registry.NewCatalog()
	}

	planner, err := planning.NewPlanner(cfg.Planning, mem.Knowledge(), catalog, o.llmClient)
	if err != nil {
		return nil, fmt.Errorf("pera: new planner: %w", err)
	}

	engine := exec.NewEngine(cfg.Execution, catalog, o.invoker)
	if o.meter != nil {
		engine.WithMetrics(exec.NewMetrics(o.meter))
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(o.logger),
	}
	if o.systemVersion != "" {
		orchOpts = append(orchOpts, orchestrator.WithSystemVersion(o.systemVersion))
	}

	var learner *learning.Learner
	if !o.learningDisabled {
		learner = learning.NewLearner(cfg.Learning, mem, o.logger)
		orchOpts = append(orchOpts, orchestrator.WithLearner(learner))
	}

	orch := orchestrator.NewOrchestrator(cfg, mem, planner, engine, orchOpts...)

	var broker bus.Broker
	if o.broker != nil {
		broker = o.broker
	} else if redisClient != nil && cfg.Bus.URL != "" {
		broker = bus.NewRedisBroker(redisClient, cfg.Bus)
	}

	var discovery registry.Registry
	var serviceID string
	if cfg.Discovery.Enabled {
		client, err := registry.NewClientFromConfig(cfg.Discovery)
		if err != nil {
			return nil, fmt.Errorf("pera: new discovery client: %w", err)
		}
		if client != nil {
			serviceID = uuid.NewString()
			name := o.serviceInfo.Name
			if name == "" {
				name = "pera"
			}
			info := registry.ServiceInfo{
				Kind:       "orchestrator",
				Name:       name,
				InstanceID: serviceID,
				Endpoint:   o.serviceInfo.Endpoint,
				StartedAt:  time.Now(),
			}
			if err := client.Register(context.Background(), info); err != nil {
				client.Close()
				return nil, fmt.Errorf("pera: register with discovery: %w", err)
			}
			discovery = client
		}
	}

	return &System{
		cfg:          cfg,
		mem:          mem,
		catalog:      catalog,
		engine:       engine,
		planner:      planner,
		orchestrator: orch,
		learner:      learner,
		broker:       broker,
		redisClient:  redisClient,
		logger:       o.logger,
		discovery:    discovery,
		serviceID:    serviceID,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
