package pera

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"

	"github.com/zero-day-ai/pera/bus"
	"github.com/zero-day-ai/pera/exec"
	"github.com/zero-day-ai/pera/planning"
	"github.com/zero-day-ai/pera/registry"
)

// options collects the Option values applied by New. Grounded on the
// teacher's functional-options constructor for its root Framework type.
type options struct {
	llmClient        planning.LLMClient
	invoker          exec.Invoker
	catalog          registry.Catalog
	broker           bus.Broker
	redisClient      *redis.Client
	logger           *slog.Logger
	systemVersion    string
	learningDisabled bool
	meter            metric.Meter
	serviceInfo      ServiceInfo
}

// Option configures a System at construction time.
type Option func(*options)

// WithLLMClient supplies the reasoning fallback the Planner uses when no
// matching skill exists in the Knowledge Store. Required.
func WithLLMClient(c planning.LLMClient) Option {
	return func(o *options) { o.llmClient = c }
}

// WithInvoker supplies the collaborator the Execution Engine calls to run
// a resolved tool. Required.
func WithInvoker(inv exec.Invoker) Option {
	return func(o *options) { o.invoker = inv }
}

// WithCatalog overrides the in-process fitness Catalog. When omitted, New
// constructs an empty registry.NewCatalog() that the caller populates via
// System.Catalog().Register before submitting goals.
func WithCatalog(c registry.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithBroker wires an explicit message Broker (e.g. bus.NewMemBroker() for
// tests). When omitted, New builds a bus.RedisBroker if cfg.Bus.URL and a
// Redis client are available, and leaves System.Broker() nil otherwise.
func WithBroker(b bus.Broker) Option {
	return func(o *options) { o.broker = b }
}

// WithRedisClient supplies a pre-constructed Redis client for the Memory
// Substrate and message Broker to share, instead of having New parse one
// from cfg.Bus.URL / cfg.Memory.EpisodicURI.
func WithRedisClient(c *redis.Client) Option {
	return func(o *options) { o.redisClient = c }
}

// WithLogger overrides the structured logger used by the Orchestrator and
// Learning Loop. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSystemVersion tags every recorded Episode with a system version
// string, for correlating learning outcomes with deployed code versions.
func WithSystemVersion(v string) Option {
	return func(o *options) { o.systemVersion = v }
}

// WithMeter wires an OpenTelemetry Meter into the Execution Engine, which
// records dispatch counts and latency histograms against it. When omitted,
// the Engine records nothing.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithServiceInfo names this System instance for the etcd-backed service
// registry (cfg.Discovery). When Discovery.Enabled is true, New registers
// info under kind "orchestrator" and keeps the registration alive for the
// System's lifetime; System.Close deregisters it. Ignored when Discovery
// is disabled.
func WithServiceInfo(info ServiceInfo) Option {
	return func(o *options) { o.serviceInfo = info }
}

// WithoutLearning disables the Learning Loop entirely: no background
// cycle ticker starts, and recorded episodes are never scheduled for
// analysis. Useful for short-lived CLI invocations of System.
func WithoutLearning() Option {
	return func(o *options) { o.learningDisabled = true }
}
