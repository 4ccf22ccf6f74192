package exec

import (
	"regexp"
	"strings"
)

// ErrorCategory is the coarse bucket a classified failure falls into.
type ErrorCategory string

const (
	CategoryInfrastructure ErrorCategory = "infrastructure"
	CategoryPerformance    ErrorCategory = "performance"
	CategoryResources      ErrorCategory = "resources"
	CategorySecurity       ErrorCategory = "security"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryUnknown        ErrorCategory = "unknown"
)

// ErrorKind names the specific failure pattern recognized.
type ErrorKind string

const (
	KindConnectionRefused ErrorKind = "connection_refused"
	KindTimeout           ErrorKind = "timeout"
	KindRateLimit         ErrorKind = "rate_limit"
	KindAuth              ErrorKind = "auth"
	KindNotFound          ErrorKind = "resource_not_found"
	KindUnknown           ErrorKind = "unknown"
)

// RecommendedAction is what the retry policy should do with a classified
// failure.
type RecommendedAction string

const (
	ActionRetry            RecommendedAction = "retry"
	ActionRetryBackoff     RecommendedAction = "retry_with_backoff"
	ActionRetryExpBackoff  RecommendedAction = "retry_with_exponential_backoff"
	ActionEscalate         RecommendedAction = "escalate"
)

// Classification is the structured verdict produced by Classify: what kind
// of failure this was, whether it is worth retrying, and how confident the
// pattern match is.
type Classification struct {
	Kind              ErrorKind
	Category          ErrorCategory
	Recoverable       bool
	RecommendedAction RecommendedAction
	Confidence        float64
}

type pattern struct {
	kind       ErrorKind
	category   ErrorCategory
	recoverable bool
	action     RecommendedAction
	confidence float64
	re         *regexp.Regexp
}

// classificationTable is the ordered set of recognized failure patterns.
// Ordering matters: the first matching pattern wins. The patterns, their
// categories, and confidence scores mirror the original orchestrator's
// error-classification table exactly.
var classificationTable = []pattern{
	{
		kind: KindConnectionRefused, category: CategoryInfrastructure,
		recoverable: true, action: ActionRetryBackoff, confidence: 0.85,
		re: regexp.MustCompile(`(?i)connection refused|cannot connect`),
	},
	{
		kind: KindTimeout, category: CategoryPerformance,
		recoverable: true, action: ActionRetryBackoff, confidence: 0.9,
		re: regexp.MustCompile(`(?i)timeout|timed out`),
	},
	{
		kind: KindRateLimit, category: CategoryResources,
		recoverable: true, action: ActionRetryExpBackoff, confidence: 0.8,
		re: regexp.MustCompile(`(?i)rate limit|too many requests`),
	},
	{
		kind: KindAuth, category: CategorySecurity,
		recoverable: false, action: ActionEscalate, confidence: 0.95,
		re: regexp.MustCompile(`(?i)authentication|unauthorized|invalid token`),
	},
	{
		kind: KindNotFound, category: CategoryConfiguration,
		recoverable: false, action: ActionEscalate, confidence: 0.7,
		re: regexp.MustCompile(`(?i)not found|404|invalid endpoint`),
	},
}

// Classify inspects an error's message and returns the best-matching
// Classification. An error that matches no known pattern is classified as
// KindUnknown/CategoryUnknown, recoverable, recommended for a plain retry,
// with zero confidence — callers should treat that as "no signal" rather
// than "safe to retry blindly".
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown, Category: CategoryUnknown, Recoverable: false, Confidence: 0}
	}
	msg := err.Error()
	for _, p := range classificationTable {
		if p.re.MatchString(msg) {
			return Classification{
				Kind:              p.kind,
				Category:          p.category,
				Recoverable:       p.recoverable,
				RecommendedAction: p.action,
				Confidence:        p.confidence,
			}
		}
	}
	return Classification{
		Kind:              KindUnknown,
		Category:          CategoryUnknown,
		Recoverable:       true,
		RecommendedAction: ActionRetry,
		Confidence:        0,
	}
}

// String renders a Classification compactly for tests and logging.
func (c Classification) String() string {
	return strings.Join([]string{string(c.Kind), string(c.Category), string(c.RecommendedAction)}, "/")
}
