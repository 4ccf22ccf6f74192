// Package manifest loads tool.yaml files: the on-disk description of a tool
// that a deployment wires into the Tool Registry, independent of whatever
// language or process actually implements it.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest represents a tool.yaml configuration file: everything the Tool
// Registry and Execution Engine need to know about a tool before the first
// call is dispatched to it.
type Manifest struct {
	// Identity
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`

	// TaskTypes are the task types this tool can satisfy, matched against a
	// Task.TaskType during auto-resolution.
	TaskTypes []string `yaml:"task_types,omitempty"`

	// Schema is the tool's JSON input schema, as a raw JSON string.
	Schema string `yaml:"schema,omitempty"`

	// Categorization
	Tags []string `yaml:"tags,omitempty"`

	// Dependencies
	Dependencies *DependenciesConfig `yaml:"dependencies,omitempty"`

	// Worker configuration (for queue-based remote execution)
	Worker *WorkerConfig `yaml:"worker,omitempty"`

	// Build configuration
	Build *BuildConfig `yaml:"build,omitempty"`

	// Additional metadata
	Author     string `yaml:"author,omitempty"`
	License    string `yaml:"license,omitempty"`
	Repository string `yaml:"repository,omitempty"`
}

// DependenciesConfig defines external dependencies required by the tool.
type DependenciesConfig struct {
	Binaries []BinaryDependency `yaml:"binaries,omitempty"`
}

// BinaryDependency describes a required external binary.
type BinaryDependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"` // Version constraint (e.g., ">=2.0.0")
	Install string `yaml:"install,omitempty"` // Installation command
}

// WorkerConfig defines configuration for queue-based remote execution.
type WorkerConfig struct {
	// Concurrency is the default number of concurrent worker goroutines.
	// I/O-bound tools (network fetches, file scans) want higher concurrency
	// (4-8); CPU-bound tools want lower (1-2). Default: 4.
	Concurrency int `yaml:"concurrency,omitempty"`

	// ShutdownTimeout is the time to wait for graceful shutdown.
	// Format: Go duration string (e.g., "30s", "1m"). Default: 30s.
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// QueuePrefix is the Redis key prefix for this tool's queue.
	// Default: "tool" (resulting in "tool:<name>:queue").
	QueuePrefix string `yaml:"queue_prefix,omitempty"`

	// HeartbeatInterval is the interval between health heartbeats.
	// Format: Go duration string (e.g., "10s"). Default: 10s.
	HeartbeatInterval string `yaml:"heartbeat_interval,omitempty"`

	// MaxRetries is the maximum number of times to retry a failed work item.
	// Default: 0 (no retries).
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// GetShutdownTimeout parses the shutdown timeout string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetShutdownTimeout() time.Duration {
	if w == nil || w.ShutdownTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(w.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetHeartbeatInterval parses the heartbeat interval string and returns a duration.
// Returns the default value if not set or invalid.
func (w *WorkerConfig) GetHeartbeatInterval() time.Duration {
	if w == nil || w.HeartbeatInterval == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(w.HeartbeatInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetConcurrency returns the configured concurrency or the default value.
func (w *WorkerConfig) GetConcurrency() int {
	if w == nil || w.Concurrency <= 0 {
		return 4
	}
	return w.Concurrency
}

// GetQueuePrefix returns the queue prefix or the default value.
func (w *WorkerConfig) GetQueuePrefix() string {
	if w == nil || w.QueuePrefix == "" {
		return "tool"
	}
	return w.QueuePrefix
}

// BuildConfig defines build configuration for the tool.
type BuildConfig struct {
	Command string `yaml:"command,omitempty"` // Build command (e.g., "make build")
}

// Load reads and parses a tool.yaml file from the given path.
// If the path is a directory, it looks for tool.yaml or tool.yml in that directory.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var configPath string
	if info.IsDir() {
		yamlPath := filepath.Join(path, "tool.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "tool.yml")
			if _, err := os.Stat(ymlPath); err == nil {
				configPath = ymlPath
			} else {
				return nil, fmt.Errorf("no tool.yaml or tool.yml found in %s", path)
			}
		}
	} else {
		configPath = path
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &m, nil
}

// LoadFromDir searches for tool.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Manifest, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		m, err := Load(absDir)
		if err == nil {
			return m, nil
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("no tool.yaml found in %s or parent directories", dir)
		}
		absDir = parent
	}
}

// LoadFromCurrentDir loads tool.yaml from the current working directory.
func LoadFromCurrentDir() (*Manifest, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFromDir(cwd)
}
