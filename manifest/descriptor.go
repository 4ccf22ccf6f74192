package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/zero-day-ai/pera/health"
	"github.com/zero-day-ai/pera/registry"
	"github.com/zero-day-ai/pera/schema"
)

// ToDescriptor converts a Manifest into the registry.Descriptor the Tool
// Registry's catalog actually stores. Schema, if set, must be valid JSON
// Schema; an empty Schema yields a zero-value schema.JSON that accepts any
// params.
func (m *Manifest) ToDescriptor() (registry.Descriptor, error) {
	d := registry.Descriptor{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		TaskTypes:   m.TaskTypes,
		Tags:        m.Tags,
	}
	if m.Schema != "" {
		var s schema.JSON
		if err := json.Unmarshal([]byte(m.Schema), &s); err != nil {
			return registry.Descriptor{}, fmt.Errorf("manifest: parse schema for %s: %w", m.Name, err)
		}
		d.InputSchema = s
	}
	return d, nil
}

// HealthChecks runs a binary-existence check for every declared dependency,
// the way a deployment would verify a tool is installable before
// registering it with the Tool Registry.
func (m *Manifest) HealthChecks() []health.Status {
	if m.Dependencies == nil {
		return nil
	}
	checks := make([]health.Status, 0, len(m.Dependencies.Binaries))
	for _, dep := range m.Dependencies.Binaries {
		checks = append(checks, health.BinaryCheck(dep.Name))
	}
	return checks
}
