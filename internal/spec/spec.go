package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the raw, declarative form of a test specification as written in
// a YAML file. Fields stay close to the on-disk shape: the modules field
// accepts either a single module or a list, and the diagnostics flag is a
// tri-state so an omitted flag can default to enabled.
type Spec struct {
	// Name uniquely identifies this test spec.
	Name string `yaml:"name"`

	// Modules lists the machine configuration modules for the primary
	// machine. A single scalar is accepted and coerced to a one-element list.
	Modules ModuleList `yaml:"modules"`

	// Commands is the ordered command sequence. Execution order is
	// significant and preserved; the sequence must be non-empty.
	Commands []string `yaml:"commands"`

	// Env maps environment variable names to values. Applied to every
	// command in the sequence.
	Env map[string]string `yaml:"env,omitempty"`

	// Diagnostics enables journal and introspection collection.
	// Defaults to enabled when omitted.
	Diagnostics *bool `yaml:"diagnostics,omitempty"`

	// ExtraMachines holds additional named machine definitions merged
	// alongside the primary one. The command sequence still targets the
	// primary machine only.
	ExtraMachines map[string]ModuleList `yaml:"extra_machines,omitempty"`
}

// TestSpec is the canonical, normalized form consumed by the executor.
// Modules is always a list, the diagnostics flag is concrete, and the
// struct serializes with stable field names.
type TestSpec struct {
	Name          string              `json:"name"`
	Modules       []string            `json:"modules"`
	Commands      []string            `json:"commands"`
	Env           map[string]string   `json:"env,omitempty"`
	Diagnostics   bool                `json:"diagnostics"`
	ExtraMachines map[string][]string `json:"extra_machines,omitempty"`
}

// ModuleList is a list of machine configuration modules that also accepts
// a single scalar in YAML. The list-or-single affordance exists only at
// the spec boundary; everything downstream sees a plain list.
type ModuleList []string

// UnmarshalYAML coerces a scalar module to a one-element list.
func (m *ModuleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*m = ModuleList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*m = ModuleList(list)
		return nil
	default:
		return fmt.Errorf("modules must be a string or a list of strings (line %d)", value.Line)
	}
}

// Normalize canonicalizes the raw spec: module lists are materialized,
// the diagnostics default is applied, and the result is validated against
// the embedded schema. Fails with a ConfigError before anything executes.
func (s *Spec) Normalize() (*TestSpec, error) {
	if len(s.Commands) == 0 {
		return nil, &ConfigError{Field: "commands", Message: "command sequence must be non-empty"}
	}
	if len(s.Modules) == 0 {
		return nil, &ConfigError{Field: "modules", Message: "at least one machine module is required"}
	}

	diagnostics := true
	if s.Diagnostics != nil {
		diagnostics = *s.Diagnostics
	}

	ts := &TestSpec{
		Name:        s.Name,
		Modules:     append([]string(nil), s.Modules...),
		Commands:    append([]string(nil), s.Commands...),
		Diagnostics: diagnostics,
	}
	if len(s.Env) > 0 {
		ts.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			ts.Env[k] = v
		}
	}
	if len(s.ExtraMachines) > 0 {
		ts.ExtraMachines = make(map[string][]string, len(s.ExtraMachines))
		for name, modules := range s.ExtraMachines {
			ts.ExtraMachines[name] = append([]string(nil), modules...)
		}
	}

	if err := validateSchema(ts); err != nil {
		return nil, err
	}

	return ts, nil
}

// Load reads, parses, and normalizes a test spec YAML file.
// Unknown fields are rejected so typos surface as errors rather than
// silently dropped configuration.
func Load(path string) (*TestSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	var raw Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ts, err := raw.Normalize()
	if err != nil {
		return nil, fmt.Errorf("invalid spec %s: %w", path, err)
	}
	return ts, nil
}

// Payload serializes the command sequence and environment mapping into the
// transport payload handed to the execution environment. Map keys are
// emitted in sorted order, so the payload is deterministic for a given spec.
func (t *TestSpec) Payload() ([]byte, error) {
	payload := struct {
		Commands []string          `json:"commands"`
		Env      map[string]string `json:"env"`
	}{
		Commands: t.Commands,
		Env:      t.Env,
	}
	if payload.Env == nil {
		payload.Env = map[string]string{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payload: %w", err)
	}
	return data, nil
}
