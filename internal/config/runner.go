package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BackendKind selects which interp.Backend implementation a run wires up.
type BackendKind string

const (
	BackendReference BackendKind = "reference"
	BackendRemote     BackendKind = "remote"
)

// RunnerConfig is the optional YAML manifest a circuit run is driven by:
// which standard plugins to register, and which backend (in-process
// reference math, or an out-of-process gRPC backend) to evaluate gates
// against. Mirrors internal/ext/config.go's Config/LoadConfig shape,
// generalized from "Go FFI dependency manifest" to "circuit run manifest".
type RunnerConfig struct {
	// Backend picks the TypeEngine implementation. Defaults to "reference"
	// when omitted.
	Backend BackendKind `yaml:"backend"`

	// RemoteTarget is the gRPC dial target for Backend: "remote"
	// (e.g. "localhost:50051"). Required when Backend is "remote".
	RemoteTarget string `yaml:"remoteTarget,omitempty"`

	// Plugins lists the standard plugin names to register. Defaults to
	// AllStandardPlugins when omitted entirely (nil slice); an explicit
	// empty list ([]string{}) disables every standard plugin.
	Plugins []string `yaml:"plugins"`

	pluginsSet bool
}

// UnmarshalYAML distinguishes an omitted "plugins" key (nil slice, fall
// back to every standard plugin) from an explicit empty list (no
// plugins), which yaml.v3's default unmarshaling cannot tell apart on its
// own once decoded into a plain []string field.
func (c *RunnerConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias RunnerConfig
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	*c = RunnerConfig(a)
	for i := 0; i+1 < len(value.Content); i += 2 {
		if value.Content[i].Value == "plugins" {
			c.pluginsSet = true
		}
	}
	return nil
}

// LoadRunnerConfig reads and parses a YAML runner manifest from path.
func LoadRunnerConfig(path string) (*RunnerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading runner config %s: %w", path, err)
	}
	return ParseRunnerConfig(data)
}

// ParseRunnerConfig parses a YAML runner manifest from bytes, applying
// defaults and validating the result.
func ParseRunnerConfig(data []byte) (*RunnerConfig, error) {
	cfg := &RunnerConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing runner config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RunnerConfig) setDefaults() {
	if c.Backend == "" {
		c.Backend = BackendReference
	}
	if !c.pluginsSet {
		c.Plugins = append([]string(nil), AllStandardPlugins...)
	}
}

func (c *RunnerConfig) validate() error {
	switch c.Backend {
	case BackendReference:
	case BackendRemote:
		if c.RemoteTarget == "" {
			return fmt.Errorf("runner config: backend \"remote\" requires remoteTarget")
		}
	default:
		return fmt.Errorf("runner config: unknown backend %q (want %q or %q)", c.Backend, BackendReference, BackendRemote)
	}
	for _, name := range c.Plugins {
		if !isStandardPlugin(name) {
			return fmt.Errorf("runner config: unknown plugin %q", name)
		}
	}
	return nil
}

func isStandardPlugin(name string) bool {
	for _, p := range AllStandardPlugins {
		if p == name {
			return true
		}
	}
	return false
}
