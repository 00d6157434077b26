// Package config loads, without validating, the declarative configuration
// contract described in spec §6: a nested document providing inputs,
// destinations, transforms, filters (the routing rules), and a service
// block. Configuration loading is the one external-collaborator concern
// the core pipeline still needs a concrete implementation of to run as a
// standalone process, so it lives alongside the pipeline rather than a
// separate CLI-only package.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// InputConfig describes one ingress listener.
type InputConfig struct {
	Name           string `yaml:"name"`
	Protocol       string `yaml:"protocol"` // "udp" or "tcp"
	Address        string `yaml:"address"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

// RetryPolicy configures a TCP destination's send retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	BackoffBaseSeconds float64 `yaml:"backoff_base_seconds"`
}

// DestinationConfig describes one egress target.
type DestinationConfig struct {
	Name     string      `yaml:"name"`
	Protocol string      `yaml:"protocol"` // "udp" or "tcp"
	Host     string      `yaml:"host"`
	Port     int         `yaml:"port"`
	Format   string      `yaml:"format"` // "rfc3164", "rfc5424", or "auto"
	Retry    RetryPolicy `yaml:"retry"`
}

// ReplacementConfig is one pattern/replacement pair.
type ReplacementConfig struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// SetFieldConfig is one field/value assignment.
type SetFieldConfig struct {
	Field string `yaml:"field"`
	Value string `yaml:"value"`
}

// TransformConfig describes one named transform.
type TransformConfig struct {
	Name           string              `yaml:"name"`
	RemoveFields   []string            `yaml:"remove_fields"`
	SetFields      []SetFieldConfig    `yaml:"set_fields"`
	MessageReplace []ReplacementConfig `yaml:"message_replace"`
	MaskPatterns   []ReplacementConfig `yaml:"mask_patterns"`
	MessagePrefix  string              `yaml:"message_prefix"`
	MessageSuffix  string              `yaml:"message_suffix"`
}

// FilterConfig describes one routing rule.
type FilterConfig struct {
	Name            string   `yaml:"name"`
	Facilities      []string `yaml:"facilities"`
	Severities      []string `yaml:"severities"`
	HostnamePattern string   `yaml:"hostname_pattern"`
	MessagePattern  string   `yaml:"message_pattern"`
	Action          string   `yaml:"action"`
	Destinations    []string `yaml:"destinations"`
	Transforms      []string `yaml:"transforms"`
}

// ServiceConfig holds the observation endpoint and shutdown settings.
type ServiceConfig struct {
	ObservationAddress string `yaml:"observation_address"`
	ShutdownGraceSeconds float64 `yaml:"shutdown_grace_seconds"`
}

// Snapshot is a fully loaded, not-yet-validated configuration document.
type Snapshot struct {
	Inputs       []InputConfig       `yaml:"inputs"`
	Destinations []DestinationConfig `yaml:"destinations"`
	Transforms   []TransformConfig   `yaml:"transforms"`
	Filters      []FilterConfig      `yaml:"filters"`
	Service      ServiceConfig       `yaml:"service"`
}

// Load reads and parses a YAML configuration file at path, substituting
// ${VAR} and ${VAR:-default} environment references before parsing.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := expandEnv(string(raw))

	var snap Snapshot
	if err := yaml.Unmarshal([]byte(expanded), &snap); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &snap, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnv resolves ${VAR} and ${VAR:-default} references. An unset
// variable with no default expands to the empty string, matching shell
// parameter expansion semantics.
func expandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envRefPattern.FindStringSubmatch(match)
		name, defaultClause := groups[1], groups[2]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if defaultClause != "" {
			return strings.TrimPrefix(defaultClause, ":-")
		}
		return ""
	})
}
