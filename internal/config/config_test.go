package config

import (
	"os"
	"testing"
)

func TestExpandEnvSubstitutesSetVariable(t *testing.T) {
	t.Setenv("RELAY_HOST", "collector.example.com")
	got := expandEnv("host: ${RELAY_HOST}")
	if got != "host: collector.example.com" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestExpandEnvUsesDefaultWhenUnset(t *testing.T) {
	got := expandEnv("port: ${RELAY_PORT:-514}")
	if got != "port: 514" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestExpandEnvPrefersSetValueOverDefault(t *testing.T) {
	t.Setenv("RELAY_PORT", "6514")
	got := expandEnv("port: ${RELAY_PORT:-514}")
	if got != "port: 6514" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestExpandEnvUnsetWithNoDefaultBecomesEmpty(t *testing.T) {
	got := expandEnv("value: ${RELAY_TOTALLY_UNSET}")
	if got != "value: " {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

func TestLoadParsesFullDocument(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/relay.yaml"
	doc := `
inputs:
  - name: udp-in
    protocol: udp
    address: "0.0.0.0:514"
destinations:
  - name: primary
    protocol: tcp
    host: collector.internal
    port: 6514
    format: rfc5424
    retry:
      max_attempts: 3
      backoff_base_seconds: 0.5
transforms:
  - name: redact
    mask_patterns:
      - pattern: "password=\\S+"
        replacement: "password=****"
filters:
  - name: drop-debug
    severities: ["debug"]
    action: drop
  - name: catch-all
    destinations: ["primary"]
    transforms: ["redact"]
service:
  observation_address: "127.0.0.1:9090"
  shutdown_grace_seconds: 5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Inputs) != 1 || snap.Inputs[0].Name != "udp-in" {
		t.Errorf("unexpected inputs: %+v", snap.Inputs)
	}
	if len(snap.Destinations) != 1 || snap.Destinations[0].Retry.MaxAttempts != 3 {
		t.Errorf("unexpected destinations: %+v", snap.Destinations)
	}
	if len(snap.Filters) != 2 || snap.Filters[0].Action != "drop" {
		t.Errorf("unexpected filters: %+v", snap.Filters)
	}
	if snap.Service.ObservationAddress != "127.0.0.1:9090" {
		t.Errorf("unexpected service config: %+v", snap.Service)
	}
}
