// Package pipeline wires the configuration contract into running listeners,
// senders, a router, and a transformer (C8 from spec §4.7), and supervises
// their lifecycle through startup, steady state, and graceful shutdown.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/brunseba/syslog-forwarder/internal/config"
	"github.com/brunseba/syslog-forwarder/internal/egress"
	"github.com/brunseba/syslog-forwarder/internal/metrics"
	"github.com/brunseba/syslog-forwarder/internal/record"
	"github.com/brunseba/syslog-forwarder/internal/router"
	"github.com/brunseba/syslog-forwarder/internal/transform"
)

// BuildError describes the first configuration problem encountered while
// constructing a pipeline (spec §4.7: construction failure produces a
// single structured error describing the first problem).
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pipeline: construction failed: %s", e.Reason)
}

func buildErrorf(format string, args ...any) error {
	return &BuildError{Reason: fmt.Sprintf(format, args...)}
}

// destination is a built, not-yet-started egress target.
type destination struct {
	name     string
	protocol string
	format   record.Format

	udp *egress.UDPSender
	tcp *egress.TCPSender
}

// Pipeline is a fully validated, constructed set of components, ready for a
// Supervisor to Start.
type Pipeline struct {
	snapshot *config.Snapshot

	router            *router.Router
	transformRegistry *transform.Registry
	destinations      map[string]*destination

	metrics *metrics.Registry
	logger  *slog.Logger
}

// Build validates snap and constructs every component it describes.
// TCP destinations are dialed lazily by their own senders; UDP destinations
// get their connected socket here. Rules, transforms and regexes are
// compiled eagerly, per spec §4.7.
func Build(snap *config.Snapshot, metricsRegistry *metrics.Registry, logger *slog.Logger) (*Pipeline, error) {
	if err := checkNamesUnique("input", inputNames(snap.Inputs)); err != nil {
		return nil, err
	}
	if err := checkNamesUnique("destination", destinationNames(snap.Destinations)); err != nil {
		return nil, err
	}
	if err := checkNamesUnique("transform", transformNames(snap.Transforms)); err != nil {
		return nil, err
	}
	if err := checkNamesUnique("filter", filterNames(snap.Filters)); err != nil {
		return nil, err
	}

	transforms := make([]*transform.Transform, 0, len(snap.Transforms))
	for _, tc := range snap.Transforms {
		t, err := transform.Compile(toTransformConfig(tc))
		if err != nil {
			return nil, buildErrorf("%s", err)
		}
		transforms = append(transforms, t)
	}
	transformRegistry := transform.NewRegistry(transforms)

	destinations := make(map[string]*destination, len(snap.Destinations))
	for _, dc := range snap.Destinations {
		dest, err := buildDestination(dc, metricsRegistry, logger)
		if err != nil {
			return nil, buildErrorf("destination %q: %s", dc.Name, err)
		}
		destinations[dc.Name] = dest
	}

	rules := make([]router.Rule, 0, len(snap.Filters))
	for _, fc := range snap.Filters {
		for _, destName := range fc.Destinations {
			if _, ok := destinations[destName]; !ok {
				return nil, buildErrorf("filter %q: unknown destination %q", fc.Name, destName)
			}
		}
		for _, trName := range fc.Transforms {
			if _, ok := transformRegistry.Lookup(trName); !ok {
				return nil, buildErrorf("filter %q: unknown transform %q", fc.Name, trName)
			}
		}
		rule, err := router.CompileRule(toRuleConfig(fc))
		if err != nil {
			return nil, buildErrorf("%s", err)
		}
		rules = append(rules, rule)
	}

	return &Pipeline{
		snapshot:          snap,
		router:            router.New(rules),
		transformRegistry: transformRegistry,
		destinations:      destinations,
		metrics:           metricsRegistry,
		logger:            logger,
	}, nil
}

func buildDestination(dc config.DestinationConfig, metricsRegistry *metrics.Registry, logger *slog.Logger) (*destination, error) {
	format, ok := parseOutputFormat(dc.Format)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", dc.Format)
	}

	addr := fmt.Sprintf("%s:%d", dc.Host, dc.Port)
	dest := &destination{name: dc.Name, protocol: dc.Protocol, format: format}

	switch dc.Protocol {
	case "udp":
		sender, err := egress.NewUDPSender(dc.Name, addr, logger)
		if err != nil {
			return nil, err
		}
		dest.udp = sender
	case "tcp":
		maxAttempts := dc.Retry.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = 1
		}
		opts := egress.TCPSenderOptions{
			MaxAttempts: maxAttempts,
			BackoffBase: secondsToDuration(dc.Retry.BackoffBaseSeconds),
		}
		upGauge := func(up bool) {
			v := 0.0
			if up {
				v = 1.0
			}
			metricsRegistry.DestinationUp.WithLabelValues(dc.Name).Set(v)
		}
		dest.tcp = egress.NewTCPSender(dc.Name, addr, opts, upGauge, logger)
	default:
		return nil, fmt.Errorf("unknown protocol %q", dc.Protocol)
	}
	return dest, nil
}

func parseOutputFormat(s string) (record.Format, bool) {
	switch s {
	case "rfc3164":
		return record.FormatRFC3164, true
	case "rfc5424":
		return record.FormatRFC5424, true
	case "auto", "":
		return record.FormatAuto, true
	default:
		return 0, false
	}
}

func checkNamesUnique(kind string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return buildErrorf("duplicate %s name %q", kind, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func inputNames(inputs []config.InputConfig) []string {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}
	return names
}

func destinationNames(dests []config.DestinationConfig) []string {
	names := make([]string, len(dests))
	for i, d := range dests {
		names[i] = d.Name
	}
	return names
}

func transformNames(transforms []config.TransformConfig) []string {
	names := make([]string, len(transforms))
	for i, t := range transforms {
		names[i] = t.Name
	}
	return names
}

func filterNames(filters []config.FilterConfig) []string {
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.Name
	}
	return names
}
