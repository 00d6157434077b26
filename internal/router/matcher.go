package router

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

// RuleConfig is the uncompiled, config-facing shape of a rule, matching the
// "filters" entries in the configuration contract (spec §6).
type RuleConfig struct {
	Name             string
	Facilities       []string
	Severities       []string
	HostnamePattern  string
	MessagePattern   string
	Action           string // "forward" (default) or "drop"
	Destinations     []string
	Transforms       []string
}

// CompileRule validates and compiles a RuleConfig into a Rule. Invalid
// regexes or an unrecognized facility/severity name are configuration
// errors, reported at pipeline construction per spec §4.7 — never at
// message time.
func CompileRule(cfg RuleConfig) (Rule, error) {
	rule := Rule{
		Name:         cfg.Name,
		Destinations: cfg.Destinations,
		Transforms:   cfg.Transforms,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Action)) {
	case "", "forward":
		rule.Action = ActionForward
	case "drop":
		rule.Action = ActionDrop
	default:
		return Rule{}, fmt.Errorf("rule %q: unknown action %q", cfg.Name, cfg.Action)
	}

	if len(cfg.Facilities) > 0 {
		set := make(map[string]struct{}, len(cfg.Facilities))
		for _, name := range cfg.Facilities {
			canonical := strings.ToLower(strings.TrimSpace(name))
			if _, ok := record.FacilityByName(canonical); !ok {
				return Rule{}, fmt.Errorf("rule %q: unknown facility %q", cfg.Name, name)
			}
			set[canonical] = struct{}{}
		}
		rule.Predicate.Facilities = set
	}

	if len(cfg.Severities) > 0 {
		set := make(map[string]struct{}, len(cfg.Severities))
		for _, name := range cfg.Severities {
			canonical := strings.ToLower(strings.TrimSpace(name))
			if canonical == "error" {
				canonical = "err"
			}
			if _, ok := record.SeverityByName(canonical); !ok {
				return Rule{}, fmt.Errorf("rule %q: unknown severity %q", cfg.Name, name)
			}
			set[canonical] = struct{}{}
		}
		rule.Predicate.Severities = set
	}

	if cfg.HostnamePattern != "" {
		re, err := regexp.Compile(cfg.HostnamePattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: invalid hostname_pattern: %w", cfg.Name, err)
		}
		rule.Predicate.HostnamePattern = re
	}

	if cfg.MessagePattern != "" {
		re, err := regexp.Compile(cfg.MessagePattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %q: invalid message_pattern: %w", cfg.Name, err)
		}
		rule.Predicate.MessagePattern = re
	}

	return rule, nil
}

// Match reports whether p matches rec. Every configured clause must match;
// an empty Predicate always matches (catch-all).
func (p *Predicate) Match(rec *record.Record) bool {
	if p.Facilities != nil {
		name := record.FacilityName(rec.Facility)
		if _, ok := p.Facilities[name]; !ok {
			return false
		}
	}
	if p.Severities != nil {
		name := record.SeverityName(rec.Severity)
		if _, ok := p.Severities[name]; !ok {
			return false
		}
	}
	if p.HostnamePattern != nil && !p.HostnamePattern.MatchString(rec.Hostname) {
		return false
	}
	if p.MessagePattern != nil && !p.MessagePattern.MatchString(rec.Message) {
		return false
	}
	return true
}
