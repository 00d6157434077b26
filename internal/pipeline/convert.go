package pipeline

import (
	"time"

	"github.com/brunseba/syslog-forwarder/internal/config"
	"github.com/brunseba/syslog-forwarder/internal/router"
	"github.com/brunseba/syslog-forwarder/internal/transform"
)

func toTransformConfig(tc config.TransformConfig) transform.Config {
	setFields := make([]transform.SetFieldConfig, len(tc.SetFields))
	for i, sf := range tc.SetFields {
		setFields[i] = transform.SetFieldConfig{Field: sf.Field, Value: sf.Value}
	}
	return transform.Config{
		Name:           tc.Name,
		RemoveFields:   tc.RemoveFields,
		SetFields:      setFields,
		MessageReplace: toReplacementConfigs(tc.MessageReplace),
		MaskPatterns:   toReplacementConfigs(tc.MaskPatterns),
		MessagePrefix:  tc.MessagePrefix,
		MessageSuffix:  tc.MessageSuffix,
	}
}

func toReplacementConfigs(in []config.ReplacementConfig) []transform.ReplacementConfig {
	out := make([]transform.ReplacementConfig, len(in))
	for i, rc := range in {
		out[i] = transform.ReplacementConfig{Pattern: rc.Pattern, Replacement: rc.Replacement}
	}
	return out
}

func toRuleConfig(fc config.FilterConfig) router.RuleConfig {
	return router.RuleConfig{
		Name:            fc.Name,
		Facilities:      fc.Facilities,
		Severities:      fc.Severities,
		HostnamePattern: fc.HostnamePattern,
		MessagePattern:  fc.MessagePattern,
		Action:          fc.Action,
		Destinations:    fc.Destinations,
		Transforms:      fc.Transforms,
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
