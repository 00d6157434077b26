package transform

import (
	"fmt"
	"regexp"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

// ReplacementConfig is the uncompiled config shape of a single
// pattern/replacement pair.
type ReplacementConfig struct {
	Pattern     string
	Replacement string
}

// SetFieldConfig is the uncompiled config shape of one set_fields entry.
type SetFieldConfig struct {
	Field string
	Value string
}

// Config is the uncompiled, config-facing shape of a transform, matching
// the "transforms" entries in the configuration contract (spec §6).
type Config struct {
	Name           string
	RemoveFields   []string
	SetFields      []SetFieldConfig
	MessageReplace []ReplacementConfig
	MaskPatterns   []ReplacementConfig
	MessagePrefix  string
	MessageSuffix  string
}

// Compile validates and compiles a Config into a Transform. Unknown field
// names and invalid regexes are configuration errors, reported at pipeline
// construction (spec §4.7) — never at message time.
func Compile(cfg Config) (*Transform, error) {
	t := &Transform{
		Name:          cfg.Name,
		MessagePrefix: cfg.MessagePrefix,
		MessageSuffix: cfg.MessageSuffix,
	}

	for _, name := range cfg.RemoveFields {
		f, ok := record.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("transform %q: unknown field %q in remove_fields", cfg.Name, name)
		}
		t.RemoveFields = append(t.RemoveFields, f)
	}

	for _, sf := range cfg.SetFields {
		f, ok := record.ParseField(sf.Field)
		if !ok {
			return nil, fmt.Errorf("transform %q: unknown field %q in set_fields", cfg.Name, sf.Field)
		}
		t.SetFields = append(t.SetFields, SetField{Field: f, Value: sf.Value})
	}

	for _, rc := range cfg.MessageReplace {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("transform %q: invalid message_replace pattern %q: %w", cfg.Name, rc.Pattern, err)
		}
		t.MessageReplace = append(t.MessageReplace, Replacement{Pattern: re, Replacement: rc.Replacement})
	}

	for _, rc := range cfg.MaskPatterns {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("transform %q: invalid mask_patterns pattern %q: %w", cfg.Name, rc.Pattern, err)
		}
		t.MaskPatterns = append(t.MaskPatterns, Replacement{Pattern: re, Replacement: rc.Replacement})
	}

	return t, nil
}
