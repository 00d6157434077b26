// Package transform implements the record transforms described in spec
// §4.4: a named, ordered pipeline of field removal, field assignment,
// message substitution, pattern masking, and message framing, applied to a
// record in a fixed operation order regardless of how the operations are
// listed in configuration.
package transform

import (
	"fmt"
	"regexp"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

// SetField is one set_fields entry.
type SetField struct {
	Field record.Field
	Value string
}

// Replacement is a regex-driven substitution, used for both message_replace
// and each mask_patterns entry. Replacement uses sed/PCRE-style \1..\9
// backreferences (spec §4.4, §9); a '$' in it is literal text, not Go's
// regexp $-syntax.
type Replacement struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Transform is one named, compiled transform. Operations are applied in the
// fixed order below regardless of the order the fields are populated in:
// RemoveFields, then SetFields, then MessageReplace, then MaskPatterns,
// then MessagePrefix/MessageSuffix.
type Transform struct {
	Name           string
	RemoveFields   []record.Field
	SetFields      []SetField
	MessageReplace []Replacement
	MaskPatterns   []Replacement
	MessagePrefix  string
	MessageSuffix  string
}

// Apply runs t against rec in place, per spec §4.4's fixed operation order.
func (t *Transform) Apply(rec *record.Record) {
	for _, f := range t.RemoveFields {
		rec.Clear(f)
	}
	for _, sf := range t.SetFields {
		rec.Set(sf.Field, sf.Value)
	}
	for _, rep := range t.MessageReplace {
		if applied := applyReplacement(rep, rec.Message); applied != rec.Message {
			rec.Message = applied
			rec.Modified = true
		}
	}
	for _, rep := range t.MaskPatterns {
		if applied := applyReplacement(rep, rec.Message); applied != rec.Message {
			rec.Message = applied
			rec.Modified = true
		}
	}
	if t.MessagePrefix != "" {
		rec.Message = t.MessagePrefix + rec.Message
		rec.Modified = true
	}
	if t.MessageSuffix != "" {
		rec.Message = rec.Message + t.MessageSuffix
		rec.Modified = true
	}
}

// applyReplacement runs one regex substitution over s, first rewriting the
// sed-style replacement in rep.Replacement into Go's expansion syntax.
func applyReplacement(rep Replacement, s string) string {
	return rep.Pattern.ReplaceAllString(s, rewriteBackreferences(rep.Replacement))
}

// rewriteBackreferences turns an unescaped \N (1-9) into Go's ${N}, turns
// an escaped backslash (\\) into one literal backslash, and escapes every
// '$' as "$$" so it expands to a literal dollar sign.
func rewriteBackreferences(replacement string) string {
	out := make([]byte, 0, len(replacement))
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c == '\\' && i+1 < len(replacement) {
			next := replacement[i+1]
			if next >= '1' && next <= '9' {
				out = append(out, '$', '{', next, '}')
				i++
				continue
			}
			if next == '\\' {
				out = append(out, '\\')
				i++
				continue
			}
		}
		if c == '$' {
			out = append(out, '$', '$')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Registry looks up compiled transforms by name.
type Registry struct {
	byName map[string]*Transform
}

// NewRegistry builds a Registry from a set of compiled transforms.
func NewRegistry(transforms []*Transform) *Registry {
	m := make(map[string]*Transform, len(transforms))
	for _, t := range transforms {
		m[t.Name] = t
	}
	return &Registry{byName: m}
}

// Lookup returns the named transform, or false if it is not registered.
func (r *Registry) Lookup(name string) (*Transform, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// ApplyNamed applies a sequence of named transforms to rec in the order
// given. An unknown transform name is a configuration error that should
// have been caught at pipeline build time (spec §4.7); ApplyNamed returns
// an error defensively rather than silently skipping it.
func ApplyNamed(rec *record.Record, names []string, registry *Registry) error {
	for _, name := range names {
		t, ok := registry.Lookup(name)
		if !ok {
			return fmt.Errorf("unknown transform %q", name)
		}
		t.Apply(rec)
	}
	return nil
}
