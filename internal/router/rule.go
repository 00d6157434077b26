// Package router implements the matcher (C3) and first-match-wins rule
// engine (C4) described in spec §4.3: an ordered list of rules is evaluated
// against a record, the first rule whose predicate matches decides whether
// the record is forwarded (and through which transforms, to which
// destinations) or dropped.
package router

import "regexp"

// Action is a rule's terminal disposition for a matching record.
type Action int

const (
	// ActionForward routes the record through the rule's transforms to its
	// destinations. This is the default when a rule's action is unset.
	ActionForward Action = iota
	// ActionDrop discards the record (counted with reason "filter").
	ActionDrop
)

// Predicate is a compiled rule condition. All non-nil clauses must match
// (logical AND); a Predicate with every clause nil is a catch-all that
// always matches, per spec §4.3.
type Predicate struct {
	Facilities      map[string]struct{} // nil means "no facility clause"
	Severities      map[string]struct{} // nil means "no severity clause"
	HostnamePattern *regexp.Regexp      // nil means "no hostname clause"
	MessagePattern  *regexp.Regexp      // nil means "no message clause"
}

// Rule is a single compiled routing rule: a predicate plus the action it
// takes when matched.
type Rule struct {
	Name         string
	Predicate    Predicate
	Action       Action
	Destinations []string // destination names, in the configured order
	Transforms   []string // transform names, in the configured order
}
