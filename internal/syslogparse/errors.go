package syslogparse

// Kind enumerates the parse error conditions named in the spec.
type Kind string

const (
	KindEmptyMessage       Kind = "empty message"
	KindBadPriority        Kind = "bad priority"
	KindBadVersion         Kind = "bad version"
	KindTruncatedHeader    Kind = "truncated header"
	KindMalformedStructure Kind = "malformed structured data"
)

// ParseError reports why a message could not be decoded. The protocol it
// was being decoded as (for the parse_errors_total{protocol} metric label)
// is attached by the caller, not here, since detection itself can fail
// before a protocol is chosen.
type ParseError struct {
	Kind Kind
}

func (e *ParseError) Error() string {
	return string(e.Kind)
}
