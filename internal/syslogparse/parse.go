// Package syslogparse decodes a single already-framed syslog message (one
// UDP datagram, or one TCP frame after RFC 6587 framing has been resolved
// by the ingress layer) into a record.Record.
//
// Format detection is strictly ordered, per spec §4.1:
//  1. "<N>1 " (priority, then the literal version digit "1", then a
//     space) => RFC 5424.
//  2. "<N>" alone => RFC 3164.
//  3. Anything else => the permissive fallback.
package syslogparse

import (
	"time"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

// Parse decodes data (the raw bytes of exactly one message) into a Record.
// The returned Record's Raw field is always data; callers must not mutate
// data afterwards since it continues to back Raw for the record's whole
// lifetime.
//
// An error is returned only for conditions the spec marks as terminal for
// the message (§4.1, §7): empty input, an out-of-range or non-numeric
// priority, a truncated RFC 5424 header, or malformed structured data.
// RFC 3164 instead tolerates a bad date/header by falling back to treating
// the remainder as the message body.
func Parse(data []byte) (*record.Record, error) {
	return parseAt(data, time.Now())
}

// parseAt is Parse with an injectable clock, used by tests exercising the
// RFC 3164 year-rollover rule without depending on wall-clock time.
func parseAt(data []byte, now time.Time) (*record.Record, error) {
	if len(data) == 0 {
		return nil, &ParseError{KindEmptyMessage}
	}

	var rec *record.Record

	if data[0] == '<' {
		pri, rest, ok := parsePriority(data)
		if !ok {
			return nil, &ParseError{KindBadPriority}
		}

		if len(rest) >= 2 && rest[0] == '1' && rest[1] == ' ' {
			var err error
			rec, err = parseRFC5424(pri, rest[2:])
			if err != nil {
				return nil, err
			}
		} else {
			rec = parseRFC3164(pri, rest, now)
		}
	} else {
		rec = parsePermissive(data)
	}

	rec.Raw = data
	return rec, nil
}
