package syslogparse

import (
	"bytes"
	"time"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

// rfc3164TimeLayout matches "Mmm dd hh:mm:ss" with a space-padded day,
// e.g. "Oct 11 22:14:15" or "Oct  1 22:14:15". Go's "_2" verb pads with a
// space exactly as the wire format does.
const rfc3164TimeLayout = "Jan _2 15:04:05"
const rfc3164TimeLen = len("Jan _2 15:04:05")

// parseRFC3164 decodes the BSD format. data starts right after "<PRI>"
// (priority already consumed by the caller). A failed date parse is
// tolerated: the whole remainder becomes the message body with no
// timestamp, per spec §4.1.
func parseRFC3164(pri int, data []byte, now time.Time) *record.Record {
	rec := &record.Record{
		Facility:     pri / 8,
		Severity:     pri % 8,
		OriginFormat: record.FormatRFC3164,
	}

	if len(data) <= rfc3164TimeLen || data[rfc3164TimeLen] != ' ' {
		rec.Message = decodeUTF8Lossy(data)
		return rec
	}

	ts, ok := parseRFC3164Timestamp(string(data[:rfc3164TimeLen]), now)
	rest := data[rfc3164TimeLen+1:]
	if !ok {
		rec.Message = decodeUTF8Lossy(data)
		return rec
	}
	rec.Timestamp = ts
	rec.HasTimestamp = true

	// HOSTNAME: up to the next space.
	sp := bytes.IndexByte(rest, ' ')
	if sp <= 0 {
		rec.Message = decodeUTF8Lossy(rest)
		return rec
	}
	rec.Hostname = string(rest[:sp])
	rest = rest[sp+1:]

	// TAG ends at the first ':' or '[', but only if that delimiter appears
	// before the next space (otherwise there is no tag, just a message).
	tagEnd := -1
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == ':' || c == '[' {
			tagEnd = i
			break
		}
		if c == ' ' {
			break
		}
	}
	if tagEnd < 0 {
		rec.Message = decodeUTF8Lossy(rest)
		return rec
	}

	rec.AppName = string(rest[:tagEnd])
	rest = rest[tagEnd:]

	if rest[0] == '[' {
		closeIdx := bytes.IndexByte(rest, ']')
		if closeIdx < 0 {
			rec.Message = decodeUTF8Lossy(rest)
			return rec
		}
		rec.ProcID = string(rest[1:closeIdx])
		rest = rest[closeIdx+1:]
	}
	if len(rest) > 0 && rest[0] == ':' {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	rec.Message = decodeUTF8Lossy(rest)
	return rec
}

// parseRFC3164Timestamp parses the year-less BSD timestamp, recovering the
// year from now with rollover: a parsed month more than one month ahead of
// now is assumed to belong to the previous year (spec §9 Open Question).
func parseRFC3164Timestamp(s string, now time.Time) (time.Time, bool) {
	ts, err := time.Parse(rfc3164TimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	candidate := time.Date(now.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, now.Location())
	if candidate.After(now.AddDate(0, 1, 0)) {
		candidate = candidate.AddDate(-1, 0, 0)
	}
	return candidate, true
}
