package syslogparse

import (
	"bytes"
	"time"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

const utf8BOM = "\xef\xbb\xbf"

// parseRFC5424 decodes the IETF structured format. data starts right after
// "<PRI>1 " (priority and version already consumed by the caller).
func parseRFC5424(pri int, data []byte) (*record.Record, error) {
	ts, data, ok := nextToken(data)
	if !ok {
		return nil, &ParseError{KindTruncatedHeader}
	}
	hostname, data, ok := nextToken(data)
	if !ok {
		return nil, &ParseError{KindTruncatedHeader}
	}
	appName, data, ok := nextToken(data)
	if !ok {
		return nil, &ParseError{KindTruncatedHeader}
	}
	procID, data, ok := nextToken(data)
	if !ok {
		return nil, &ParseError{KindTruncatedHeader}
	}
	msgID, data, ok := nextToken(data)
	if !ok {
		return nil, &ParseError{KindTruncatedHeader}
	}

	sd, data, err := consumeStructuredData(data)
	if err != nil {
		return nil, err
	}

	rec := &record.Record{
		Facility:     pri / 8,
		Severity:     pri % 8,
		OriginFormat: record.FormatRFC5424,
	}

	if !bytes.Equal(ts, []byte("-")) {
		if parsed, ok := parseRFC5424Timestamp(string(ts)); ok {
			rec.Timestamp = parsed
			rec.HasTimestamp = true
		}
	}
	if !bytes.Equal(hostname, []byte("-")) {
		rec.Hostname = string(hostname)
	}
	if !bytes.Equal(appName, []byte("-")) {
		rec.AppName = string(appName)
	}
	if !bytes.Equal(procID, []byte("-")) {
		rec.ProcID = string(procID)
	}
	if !bytes.Equal(msgID, []byte("-")) {
		rec.MsgID = string(msgID)
	}
	rec.StructuredData = string(sd)

	msg := data
	if len(msg) > 0 && msg[0] == ' ' {
		msg = msg[1:]
	}
	msg = bytes.TrimPrefix(msg, []byte(utf8BOM))
	rec.Message = decodeUTF8Lossy(msg)

	return rec, nil
}

// nextToken splits data on the next single space, the RFC 5424 header
// field separator. ok is false when no space is found (truncated header).
func nextToken(data []byte) (token, rest []byte, ok bool) {
	idx := bytes.IndexByte(data, ' ')
	if idx < 0 {
		return nil, nil, false
	}
	return data[:idx], data[idx+1:], true
}

// parseRFC5424Timestamp parses an RFC 3339 timestamp with optional
// fractional seconds, per spec §4.1. An unparseable timestamp yields
// ok=false (timestamp absent), not an error.
func parseRFC5424Timestamp(s string) (time.Time, bool) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
