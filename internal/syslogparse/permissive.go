package syslogparse

import "github.com/brunseba/syslog-forwarder/internal/record"

// parsePermissive handles anything that isn't RFC 5424 or RFC 3164 framed.
// It never fails: the whole body becomes the message, with a conventional
// facility/severity (user.notice) and no hostname or timestamp, per spec
// §4.1.
func parsePermissive(data []byte) *record.Record {
	return &record.Record{
		Facility:     1, // user
		Severity:     5, // notice
		OriginFormat: record.FormatPermissive,
		Message:      decodeUTF8Lossy(data),
	}
}
