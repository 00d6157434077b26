package record

import (
	"fmt"
	"strings"
	"time"
)

const bom = "\xef\xbb\xbf"

// rfc3164TimeLayout matches the BSD syslog header's "Mmm dd hh:mm:ss", with
// a space-padded day for single-digit days.
const rfc3164TimeLayout = "Jan _2 15:04:05"

// Serialize re-encodes r in the given output format. format must be one of
// FormatRFC3164, FormatRFC5424, or FormatAuto; FormatPermissive is not a
// valid destination format and is treated as FormatRFC3164's origin twin
// for auto re-serialization only.
func Serialize(r *Record, format Format) []byte {
	switch format {
	case FormatRFC3164:
		return serializeRFC3164(r)
	case FormatRFC5424:
		return serializeRFC5424(r)
	case FormatAuto:
		if !r.Modified && r.Raw != nil {
			return r.Raw
		}
		switch r.OriginFormat {
		case FormatRFC5424:
			return serializeRFC5424(r)
		default:
			return serializeRFC3164(r)
		}
	default:
		return serializeRFC3164(r)
	}
}

func serializeRFC3164(r *Record) []byte {
	ts := r.Timestamp
	if !r.HasTimestamp {
		ts = time.Now()
	}
	ts = ts.Local()

	hostname := r.Hostname
	if hostname == "" {
		hostname = "-"
	}

	var tag strings.Builder
	tag.WriteString(r.AppName)
	if r.ProcID != "" {
		fmt.Fprintf(&tag, "[%s]", r.ProcID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<%d>%s %s", r.Priority(), ts.Format(rfc3164TimeLayout), hostname)
	if tag.Len() > 0 {
		fmt.Fprintf(&b, " %s:", tag.String())
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	return []byte(b.String())
}

func serializeRFC5424(r *Record) []byte {
	nilOr := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	ts := "-"
	if r.HasTimestamp {
		ts = r.Timestamp.Format("2006-01-02T15:04:05.000000Z07:00")
	}

	sd := r.StructuredData
	if sd == "" {
		sd = "-"
	}

	msg := r.Message
	if !isASCII(msg) {
		msg = bom + msg
	}

	return []byte(fmt.Sprintf("<%d>1 %s %s %s %s %s %s %s",
		r.Priority(), ts, nilOr(r.Hostname), nilOr(r.AppName), nilOr(r.ProcID), nilOr(r.MsgID), sd, msg))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
