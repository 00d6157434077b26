// Package record defines the canonical in-memory syslog message passed
// between every stage of the relay pipeline (parser -> router -> transform
// -> serializer), and the syslog facility/severity vocabulary shared by all
// of them.
package record

import "time"

// Format identifies which wire format a record was decoded from, or should
// be re-encoded as.
type Format int

const (
	// FormatRFC5424 is the IETF structured syslog format (RFC 5424).
	FormatRFC5424 Format = iota
	// FormatRFC3164 is the BSD syslog format (RFC 3164).
	FormatRFC3164
	// FormatPermissive is the fallback format for anything that matches
	// neither RFC 5424 nor RFC 3164 framing.
	FormatPermissive
	// FormatAuto is only valid as a destination's output format: emit Raw
	// verbatim when untouched, otherwise re-serialize as OriginFormat.
	FormatAuto
)

func (f Format) String() string {
	switch f {
	case FormatRFC5424:
		return "rfc5424"
	case FormatRFC3164:
		return "rfc3164"
	case FormatPermissive:
		return "permissive"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Field names a single editable record attribute. Transforms dispatch
// through this closed enum instead of an open string-keyed map, per the
// spec's explicit redesign guidance away from dynamic attribute access.
type Field int

const (
	FieldHostname Field = iota
	FieldAppName
	FieldProcID
	FieldMsgID
	FieldStructuredData
)

// ParseField maps a config-facing field name to its Field constant. The
// second return value is false for any name outside the closed set the
// spec allows in remove_fields/set_fields.
func ParseField(name string) (Field, bool) {
	switch name {
	case "hostname":
		return FieldHostname, true
	case "app_name":
		return FieldAppName, true
	case "proc_id":
		return FieldProcID, true
	case "msg_id":
		return FieldMsgID, true
	case "structured_data":
		return FieldStructuredData, true
	default:
		return 0, false
	}
}

// Record is the canonical message passed between pipeline stages.
//
// Invariants (enforced by the parser, never by this type itself):
//   - 0 <= Facility <= 23, 0 <= Severity <= 7.
//   - Raw is never mutated once set; it survives the record's whole
//     lifetime for passthrough re-emission.
//   - Everything but Raw, OriginFormat, Facility, Severity, and Timestamp
//     may be edited by the transformer; once handed to an output the record
//     is treated as read-only.
type Record struct {
	Facility int
	Severity int

	// Timestamp is the message's own time, if recoverable. Zero value means
	// absent, distinguishable via HasTimestamp.
	Timestamp    time.Time
	HasTimestamp bool

	Hostname       string
	AppName        string
	ProcID         string
	MsgID          string
	StructuredData string // includes surrounding brackets, or "" if absent

	Message string

	// Raw holds the undecoded bytes exactly as received on the wire, for
	// passthrough (auto format, untouched record) re-emission. Transforms
	// never touch it.
	Raw []byte

	OriginFormat Format

	// Modified is set by the transformer the first time it changes any
	// field. The auto serializer consults this to decide between emitting
	// Raw verbatim and re-encoding in OriginFormat.
	Modified bool
}

// Priority returns the combined PRI value (facility*8 + severity).
func (r *Record) Priority() int {
	return r.Facility*8 + r.Severity
}

// Get returns the current value of an editable field.
func (r *Record) Get(f Field) string {
	switch f {
	case FieldHostname:
		return r.Hostname
	case FieldAppName:
		return r.AppName
	case FieldProcID:
		return r.ProcID
	case FieldMsgID:
		return r.MsgID
	case FieldStructuredData:
		return r.StructuredData
	default:
		return ""
	}
}

// Set overwrites an editable field and marks the record as modified.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldHostname:
		r.Hostname = value
	case FieldAppName:
		r.AppName = value
	case FieldProcID:
		r.ProcID = value
	case FieldMsgID:
		r.MsgID = value
	case FieldStructuredData:
		r.StructuredData = value
	}
	r.Modified = true
}

// Clear empties an editable field and marks the record as modified.
func (r *Record) Clear(f Field) {
	r.Set(f, "")
}
