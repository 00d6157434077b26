package syslogparse_test

import (
	"testing"

	"github.com/brunseba/syslog-forwarder/internal/record"
	"github.com/brunseba/syslog-forwarder/internal/syslogparse"
)

// TestRoundTripRFC5424 checks spec §8 invariant 2: parsing the RFC 5424
// serialization of a 5424-origin record with no transforms reproduces the
// same fields (other than Raw, which only ever matches the original wire
// bytes, not a re-serialization).
func TestRoundTripRFC5424(t *testing.T) {
	original, err := syslogparse.Parse([]byte(
		`<38>1 2023-10-11T22:14:15.000000Z host1 sshd 1234 ID47 [ex@1 a="1"] Failed password`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wire := record.Serialize(original, record.FormatRFC5424)
	reparsed, err := syslogparse.Parse(wire)
	if err != nil {
		t.Fatalf("unexpected error re-parsing serialized record: %v", err)
	}

	if reparsed.Facility != original.Facility || reparsed.Severity != original.Severity {
		t.Errorf("facility/severity mismatch: %+v vs %+v", reparsed, original)
	}
	if !reparsed.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", reparsed.Timestamp, original.Timestamp)
	}
	if reparsed.Hostname != original.Hostname || reparsed.AppName != original.AppName ||
		reparsed.ProcID != original.ProcID || reparsed.MsgID != original.MsgID {
		t.Errorf("header field mismatch: %+v vs %+v", reparsed, original)
	}
	if reparsed.StructuredData != original.StructuredData {
		t.Errorf("structured data mismatch: %q vs %q", reparsed.StructuredData, original.StructuredData)
	}
	if reparsed.Message != original.Message {
		t.Errorf("message mismatch: %q vs %q", reparsed.Message, original.Message)
	}
}

// TestPassthroughEqualsRaw checks spec §8 invariant 3: an rfc3164-origin
// record with no transforms and format=auto emits exactly the original
// bytes.
func TestPassthroughEqualsRaw(t *testing.T) {
	raw := []byte("<38>Oct 11 22:14:15 host1 sshd[1234]: Failed password for root")
	rec, err := syslogparse.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := record.Serialize(rec, record.FormatAuto)
	if string(out) != string(raw) {
		t.Errorf("auto passthrough mismatch:\n got: %q\nwant: %q", out, raw)
	}
}
