package transform

import (
	"testing"

	"github.com/brunseba/syslog-forwarder/internal/record"
)

func mustCompileTransform(t *testing.T, cfg Config) *Transform {
	t.Helper()
	tr, err := Compile(cfg)
	if err != nil {
		t.Fatalf("Compile(%q): unexpected error: %v", cfg.Name, err)
	}
	return tr
}

func TestCompileRejectsUnknownField(t *testing.T) {
	if _, err := Compile(Config{Name: "t1", RemoveFields: []string{"not_a_field"}}); err == nil {
		t.Fatal("expected an error for an unrecognized field name")
	}
}

func TestCompileRejectsInvalidRegex(t *testing.T) {
	if _, err := Compile(Config{Name: "t1", MessageReplace: []ReplacementConfig{{Pattern: "("}}}); err == nil {
		t.Fatal("expected an error for an invalid message_replace pattern")
	}
	if _, err := Compile(Config{Name: "t1", MaskPatterns: []ReplacementConfig{{Pattern: "("}}}); err == nil {
		t.Fatal("expected an error for an invalid mask_patterns pattern")
	}
}

func TestApplyIdentityOnEmptyTransformList(t *testing.T) {
	rec := &record.Record{Hostname: "host1", Message: "hello", AppName: "app"}
	wantHostname, wantMessage, wantAppName, wantModified := rec.Hostname, rec.Message, rec.AppName, rec.Modified

	registry := NewRegistry(nil)
	if err := ApplyNamed(rec, nil, registry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Hostname != wantHostname || rec.Message != wantMessage || rec.AppName != wantAppName || rec.Modified != wantModified {
		t.Fatalf("empty transform list should leave the record untouched, got %+v", rec)
	}
}

func TestApplyFixedOperationOrder(t *testing.T) {
	// set_fields must run after remove_fields: removing then setting
	// app_name should leave app_name populated, not empty.
	tr := mustCompileTransform(t, Config{
		Name:         "t1",
		RemoveFields: []string{"app_name"},
		SetFields:    []SetFieldConfig{{Field: "app_name", Value: "replaced"}},
	})
	rec := &record.Record{AppName: "original"}
	tr.Apply(rec)
	if rec.AppName != "replaced" {
		t.Fatalf("expected set_fields to run after remove_fields, got AppName=%q", rec.AppName)
	}
}

func TestApplyMessageReplaceThenMask(t *testing.T) {
	// message_replace must run before mask_patterns so a mask pattern can
	// see substituted text.
	tr := mustCompileTransform(t, Config{
		Name:           "t1",
		MessageReplace: []ReplacementConfig{{Pattern: "secret", Replacement: "password"}},
		MaskPatterns:   []ReplacementConfig{{Pattern: "password", Replacement: "****"}},
	})
	rec := &record.Record{Message: "the secret is out"}
	tr.Apply(rec)
	if rec.Message != "the **** is out" {
		t.Fatalf("unexpected message: %q", rec.Message)
	}
	if !rec.Modified {
		t.Error("expected Modified to be set")
	}
}

func TestApplyPrefixSuffixRunLast(t *testing.T) {
	tr := mustCompileTransform(t, Config{
		Name:          "t1",
		MaskPatterns:  []ReplacementConfig{{Pattern: "x", Replacement: "y"}},
		MessagePrefix: "[prefix] ",
		MessageSuffix: " [suffix]",
	})
	rec := &record.Record{Message: "x"}
	tr.Apply(rec)
	if rec.Message != "[prefix] y [suffix]" {
		t.Fatalf("unexpected message: %q", rec.Message)
	}
}

func TestMaskPatternsBackreferences(t *testing.T) {
	tr := mustCompileTransform(t, Config{
		Name: "t1",
		MaskPatterns: []ReplacementConfig{
			{Pattern: `user=(\w+) pass=\w+`, Replacement: `user=\1 pass=****`},
		},
	})
	rec := &record.Record{Message: "login user=alice pass=hunter2"}
	tr.Apply(rec)
	if rec.Message != "login user=alice pass=****" {
		t.Fatalf("unexpected message: %q", rec.Message)
	}
}

// TestMaskCompositionLaw checks spec §8: applying [A,B] equals applying B
// to the result of applying A.
func TestMaskCompositionLaw(t *testing.T) {
	a := mustCompileTransform(t, Config{
		Name:         "a",
		MaskPatterns: []ReplacementConfig{{Pattern: "foo", Replacement: "bar"}},
	})
	b := mustCompileTransform(t, Config{
		Name:         "b",
		MaskPatterns: []ReplacementConfig{{Pattern: "bar", Replacement: "baz"}},
	})
	registry := NewRegistry([]*Transform{a, b})

	rec1 := &record.Record{Message: "foo foo"}
	if err := ApplyNamed(rec1, []string{"a", "b"}, registry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec2 := &record.Record{Message: "foo foo"}
	a.Apply(rec2)
	b.Apply(rec2)

	if rec1.Message != rec2.Message {
		t.Fatalf("composition mismatch: %q vs %q", rec1.Message, rec2.Message)
	}
}

func TestApplyNamedUnknownTransformErrors(t *testing.T) {
	registry := NewRegistry(nil)
	rec := &record.Record{}
	if err := ApplyNamed(rec, []string{"missing"}, registry); err == nil {
		t.Fatal("expected an error for an unregistered transform name")
	}
}

func TestRewriteBackreferencesLeavesLiteralDollarAlone(t *testing.T) {
	tr := mustCompileTransform(t, Config{
		Name:           "t1",
		MessageReplace: []ReplacementConfig{{Pattern: "amount", Replacement: `$5 paid`}},
	})
	rec := &record.Record{Message: "amount due"}
	tr.Apply(rec)
	if rec.Message != "$5 paid due" {
		t.Fatalf("unexpected message: %q", rec.Message)
	}
}
