package filter

import (
	"testing"

	"github.com/nonibytes/tablekit/tablekit/fieldpath"
	"github.com/nonibytes/tablekit/tablekit/schema"
)

func mustPath(t *testing.T, raw string) fieldpath.FieldPath {
	t.Helper()
	path, err := fieldpath.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return path
}

func TestInferMapping(t *testing.T) {
	tests := []struct {
		attr schema.AttrType
		kind Kind
	}{
		{schema.TypeBoolean, Boolean},
		{schema.TypeDate, DateRange},
		{schema.TypeDatetime, DateRange},
		{schema.TypeInteger, NumberRange},
		{schema.TypeDecimal, NumberRange},
		{schema.TypeFloat, NumberRange},
		{schema.TypeEnum, Select},
		{schema.TypeArray, MultiSelect},
		{schema.TypeText, Text},
		{schema.TypeString, Text},
		{schema.TypeMap, Text},
		{schema.TypeUnknown, Text},
	}
	for _, tt := range tests {
		kind, _ := Infer(mustPath(t, "field"), schema.Descriptor{Type: tt.attr}, true, Override{})
		if kind != tt.kind {
			t.Errorf("%s: expected %s, got %s", tt.attr, tt.kind, kind)
		}
	}
}

func TestInferRelationshipString(t *testing.T) {
	kind, opts := Infer(mustPath(t, "artist.name"), schema.Descriptor{Type: schema.TypeString}, true, Override{})
	if kind != Text {
		t.Errorf("expected text, got %s", kind)
	}
	if opts.Prompt != "Artist > Name" {
		t.Errorf("expected prompt Artist > Name, got %q", opts.Prompt)
	}
}

func TestInferEmbeddedInteger(t *testing.T) {
	kind, _ := Infer(mustPath(t, "profile[:age]"), schema.Descriptor{Type: schema.TypeInteger}, true, Override{})
	if kind != NumberRange {
		t.Errorf("expected number_range, got %s", kind)
	}
}

func TestInferNotFoundFallsBackToText(t *testing.T) {
	kind, opts := Infer(mustPath(t, "ghost.field"), schema.Descriptor{}, false, Override{})
	if kind != Text {
		t.Errorf("expected text fallback, got %s", kind)
	}
	if opts.Prompt != "Ghost > Field" {
		t.Errorf("expected derived prompt, got %q", opts.Prompt)
	}
}

func TestInferOverrideWins(t *testing.T) {
	kind, _ := Infer(mustPath(t, "available"), schema.Descriptor{Type: schema.TypeBoolean}, true, Override{Kind: Text})
	if kind != Text {
		t.Errorf("expected override text, got %s", kind)
	}
}

func TestInferEnumChoices(t *testing.T) {
	desc := schema.Descriptor{Type: schema.TypeEnum, Values: []string{"draft", "new_wave", "archived"}}
	kind, opts := Infer(mustPath(t, "status"), desc, true, Override{})
	if kind != Select {
		t.Fatalf("expected select, got %s", kind)
	}
	if len(opts.Choices) != 3 {
		t.Fatalf("expected 3 choices, got %d", len(opts.Choices))
	}
	if opts.Choices[1].Label != "New Wave" || opts.Choices[1].Value != "new_wave" {
		t.Errorf("expected (New Wave, new_wave), got (%s, %s)", opts.Choices[1].Label, opts.Choices[1].Value)
	}
}

func TestInferArrayElemChoices(t *testing.T) {
	desc := schema.Descriptor{
		Type: schema.TypeArray,
		Elem: &schema.Descriptor{Type: schema.TypeEnum, Values: []string{"live", "remaster"}},
	}
	kind, opts := Infer(mustPath(t, "tags"), desc, true, Override{})
	if kind != MultiSelect {
		t.Fatalf("expected multi_select, got %s", kind)
	}
	if len(opts.Choices) != 2 || opts.Choices[0].Value != "live" {
		t.Errorf("expected elem choices, got %v", opts.Choices)
	}
}

func TestInferMultiCheckboxesByRequest(t *testing.T) {
	desc := schema.Descriptor{
		Type: schema.TypeArray,
		Elem: &schema.Descriptor{Type: schema.TypeEnum, Values: []string{"live", "remaster"}},
	}
	kind, opts := Infer(mustPath(t, "tags"), desc, true, Override{Kind: MultiCheckboxes})
	if kind != MultiCheckboxes {
		t.Fatalf("expected multi_checkboxes, got %s", kind)
	}
	if len(opts.Choices) != 2 {
		t.Errorf("expected elem choices under override, got %v", opts.Choices)
	}
}

func TestInferExplicitOptionsPreserved(t *testing.T) {
	ov := Override{
		Kind: Select,
		Options: Options{
			Prompt:  "Pick one",
			Choices: []Option{{Label: "Only", Value: "only"}},
		},
	}
	_, opts := Infer(mustPath(t, "status"), schema.Descriptor{Type: schema.TypeEnum, Values: []string{"a", "b"}}, true, ov)
	if opts.Prompt != "Pick one" {
		t.Errorf("expected explicit prompt, got %q", opts.Prompt)
	}
	if len(opts.Choices) != 1 || opts.Choices[0].Value != "only" {
		t.Errorf("expected explicit choices, got %v", opts.Choices)
	}
}

func TestOptionLabel(t *testing.T) {
	tests := []struct {
		value string
		label string
	}{
		{"draft", "Draft"},
		{"new_wave", "New Wave"},
		{"live recording", "Live recording"},
		{"45", "45"},
		{"7-inch", "7-inch"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OptionLabel(tt.value); got != tt.label {
			t.Errorf("%q: expected %q, got %q", tt.value, tt.label, got)
		}
	}
}
