package llm

import (
	"reflect"
	"testing"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```\n  ", `{"a":1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripFence(tt.input)
			if got != tt.want {
				t.Errorf("StripFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripFenceIdempotent(t *testing.T) {
	input := "```json\n{\"title\":\"test\"}\n```"
	once := StripFence(input)
	twice := StripFence(once)
	if once != twice {
		t.Errorf("strip is not idempotent: first %q, second %q", once, twice)
	}
}

func TestDecodeJSONFencedAndBareMatch(t *testing.T) {
	type payload struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}

	bare := `{"title":"人生相談","tags":["悩み","相談"]}`
	fenced := "```json\n" + bare + "\n```"

	var fromBare, fromFenced payload
	if err := DecodeJSON(bare, &fromBare); err != nil {
		t.Fatalf("decode bare: %v", err)
	}
	if err := DecodeJSON(fenced, &fromFenced); err != nil {
		t.Fatalf("decode fenced: %v", err)
	}
	if !reflect.DeepEqual(fromBare, fromFenced) {
		t.Errorf("fenced decode %+v differs from bare decode %+v", fromFenced, fromBare)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var v map[string]any
	if err := DecodeJSON("```json\nnot json at all\n```", &v); err == nil {
		t.Error("expected error for malformed payload, got nil")
	}
}
