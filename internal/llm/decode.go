package llm

import (
	"encoding/json"
	"strings"
)

// StripFence removes a markdown code fence wrapped around a model
// response. Already-bare input passes through unchanged, so the strip
// is idempotent.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON strips a possible markdown fence and unmarshals the rest
// into v. Every stage that parses model output goes through here;
// each call site decides its own fallback when this returns an error.
func DecodeJSON(raw string, v any) error {
	return json.Unmarshal([]byte(StripFence(raw)), v)
}
