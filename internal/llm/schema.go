package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a JSON schema from a Go type. The schema is
// embedded in prompts so the model sees the exact shape we decode.
func SchemaFor[T any]() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// SchemaJSON renders the reflected schema as indented JSON for
// inclusion in a prompt.
func SchemaJSON[T any]() string {
	data, err := json.MarshalIndent(SchemaFor[T](), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
