package translation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// payloadSchema constrains delivered translation payloads: a flat object of
// text fields keyed by the source snapshot's field names.
const payloadSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {
		"type": ["string", "object"]
	}
}`

var compiledPayloadSchema = mustCompilePayloadSchema()

func mustCompilePayloadSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("payload.json", strings.NewReader(payloadSchema)); err != nil {
		panic(fmt.Sprintf("translation: payload schema resource: %v", err))
	}
	schema, err := compiler.Compile("payload.json")
	if err != nil {
		panic(fmt.Sprintf("translation: payload schema compile: %v", err))
	}
	return schema
}

// parsePayload validates well-formedness and shape of a delivered payload.
func parsePayload(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}

	if err := compiledPayloadSchema.Validate(value); err != nil {
		return nil, err
	}

	payload, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload must be a JSON object")
	}
	return payload, nil
}
