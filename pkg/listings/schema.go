package listings

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaURL = "listing_response.json"

// responseSchemaJSON lists every mandatory key and its type. Optional keys
// accept null; everything not listed in "required" may be absent.
//
//go:embed schema/listing_response.json
var responseSchemaJSON []byte

var responseSchema = mustCompileSchema(responseSchemaURL, responseSchemaJSON)

func mustCompileSchema(url string, raw []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema resource %s: %v", url, err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", url, err))
	}
	return schema
}

// validateDocument checks data against the response schema.
func validateDocument(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := responseSchema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
