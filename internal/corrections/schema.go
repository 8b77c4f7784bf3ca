package corrections

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildSchema returns the JSON-Schema of a corrections file: an object keyed
// by input file name whose values override extracted fields.
func BuildSchema() map[string]any {
	str := map[string]any{"type": "string", "minLength": 1}
	override := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"minProperties":        1,
		"properties": map[string]any{
			"po_number":    str,
			"job":          str,
			"lot":          str,
			"description":  str,
			"amount":       amountProp(),
			"customer":     str,
			"job_location": str,
			"signature":    str,
			"through_date": map[string]any{"type": "string", "pattern": `^\d{2}/\d{2}/\d{4}$`},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": override,
	}
}

func amountProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\$?\s*\d[\d,]*(\.\d{1,2})?$`,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("corrections.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("corrections.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
