package vision

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildShiftsJSONSchema returns the JSON-Schema of a model answer: an array
// of day objects.
func BuildShiftsJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"day":       map[string]any{"type": "integer", "minimum": 1, "maximum": 31},
				"month":     map[string]any{"type": []string{"integer", "null"}, "minimum": 1, "maximum": 12},
				"year":      map[string]any{"type": []string{"integer", "null"}, "minimum": 2000, "maximum": 2100},
				"shiftType": nullableString,
				"startTime": nullableString,
				"endTime":   nullableString,
				"color":     nullableString,
				"notes":     nullableString,
			},
			"required": []string{"day"},
		},
	}
}

// ValidateJSONAgainstSchema compiles schemaMap and validates data against it.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
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
