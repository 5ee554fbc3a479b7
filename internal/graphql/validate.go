package graphql

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema names a JSON Schema definition used to check backend payloads.
type Schema struct {
	Name       string
	Definition map[string]any
}

var (
	envelopeSchema = &Schema{
		Name: "envelope",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"data": map[string]any{"type": []any{"object", "null"}},
				"errors": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":       "object",
						"required":   []any{"message"},
						"properties": map[string]any{"message": map[string]any{"type": "string"}},
					},
				},
			},
			"anyOf": []any{
				map[string]any{"required": []any{"data"}},
				map[string]any{"required": []any{"errors"}},
			},
		},
	}

	userSchema = &Schema{
		Name: "user",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"id", "login"},
			"properties": map[string]any{
				"id":         map[string]any{"type": "integer"},
				"login":      map[string]any{"type": "string"},
				"auditRatio": map[string]any{"type": []any{"number", "null"}},
				"events": map[string]any{
					"type": []any{"array", "null"},
					"items": map[string]any{
						"type":       "object",
						"properties": map[string]any{"level": map[string]any{"type": []any{"integer", "null"}}},
					},
				},
			},
		},
	}

	transactionSchema = &Schema{
		Name: "transaction",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"type", "amount", "createdAt"},
			"properties": map[string]any{
				"id":        map[string]any{"type": "integer"},
				"type":      map[string]any{"type": "string"},
				"amount":    map[string]any{"type": "number", "minimum": 0},
				"createdAt": map[string]any{"type": "string", "minLength": 1},
				"path":      map[string]any{"type": []any{"string", "null"}},
				"userId":    map[string]any{"type": []any{"integer", "null"}},
			},
		},
	}

	progressSchema = &Schema{
		Name: "progress",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"createdAt"},
			"properties": map[string]any{
				"grade":     map[string]any{"type": []any{"number", "null"}},
				"createdAt": map[string]any{"type": "string", "minLength": 1},
				"isDone":    map[string]any{"type": []any{"boolean", "null"}},
				"path":      map[string]any{"type": []any{"string", "null"}},
				"object": map[string]any{
					"type": []any{"object", "null"},
					"properties": map[string]any{
						"id":   map[string]any{"type": "integer"},
						"name": map[string]any{"type": []any{"string", "null"}},
						"type": map[string]any{"type": []any{"string", "null"}},
					},
				},
			},
		},
	}

	skillSchema = &Schema{
		Name: "skill",
		Definition: map[string]any{
			"type":     "object",
			"required": []any{"type", "amount"},
			"properties": map[string]any{
				"type":   map[string]any{"type": "string"},
				"amount": map[string]any{"type": "number"},
			},
		},
	}
)

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validate checks raw JSON against schema.
func validate(schema *Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	return nil
}

// getCompiledSchema returns a cached compiled schema or compiles and caches it.
func getCompiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON values.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
