package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ProductArraySchema constrains only the envelope: an array of objects.
// Field values are coerced leniently afterwards, so odd field types do not void the whole reply.
func ProductArraySchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
		},
	}
}

var (
	productArrayOnce   sync.Once
	productArraySchema *jsonschema.Schema
	productArrayErr    error
)

func compiledProductArraySchema() (*jsonschema.Schema, error) {
	productArrayOnce.Do(func() {
		productArraySchema, productArrayErr = CompileSchema("product_array.json", ProductArraySchema())
	})
	return productArraySchema, productArrayErr
}

// CompileSchema compiles a schema expressed as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
