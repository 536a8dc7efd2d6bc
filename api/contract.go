package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	bulkImportSchema = "schemas/bulk_import.json"
	bulkItemSchema   = "schemas/bulk_item.json"
)

var (
	bulkSchema = mustCompile(bulkImportSchema)
	itemSchema = mustCompile(bulkItemSchema)
)

func mustCompile(path string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	f, err := schemaFS.Open(path)
	if err != nil {
		panic(fmt.Sprintf("open schema %s: %v", path, err))
	}
	defer f.Close()
	if err := compiler.AddResource(path, f); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", path, err))
	}
	return compiler.MustCompile(path)
}

// validateBody checks raw JSON against a compiled schema before decoding.
// Errors name the offending JSON pointer and reason only.
func validateBody(schema *jsonschema.Schema, body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("request does not match schema: %s", describe(err))
	}
	return nil
}

// describe flattens a validation error to its leaf causes. The top level
// message carries the schema URL, which is a local file path.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "invalid value"
	}
	var reasons []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			reasons = append(reasons, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(reasons, "; ")
}
