// Package schema validates component listing documents against the fixed
// submission schema.
//
// The JSON Schema document embedded here is the single source of truth for
// the listing shape and the category taxonomy. A future schemaVersion bump is
// a single-point change: the schema file plus listing.SupportedSchemaVersion.
package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
)

//go:embed component.schema.json
var componentSchemaJSON []byte

const schemaResourceURL = "component.schema.json"

var compiled = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(componentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResourceURL, doc); err != nil {
		return nil, fmt.Errorf("failed to load embedded schema: %w", err)
	}

	sch, err := compiler.Compile(schemaResourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}
	return sch, nil
})

// Compile returns the compiled submission schema. The schema is compiled once
// per process and reused across documents.
func Compile() (*jsonschema.Schema, error) {
	return compiled()
}

// Categories returns the fixed category taxonomy declared in the schema enum.
func Categories() ([]string, error) {
	enum := gjson.GetBytes(componentSchemaJSON, "properties.categories.items.enum")
	if !enum.IsArray() {
		return nil, errors.New("embedded schema is missing the category enum")
	}

	var out []string
	for _, v := range enum.Array() {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("category enum contains a non-string entry: %s", v.Raw)
		}
		out = append(out, v.Str)
	}
	if len(out) == 0 {
		return nil, errors.New("category enum is empty")
	}
	return out, nil
}
