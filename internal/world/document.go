package world

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("world.schema.json", schemaJSON)
})

// Decode parses a compiled world document. The document is checked
// structurally against the embedded JSON Schema first, so shape errors
// surface with schema paths before the tagged-variant decoders run.
//
// Decode performs structural checks only; call Validate afterwards for
// cross-reference validation.
func Decode(data []byte) (*Definition, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile world schema: %w", err)
	}

	// UseNumber keeps integers as json.Number so the schema's integer
	// checks are exact even past float64 precision.
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse world document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("world document schema: %w", err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("decode world document: %w", err)
	}

	// Sections are keyed by id in the flat map; the key is
	// authoritative and the embedded id is filled from it.
	for id, sec := range def.Sections {
		sec.ID = id
		def.Sections[id] = sec
	}

	return &def, nil
}
