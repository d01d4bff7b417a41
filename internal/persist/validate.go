package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"pkt.systems/tabstack/schema"
)

const snapshotSchemaURL = "tabstack://nav-snapshot.json"

const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["active_tab"],
  "properties": {
    "active_tab": {"type": "string", "minLength": 1},
    "history": {
      "type": ["array", "null"],
      "items": {"$ref": "#/$defs/entry"}
    },
    "stacks": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "array",
        "items": {"type": "integer", "minimum": 0}
      }
    }
  },
  "$defs": {
    "entry": {
      "type": "object",
      "required": ["kind", "tab"],
      "properties": {
        "kind": {"enum": ["screen", "switch"]},
        "local_id": {"type": "integer", "minimum": 0},
        "tab": {"type": "string", "minLength": 1}
      },
      "additionalProperties": false
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func snapshotValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(snapshotSchema))
		if err != nil {
			compileErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(snapshotSchemaURL, doc); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile(snapshotSchemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks a stored snapshot document against the snapshot schema.
func Validate(data []byte) error {
	validator, err := snapshotValidator()
	if err != nil {
		return fmt.Errorf("compile snapshot schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := validator.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}

func encodeSnapshot(snapshot schema.NavSnapshot) ([]byte, error) {
	return json.MarshalIndent(snapshot, "", "  ")
}

func decodeSnapshot(data []byte) (schema.NavSnapshot, error) {
	if err := Validate(data); err != nil {
		return schema.NavSnapshot{}, err
	}
	var snapshot schema.NavSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return schema.NavSnapshot{}, err
	}
	return snapshot, nil
}
