package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaURL = "schema://celebrate-config.json"

// documentSchema constrains the shape of a config file. Semantic checks that
// need parsing (durations, colors) stay in Config.Validate.
const documentSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "output_dir": {"type": "string", "minLength": 1},
    "ffmpeg": {"type": "string", "minLength": 1},
    "timeout": {"type": "string", "pattern": "^[0-9.]+(ns|us|ms|s|m|h)([0-9.]+(ns|us|ms|s|m|h))*$"},
    "seed": {"type": "integer", "minimum": 0},
    "video": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "width": {"type": "integer", "minimum": 1},
        "height": {"type": "integer", "minimum": 1},
        "fps": {"type": "integer", "minimum": 1, "maximum": 240},
        "duration": {"type": "string"}
      }
    },
    "background": {"type": "string", "pattern": "^(transparent|#[0-9A-Fa-f]{6})$"},
    "parallel": {"type": "integer", "minimum": 1},
    "quality": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "crf": {"type": "integer", "minimum": 0, "maximum": 51},
        "preset": {"enum": ["ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"]}
      }
    },
    "db": {"type": "string"},
    "history_limit": {"type": "integer", "minimum": 0}
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// validateDocument checks a raw YAML document against the config schema.
func validateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil // empty file
	}

	// The validator expects JSON values, so round-trip through encoding/json
	// to turn YAML scalars into json.Number and plain maps.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert yaml: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("convert yaml: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
