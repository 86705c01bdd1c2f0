// Package schema provides JSON schema validation for modrun configuration
// files, module manifests and persisted run reports.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	schemafs "github.com/AndreyAkinshin/modrun/schema"
)

const (
	configSchemaName   = "config.schema.json"
	manifestSchemaName = "manifest.schema.json"
	reportSchemaName   = "report.schema.json"
)

var (
	compiled    map[string]*jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		names := []string{configSchemaName, manifestSchemaName, reportSchemaName}

		for _, name := range names {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		schemas := make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			s, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			schemas[name] = s
		}
		compiled = schemas
	})

	return compileErr
}

func validateJSON(name, what string, data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := compiled[name].Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}

	return nil
}

// yamlToJSON re-encodes a YAML document as JSON so it can be checked
// against the same schemas as JSON input.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("YAML document is not representable as JSON: %w", err)
	}
	return out, nil
}

// ValidateConfig validates JSON data against the config schema.
func ValidateConfig(data []byte) error {
	return validateJSON(configSchemaName, "config", data)
}

// ValidateManifest validates a YAML module manifest against the manifest schema.
func ValidateManifest(data []byte) error {
	jsonData, err := yamlToJSON(data)
	if err != nil {
		return err
	}
	return validateJSON(manifestSchemaName, "manifest", jsonData)
}

// ValidateReport validates a persisted run report. YAML input is accepted
// when isYAML is set.
func ValidateReport(data []byte, isYAML bool) error {
	if isYAML {
		jsonData, err := yamlToJSON(data)
		if err != nil {
			return err
		}
		data = jsonData
	}
	return validateJSON(reportSchemaName, "report", data)
}
