package api

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"sigs.k8s.io/yaml"
)

// Kind names a document type with a published schema.
type Kind string

const (
	KindManifest Kind = "manifest"
	KindApp      Kind = "app"
	KindCluster  Kind = "cluster"
	KindRegistry Kind = "registry"
)

var kinds = []Kind{KindManifest, KindApp, KindCluster, KindRegistry}

//go:embed schema/*.schema.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[Kind]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiled = make(map[Kind]*jsonschema.Schema, len(kinds))

	for _, kind := range kinds {
		name := string(kind) + ".schema.json"
		raw, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			compileErr = fmt.Errorf("reading schema %s: %w", name, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name, doc); err != nil {
			compileErr = fmt.Errorf("adding schema %s: %w", name, err)
			return
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			compileErr = fmt.Errorf("compiling schema %s: %w", name, err)
			return
		}
		compiled[kind] = schema
	}
}

// Validate checks a YAML or JSON document against the schema of kind.
func Validate(kind Kind, data []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}

	schema, ok := compiled[kind]
	if !ok {
		return fmt.Errorf("no schema for %q", kind)
	}

	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting %s document to JSON: %w", kind, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("decoding %s document: %w", kind, err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid %s document: %w", kind, err)
	}
	return nil
}
