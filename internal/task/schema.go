package task

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaURL is the resource name the embedded schema is registered under.
const SchemaURL = "https://github.com/nibzard/taskman/task.schema.json"

//go:embed task.schema.json
var embeddedSchema []byte

// EmbeddedSchema returns the raw task file schema shipped with the binary.
func EmbeddedSchema() []byte {
	out := make([]byte, len(embeddedSchema))
	copy(out, embeddedSchema)
	return out
}

// Schema is a compiled task file schema.
type Schema struct {
	// Source is "embedded" or the absolute path of the schema file.
	Source string
	schema *jsonschema.Schema
}

// DefaultSchema compiles the embedded task file schema.
func DefaultSchema() (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(SchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		return nil, fmt.Errorf("add embedded schema: %w", err)
	}
	s, err := compiler.Compile(SchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	return &Schema{Source: "embedded", schema: s}, nil
}

// LoadSchema compiles a schema file from disk.
func LoadSchema(path string) (*Schema, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("schema file not found: %s", absPath)
		}
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	s, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("invalid schema file: %w", err)
	}
	return &Schema{Source: absPath, schema: s}, nil
}

// ValidateDocument validates a decoded JSON document (as produced by
// json.Unmarshal into an interface{}) against the schema. Every failing
// location is reported as a *ValidationError in the joined result.
func (s *Schema) ValidateDocument(doc interface{}) error {
	err := s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}

	var errs []error
	collectSchemaErrors(&errs, ve)
	return errors.Join(errs...)
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// jsonPointerToPath converts "/0/id" into "[0].id".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
