// Package schemas validates emitted JSON documents against JSON Schemas.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	schemafiles "github.com/jonathan/cv-job-matcher/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one violation at a dotted field path
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation of a document against a schema
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("document does not match %s: %s", e.Schema, strings.Join(parts, "; "))
}

// SchemaError reports a schema that could not be found or compiled
type SchemaError struct {
	Name string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Name, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Registry compiles schemas from source on first use and reuses them
type Registry struct {
	source func(name string) ([]byte, error)

	mu       sync.Mutex
	compiled map[string]*gojsonschema.Schema
}

// NewRegistry creates a Registry reading schema documents from source
func NewRegistry(source func(name string) ([]byte, error)) *Registry {
	return &Registry{source: source, compiled: make(map[string]*gojsonschema.Schema)}
}

func (r *Registry) schema(name string) (*gojsonschema.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.compiled[name]; ok {
		return s, nil
	}
	data, err := r.source(name)
	if err != nil {
		return nil, &SchemaError{Name: name, Err: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaError{Name: name, Err: err}
	}
	r.compiled[name] = s
	return s, nil
}

// Validate checks document against the named schema. Violations come back
// as a *ValidationError.
func (r *Registry) Validate(name string, document []byte) error {
	s, err := r.schema(name)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

var embedded = NewRegistry(schemafiles.Get)

// Validate checks document against one of the embedded schemas, e.g.
// schemafiles.CandidateProfile
func Validate(name string, document []byte) error {
	return embedded.Validate(name, document)
}

// ValidateValue marshals v and validates it against an embedded schema
func ValidateValue(name string, v any) error {
	document, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return embedded.Validate(name, document)
}

// ValidateProfile validates a candidate profile document
func ValidateProfile(document []byte) error {
	return embedded.Validate(schemafiles.CandidateProfile, document)
}
