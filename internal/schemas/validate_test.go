package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["mode"],
	"properties": {
		"mode": {"type": "string", "enum": ["country", "city_only"]},
		"person": {
			"type": "object",
			"required": ["name"],
			"properties": {"name": {"type": "string"}}
		}
	}
}`

// countingSource serves schemas from a map and counts reads
type countingSource struct {
	docs  map[string]string
	reads int
}

func (c *countingSource) get(name string) ([]byte, error) {
	c.reads++
	doc, ok := c.docs[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(doc), nil
}

func newTestRegistry() (*Registry, *countingSource) {
	src := &countingSource{docs: map[string]string{"mode": modeSchema, "broken": `{"type": 12}`}}
	return NewRegistry(src.get), src
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, len(verr.Errors))
	for i, fe := range verr.Errors {
		fields[i] = fe.Field
	}
	return fields
}

func TestRegistry_Validate(t *testing.T) {
	r, src := newTestRegistry()

	assert.NoError(t, r.Validate("mode", []byte(`{"mode": "country"}`)))
	assert.Equal(t, []string{"mode"}, fieldsOf(t, r.Validate("mode", []byte(`{"mode": "planet"}`))))
	assert.Equal(t, []string{"(root)"}, fieldsOf(t, r.Validate("mode", []byte(`{"city": "Kandy"}`))))
	assert.Contains(t, fieldsOf(t, r.Validate("mode", []byte(`{"mode": "country", "person": {}}`))), "person")

	assert.Equal(t, 1, src.reads, "schema is compiled once")
}

func TestRegistry_NotJSON(t *testing.T) {
	r, _ := newTestRegistry()
	err := r.Validate("mode", []byte(`{ not json`))
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestRegistry_SchemaErrors(t *testing.T) {
	r, src := newTestRegistry()

	var serr *SchemaError
	require.ErrorAs(t, r.Validate("missing", []byte(`{}`)), &serr)
	assert.Equal(t, "missing", serr.Name)

	require.ErrorAs(t, r.Validate("broken", []byte(`{}`)), &serr)
	assert.Equal(t, "broken", serr.Name)

	// failures are not cached
	_ = r.Validate("broken", []byte(`{}`))
	assert.Equal(t, 3, src.reads)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: "person.schema.json",
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}
	assert.Equal(t, "document does not match person.schema.json: name: is required; age: must be a number", err.Error())
}
