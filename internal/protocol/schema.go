package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	SchemaProjectCreate = "project_create.schema.json"
	SchemaPlan          = "plan.schema.json"
)

const schemaBaseURL = "https://housegen.ai/schemas/"

var ErrSchema = errors.New("schema validation failed")

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

// SchemaError carries per-field messages keyed by JSON pointer (without the
// leading slash); errors about the whole document use "non_field_errors".
type SchemaError struct {
	Fields map[string]string
	cause  error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("%v: %v", ErrSchema, e.cause) }
func (e *SchemaError) Unwrap() error { return ErrSchema }

// FieldError reports a single invalid field found after schema validation.
func FieldError(field string, err error) *SchemaError {
	return &SchemaError{Fields: map[string]string{field: err.Error()}, cause: err}
}

// DecodeError labels a json.Unmarshal failure on a body that already passed
// schema validation with the field that caused it.
func DecodeError(err error) *SchemaError {
	var ute *json.UnmarshalTypeError
	switch {
	case errors.As(err, &ute) && ute.Field != "":
		return FieldError(ute.Field, fmt.Errorf("cannot decode %s as %s", ute.Value, ute.Type))
	case errors.Is(err, ErrDecimal):
		// Cents is the only custom decoder in request bodies.
		return FieldError("budget", err)
	default:
		return FieldError("non_field_errors", err)
	}
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	ents, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	for _, e := range ents {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBaseURL+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}
	out := make(map[string]*jsonschema.Schema, len(ents))
	for _, e := range ents {
		s, err := c.Compile(schemaBaseURL + e.Name())
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", e.Name(), err)
		}
		out[e.Name()] = s
	}
	return out, nil
}

// Validate checks raw JSON against one of the embedded schemas.
func Validate(name string, raw []byte) error {
	schemasOnce.Do(func() { schemas, schemasErr = compileSchemas() })
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &SchemaError{Fields: map[string]string{"non_field_errors": "malformed JSON"}, cause: err}
	}
	if err := s.Validate(doc); err != nil {
		return &SchemaError{Fields: fieldErrors(err), cause: err}
	}
	return nil
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		out["non_field_errors"] = err.Error()
		return out
	}
	for _, be := range ve.BasicOutput().Errors {
		if be.Error == "" || strings.HasPrefix(be.Error, "doesn't validate with") {
			continue
		}
		key := strings.TrimPrefix(be.InstanceLocation, "/")
		if key == "" {
			key = "non_field_errors"
		}
		if _, ok := out[key]; !ok {
			out[key] = be.Error
		}
	}
	if len(out) == 0 {
		out["non_field_errors"] = ve.Error()
	}
	return out
}
