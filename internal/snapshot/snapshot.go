// Package snapshot converts a collection to and from the string value kept
// in the key/value store.
//
// The wire format is a JSON array of {"text","done","id"} objects. Decode
// checks the shape against an embedded JSON Schema before unmarshalling so
// that a value like `{"id":1}` or `[{"id":"1"}]` is reported as malformed
// instead of being half-loaded.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrMalformed matches every error returned by Decode.
var ErrMalformed = errors.New("malformed snapshot")

const entriesSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["text", "done", "id"],
    "properties": {
      "text": {"type": "string"},
      "done": {"type": "boolean"},
      "id":   {"type": "integer"}
    }
  }
}`

var entriesSchema = jsonschema.MustCompileString("entries.schema.json", entriesSchemaJSON)

// DecodeError describes why a stored value could not be read back.
type DecodeError struct {
	Path string // JSON pointer to the offending value, "" for the document
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrMalformed, e.Err)
	}
	return fmt.Sprintf("%s at %s: %v", ErrMalformed, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrMalformed }

// Encode serializes c. A nil collection encodes as "[]".
func Encode(c model.Collection) (string, error) {
	if c == nil {
		c = model.Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return string(b), nil
}

// Decode parses a value produced by Encode (or by any writer using the same
// array-of-entries shape). Unknown fields are dropped.
func Decode(s string) (model.Collection, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := entriesSchema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}
	var c model.Collection
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return c, nil
}

// schemaError reduces a validation tree to its first leaf.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &DecodeError{Err: err}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &DecodeError{
		Path: ve.InstanceLocation,
		Err:  errors.New(strings.TrimSpace(ve.Message)),
	}
}
