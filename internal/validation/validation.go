// Package validation decodes JSON request bodies into typed request
// structs and checks their validate:"..." tags.
//
// A single *validator.Validate is shared by every handler: it caches
// struct metadata and is safe for concurrent use.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrEmptyBody is returned by Decode when the request body has no content.
var ErrEmptyBody = errors.New("request body is empty")

// ErrTrailingData is returned by Decode when the body holds more than one
// JSON value.
var ErrTrailingData = errors.New("request body must contain a single JSON object")

// TypeError reports a JSON value of the wrong type for a request field.
type TypeError struct {
	Field string
	Want  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("field %s must be a %s", e.Field, e.Want)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON key ("title") rather than the Go field
	// name ("Title"), so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Decode reads exactly one JSON document from body into dst.
// An empty body yields ErrEmptyBody, a type mismatch yields *TypeError and
// anything after the document yields ErrTrailingData.
func Decode(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)

	err := dec.Decode(dst)
	if err == nil {
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return ErrTrailingData
		}
		return nil
	}

	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &TypeError{Field: typeErr.Field, Want: kindName(typeErr.Type)}
	}

	return err
}

// Struct checks every validate:"..." tag on s.
// A failing check returns validator.ValidationErrors.
func Struct(s any) error {
	return validate.Struct(s)
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return t.Kind().String()
	}
}
