// Package schema validates entity data against a collection's JSON Schema
// (github.com/santhosh-tekuri/jsonschema/v5).
//
// Schemas are compiled per call; nothing is cached between requests.
// Validation always runs before any write, so a rejected document leaves no
// trace in the store.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"github.com/dalemusser/rentity/internal/domain/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceURL = "rentity://collection/schema.json"

var errRefsDisabled = errors.New("external schema references are not allowed")

func compile(raw models.Schema) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.LoadURL = func(string) (io.ReadCloser, error) { return nil, errRefsDisabled }
	if err := c.AddResource(resourceURL, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile(resourceURL)
}

// Check reports whether raw is a usable schema. Failures are
// SchemaError/InvalidSchema.
func Check(raw models.Schema) error {
	if raw.IsZero() {
		return nil
	}
	if _, err := compile(raw); err != nil {
		return apierr.Schema(apierr.ReasonInvalidSchema, "collectionSchema is not a valid JSON Schema", err)
	}
	return nil
}

// Validate checks doc against raw. An empty schema accepts everything.
// Failures are SchemaError/ValidationFailed carrying the violated locations.
func Validate(raw models.Schema, doc models.Document) error {
	if raw.IsZero() {
		return nil
	}
	sch, err := compile(raw)
	if err != nil {
		return apierr.Schema(apierr.ReasonInvalidSchema, "collection has an unusable schema", err)
	}
	instance := models.Plain(map[string]interface{}(doc))
	if instance == nil {
		instance = map[string]interface{}{}
	}
	if err := sch.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return apierr.Schema(apierr.ReasonValidationFailed, "data does not match the collection schema", errors.New(describe(ve)))
		}
		return apierr.Schema(apierr.ReasonValidationFailed, "data does not match the collection schema", err)
	}
	return nil
}

// describe flattens a validation error tree into "location: message" lines,
// one per violated leaf, sorted for stable output.
func describe(ve *jsonschema.ValidationError) string {
	var lines []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			lines = append(lines, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(lines)
	return strings.Join(lines, "; ")
}
