// internal/domain/models/document.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is a free-form JSON object (entity data, collection description).
// Nested values are always plain map[string]interface{} / []interface{}
// regardless of whether the document was decoded from JSON or BSON.
type Document map[string]interface{}

// UnmarshalBSON decodes into plain Go maps and slices instead of the
// driver's primitive.D / primitive.A containers.
func (d *Document) UnmarshalBSON(data []byte) error {
	var raw bson.M
	if err := bson.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Document, len(raw))
	for k, v := range raw {
		out[k] = Plain(v)
	}
	*d = out
	return nil
}

// Plain converts driver container types to map[string]interface{} and
// []interface{}, recursively.
func Plain(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[k] = Plain(vv)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[k] = Plain(vv)
		}
		return m
	case Document:
		return Plain(map[string]interface{}(t))
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = Plain(e.Value)
		}
		return m
	case primitive.A:
		s := make([]interface{}, len(t))
		for i, vv := range t {
			s[i] = Plain(vv)
		}
		return s
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, vv := range t {
			s[i] = Plain(vv)
		}
		return s
	default:
		return v
	}
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(Plain(map[string]interface{}(d)).(map[string]interface{}))
}

// Schema holds a collection's JSON Schema as raw JSON. It is stored as a
// string in BSON so schema keywords such as "$schema" or "$ref" never
// become document field names.
type Schema []byte

// IsZero reports whether no schema is declared. Used by omitempty.
func (s Schema) IsZero() bool {
	t := bytes.TrimSpace(s)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func (s Schema) MarshalJSON() ([]byte, error) {
	if s.IsZero() {
		return []byte("null"), nil
	}
	return []byte(s), nil
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*s = nil
		return nil
	}
	*s = append((*s)[:0], b...)
	return nil
}

func (s Schema) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(s))
}

func (s *Schema) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*s = nil
		return nil
	}
	str, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("collectionSchema: expected string, got %s", t)
	}
	if !json.Valid([]byte(str)) {
		return fmt.Errorf("collectionSchema: stored value is not valid JSON")
	}
	*s = Schema(str)
	return nil
}
