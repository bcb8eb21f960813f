// Package filter turns a client-supplied query document into a typed,
// store-neutral list of conditions.
//
// A query document maps field paths to either a literal (equality) or an
// operator object such as {"$gte": 3, "$lt": 10}. Only a fixed set of
// comparison operators is accepted; top-level operators ($where, $or, ...)
// are rejected. Conditions are rendered as BSON for MongoDB (BSON) or
// evaluated in memory (Match).
//
// Tenant scoping is never expressed through a Filter: stores add the
// organization and collection keys themselves, so a client cannot widen its
// scope through the query body.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/rentity/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/bson"
)

// Op is a comparison operator.
type Op string

const (
	Eq     Op = "$eq"
	Ne     Op = "$ne"
	Gt     Op = "$gt"
	Gte    Op = "$gte"
	Lt     Op = "$lt"
	Lte    Op = "$lte"
	In     Op = "$in"
	Nin    Op = "$nin"
	Exists Op = "$exists"
)

var allowed = map[Op]bool{Eq: true, Ne: true, Gt: true, Gte: true, Lt: true, Lte: true, In: true, Nin: true, Exists: true}

// Cond is one condition on one field path (dot-separated).
type Cond struct {
	Field string
	Op    Op
	Value interface{}
}

// Filter is a conjunction of conditions.
type Filter []Cond

// Mapper rewrites a client field path to a stored field path. It returns
// false for paths the client may not query.
type Mapper func(field string) (string, bool)

// Prefix maps every field into the named sub-document ("data.color").
func Prefix(root string) Mapper {
	return func(field string) (string, bool) {
		return root + "." + field, true
	}
}

// Parse builds a Filter from doc. Fields are rewritten by m. Conditions are
// ordered by field path so the result is deterministic.
func Parse(doc map[string]interface{}, m Mapper) (Filter, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var f Filter
	for _, k := range keys {
		if err := checkPath(k); err != nil {
			return nil, err
		}
		field, ok := m(k)
		if !ok {
			return nil, invalid("field %q cannot be queried", k)
		}
		v := doc[k]
		ops, isOps, err := operatorObject(k, v)
		if err != nil {
			return nil, err
		}
		if !isOps {
			if err := checkLiteral(k, v); err != nil {
				return nil, err
			}
			f = append(f, Cond{Field: field, Op: Eq, Value: v})
			continue
		}
		opKeys := make([]string, 0, len(ops))
		for op := range ops {
			opKeys = append(opKeys, op)
		}
		sort.Strings(opKeys)
		for _, op := range opKeys {
			c := Cond{Field: field, Op: Op(op), Value: ops[op]}
			if err := checkCond(k, c); err != nil {
				return nil, err
			}
			f = append(f, c)
		}
	}
	return f, nil
}

func invalid(format string, args ...interface{}) error {
	return apierr.Validation(apierr.ReasonInvalidFilter, fmt.Sprintf(format, args...))
}

func checkPath(k string) error {
	if k == "" || strings.HasPrefix(k, "$") {
		return invalid("invalid query field %q", k)
	}
	for _, seg := range strings.Split(k, ".") {
		if seg == "" || strings.HasPrefix(seg, "$") {
			return invalid("invalid query field %q", k)
		}
	}
	return nil
}

// operatorObject reports whether v is an operator object ({"$gt": 1}).
// Objects mixing operators and plain keys are rejected.
func operatorObject(field string, v interface{}) (map[string]interface{}, bool, error) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false, nil
	}
	dollar := 0
	for k := range m {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	switch dollar {
	case 0:
		return nil, false, nil
	case len(m):
		return m, true, nil
	default:
		return nil, false, invalid("field %q mixes operators and plain keys", field)
	}
}

// checkLiteral rejects operator keys nested inside literal values.
func checkLiteral(field string, v interface{}) error {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, vv := range t {
			if strings.HasPrefix(k, "$") {
				return invalid("operator %q is not allowed inside a value of %q", k, field)
			}
			if err := checkLiteral(field, vv); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, vv := range t {
			if err := checkLiteral(field, vv); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkCond(field string, c Cond) error {
	if !allowed[c.Op] {
		return invalid("operator %q is not supported on %q", c.Op, field)
	}
	switch c.Op {
	case In, Nin:
		if _, ok := c.Value.([]interface{}); !ok {
			return invalid("operator %q on %q requires an array", c.Op, field)
		}
	case Exists:
		if _, ok := c.Value.(bool); !ok {
			return invalid("operator %q on %q requires a boolean", c.Op, field)
		}
	}
	return checkLiteral(field, c.Value)
}

// BSON renders f as a MongoDB filter, grouping operators per field.
func (f Filter) BSON() bson.D {
	out := bson.D{}
	index := map[string]int{}
	for _, c := range f {
		i, ok := index[c.Field]
		if !ok {
			out = append(out, bson.E{Key: c.Field, Value: bson.D{}})
			i = len(out) - 1
			index[c.Field] = i
		}
		ops := out[i].Value.(bson.D)
		out[i].Value = append(ops, bson.E{Key: string(c.Op), Value: c.Value})
	}
	return out
}
