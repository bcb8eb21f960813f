package filter

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
)

// queryKey is field[op]:type, with op and type optional.
var queryKey = regexp.MustCompile(`^([^\[\]:]+)(?:\[([a-z]+)\])?(?::(string|number|bool))?$`)

// FromQuery decodes URL query parameters into a query document for Parse.
//
//	color=red                  {"color": "red"}
//	size[gte]:number=3         {"size": {"$gte": 3}}
//	active:bool=true           {"active": true}
//	tag[in]=a&tag[in]=b        {"tag": {"$in": ["a", "b"]}}
//
// Values are strings unless a type is given. Keys listed in skip (paging
// parameters) are ignored.
func FromQuery(values url.Values, skip ...string) (map[string]interface{}, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	doc := map[string]interface{}{}
	for _, k := range keys {
		m := queryKey.FindStringSubmatch(k)
		if m == nil {
			return nil, invalid("malformed query parameter %q", k)
		}
		field, op, typ := m[1], m[2], m[3]

		typed := make([]interface{}, 0, len(values[k]))
		for _, raw := range values[k] {
			v, err := convert(raw, typ)
			if err != nil {
				return nil, invalid("query parameter %q: %v", k, err)
			}
			typed = append(typed, v)
		}

		if op == "" {
			if len(typed) != 1 {
				return nil, invalid("query parameter %q given more than once", k)
			}
			if _, dup := doc[field]; dup {
				return nil, invalid("query field %q combines equality with operators", field)
			}
			doc[field] = typed[0]
			continue
		}

		var val interface{} = typed[0]
		switch Op("$" + op) {
		case In, Nin:
			val = typed
		default:
			if len(typed) != 1 {
				return nil, invalid("query parameter %q given more than once", k)
			}
		}
		existing, ok := doc[field]
		var ops map[string]interface{}
		if ok {
			ops, ok = existing.(map[string]interface{})
			if !ok {
				return nil, invalid("query field %q combines equality with operators", field)
			}
		} else {
			ops = map[string]interface{}{}
			doc[field] = ops
		}
		ops["$"+op] = val
	}
	return doc, nil
}

func convert(raw, typ string) (interface{}, error) {
	switch typ {
	case "number":
		return strconv.ParseFloat(raw, 64)
	case "bool":
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
