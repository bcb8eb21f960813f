package filter

import (
	"reflect"
	"strings"
)

// Match evaluates f against doc with MongoDB-like semantics for the
// supported operators: numbers compare by value regardless of Go type,
// ordering operators only compare values of the same kind, and a condition
// on an array field matches when any element matches.
func (f Filter) Match(doc map[string]interface{}) bool {
	for _, c := range f {
		if !c.match(doc) {
			return false
		}
	}
	return true
}

func (c Cond) match(doc map[string]interface{}) bool {
	v, present := lookup(doc, c.Field)
	switch c.Op {
	case Exists:
		want, _ := c.Value.(bool)
		return present == want
	case Ne:
		return !present || !eqOrContains(v, c.Value)
	case Nin:
		if !present {
			return true
		}
		for _, cand := range c.Value.([]interface{}) {
			if eqOrContains(v, cand) {
				return false
			}
		}
		return true
	}
	if !present {
		return false
	}
	switch c.Op {
	case Eq:
		return eqOrContains(v, c.Value)
	case In:
		for _, cand := range c.Value.([]interface{}) {
			if eqOrContains(v, cand) {
				return true
			}
		}
		return false
	case Gt, Gte, Lt, Lte:
		if arr, ok := v.([]interface{}); ok {
			for _, el := range arr {
				if ordered(c.Op, el, c.Value) {
					return true
				}
			}
			return false
		}
		return ordered(c.Op, v, c.Value)
	}
	return false
}

func lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String &&
		rv.Type().ConvertibleTo(reflect.TypeOf(map[string]interface{}{})) {
		return rv.Convert(reflect.TypeOf(map[string]interface{}{})).Interface().(map[string]interface{}), true
	}
	return nil, false
}

func eqOrContains(v, want interface{}) bool {
	if equal(v, want) {
		return true
	}
	if arr, ok := v.([]interface{}); ok {
		for _, el := range arr {
			if equal(el, want) {
				return true
			}
		}
	}
	return false
}

func equal(a, b interface{}) bool {
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return ai == bi
		}
	}
	if af, ok := number(a); ok {
		bf, ok := number(b)
		return ok && af == bf
	}
	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equal(av, bv) {
				return false
			}
		}
		return true
	}
	if aa, ok := a.([]interface{}); ok {
		ba, ok := b.([]interface{})
		if !ok || len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !equal(aa[i], ba[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func ordered(op Op, a, b interface{}) bool {
	var cmp int
	if af, ok := number(a); ok {
		bf, ok := number(b)
		if !ok {
			return false
		}
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		}
	} else if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return false
		}
		cmp = strings.Compare(as, bs)
	} else {
		return false
	}
	switch op {
	case Gt:
		return cmp > 0
	case Gte:
		return cmp >= 0
	case Lt:
		return cmp < 0
	case Lte:
		return cmp <= 0
	}
	return false
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
