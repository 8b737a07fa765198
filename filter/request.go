package filter

import (
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// ParseValues converts query string values to Params. It understands
//
//	status=active            default operator
//	age[gte]=18              explicit operator
//	status[in][]=a&status[in][]=b
//	status[in]=a&status[in]=b
//	status[]=a&status[]=b    default operator with a list
//
// Repeated and "[]" keys produce a list; otherwise the last value wins.
// Values of "status" and "status[]" are merged into one list. A field given
// both plain and with explicit operators keeps the plain value under the
// empty alias, which New treats as the default operator.
func ParseValues(values url.Values) Params {
	params := make(Params, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		vals := values[key]
		if len(vals) == 0 {
			continue
		}
		field, op, list, ok := parseKey(key)
		if !ok {
			field, op = key, ""
		}
		var v any = vals[len(vals)-1]
		if list || (ok && len(vals) > 1) {
			items := make([]any, len(vals))
			for i, s := range vals {
				items[i] = s
			}
			v = items
		}
		ops, isMap := params[field].(map[string]any)
		switch {
		case isMap:
			if prev, exists := ops[op]; exists && op == "" {
				v = mergeValues(prev, v)
			}
			ops[op] = v
		case op == "":
			if prev, exists := params[field]; exists {
				v = mergeValues(prev, v)
			}
			params[field] = v
		default:
			ops = map[string]any{op: v}
			if prev, exists := params[field]; exists {
				ops[""] = prev
			}
			params[field] = ops
		}
	}
	return params
}

// mergeValues joins two default operator values given under "f" and "f[]".
func mergeValues(prev, v any) []any {
	var out []any
	for _, x := range []any{prev, v} {
		if items, ok := x.([]any); ok {
			out = append(out, items...)
		} else {
			out = append(out, x)
		}
	}
	return out
}

// parseKey splits "field[op]", "field[op][]" and "field[]".
func parseKey(key string) (field, op string, list, ok bool) {
	i := strings.IndexByte(key, '[')
	if i <= 0 {
		return "", "", false, false
	}
	field, rest := key[:i], key[i:]
	if rest == "[]" {
		return field, "", true, true
	}
	if s, found := strings.CutSuffix(rest, "[]"); found {
		rest, list = s, true
	}
	if len(rest) < 3 || rest[0] != '[' || rest[len(rest)-1] != ']' {
		return "", "", false, false
	}
	op = rest[1 : len(rest)-1]
	if strings.ContainsAny(op, "[]") {
		return "", "", false, false
	}
	return field, op, list, true
}

// FromRequest builds a filter from the query string of r.
func FromRequest(r *http.Request, opts ...Option) (*Filter, error) {
	return New(ParseValues(r.URL.Query()), opts...)
}
