package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/querykit/dialect"
)

// Bind rewrites the named placeholders (:name) of query into the positional
// form of the dialect and returns the matching argument list. Postgres
// placeholders are numbered ($1, $2, ...) and a name used twice is bound
// once; other dialects use "?" and repeat the argument.
//
// Quoted strings, quoted identifiers and Postgres casts (::type) are left
// untouched. A placeholder without a parameter is an error; parameters that
// are not referenced are ignored.
func Bind(dialectName, query string, params map[string]any) (string, []any, error) {
	if !strings.ContainsRune(query, ':') {
		return query, nil, nil
	}
	var (
		b       strings.Builder
		args    []any
		indexes map[string]int
		quote   byte
	)
	if dialectName == dialect.Postgres {
		indexes = make(map[string]int)
	}
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i++
		case c == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdentChar(query[j]) {
				j++
			}
			name := query[i+1 : j]
			v, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("missing parameter %q", name)
			}
			if indexes != nil {
				idx, seen := indexes[name]
				if !seen {
					args = append(args, v)
					idx = len(args)
					indexes[name] = idx
				}
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(idx))
			} else {
				args = append(args, v)
				b.WriteByte('?')
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
