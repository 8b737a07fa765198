// Package filter turns LHS bracket parameters into validated SQL
// conditions.
//
// Parameters map a field to a value for the default operator, or to a map
// of operator alias to value:
//
//	?age[gte]=18&status[in]=todo,open&name[like]=jo*
//
//	f, err := filter.FromRequest(r, filter.WithDefinition(registry, users))
//	if err != nil {
//	    http.Error(w, err.Error(), querykit.StatusCode(err))
//	    return
//	}
//	q := f.Apply(query.New(db).From("users", "u"), "u")
//
// A Definition declares the accepted fields, their kind, choices and
// operators. Fields absent from a non-empty definition are ignored. A
// Registry resolves each definition once and is meant to be shared by all
// requests.
//
// Supported operators are eq, neq, gt, gte, lt, lte, isnull, notnull,
// like, notlike and in. In like patterns '*' is the wildcard and the SQL
// metacharacters '%' and '_' match literally.
package filter
