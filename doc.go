// Package querykit builds filtered, paginated SELECT statements.
//
// The module is split into small packages:
//
//   - query assembles SELECT statements from caller supplied clause
//     primitives and runs them through a dialect.Database.
//   - filter turns LHS bracket parameters such as "age[gt]=30" into
//     validated, parameterized WHERE conditions.
//   - pagination pages a query by number or by a unique cursor column.
//   - dialect/sql adapts database/sql to dialect.Database.
//
// This package holds the error taxonomy shared by all of them. Errors
// caused by client input report IsClientError and carry an HTTP status:
//
//	f, err := filter.FromRequest(r, filter.WithDefinition(reg, users))
//	if querykit.IsClientError(err) {
//		http.Error(w, err.Error(), querykit.StatusCode(err))
//		return
//	}
package querykit
