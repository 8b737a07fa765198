// Package query provides a fluent SELECT statement builder with named
// parameters.
//
// Clauses accumulate through chained calls and are rendered in a fixed
// order by ToSQL:
//
//	q := query.New(db).
//	    Select("u.id", "u.email").
//	    From("users", "u").
//	    LeftJoin("roles r", "r.id = u.role_id").
//	    Where("u.deleted = :deleted", map[string]any{"deleted": 0}).
//	    OrWhere("u.email IS NULL", nil).
//	    OrderBy("u.id", query.Asc).
//	    Limit(20, 40)
//
//	sql, err := q.ToSQL()
//	// SELECT *, u.id, u.email
//	// FROM users u
//	// LEFT JOIN roles r ON (r.id = u.role_id)
//	// WHERE (u.deleted = :deleted OR u.email IS NULL)
//	// ORDER BY u.id ASC
//
// The default projection "*" is kept by Select; call ResetSelect first to
// replace it. OrWhere only combines with the most recently added predicate.
//
// # Execution
//
// Count, Exists and First run on a clone and never modify the receiver.
// Rows returns a lazy iter.Seq2 that executes when ranged over and always
// closes the database cursor:
//
//	for row, err := range q.Rows(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(row["email"])
//	}
//
// Misuse, such as joining before FROM is set, is reported as a
// querykit configuration error by ToSQL and every execution method.
package query
