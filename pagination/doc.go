// Package pagination pages through query results by page number or by
// cursor.
//
// Page runs a LIMIT/OFFSET query and counts the total once the page has
// been read:
//
//	p := pagination.NewPage(q).SetLimit(20).SetPage(3)
//	for row, err := range p.Rows(ctx) {
//	    ...
//	}
//	total, _ := p.Total()
//
// Cursor orders by a unique column and resumes after a known value. It
// fetches one extra row to tell whether a next page exists:
//
//	c := pagination.NewCursor(q, "u.id").SetLimit(20).SetCursor(after)
//	for row, err := range c.Rows(ctx) {
//	    ...
//	}
//	next, _ := c.NextCursor() // nil on the last page
//
// EncodeCursor and DecodeCursor convert cursor values to opaque tokens for
// use in URLs.
package pagination
