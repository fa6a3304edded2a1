package postgrest

import (
	"net/http"
	"strconv"
)

// OrderOptions tune Order. The zero value sorts ascending.
type OrderOptions struct {
	Descending bool
	NullsFirst bool
	NullsLast  bool

	// ForeignTable orders an embedded resource instead of the parent rows.
	ForeignTable string
}

// Order sorts the result by column. Repeated calls add tie-breakers.
func (b *QueryBuilder) Order(column string, opts ...OrderOptions) *QueryBuilder {
	var o OrderOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	key := "order"
	if o.ForeignTable != "" {
		key = o.ForeignTable + ".order"
	}

	term := column + ".asc"
	if o.Descending {
		term = column + ".desc"
	}
	switch {
	case o.NullsFirst:
		term += ".nullsfirst"
	case o.NullsLast:
		term += ".nullslast"
	}

	if existing, ok := b.getParam(key); ok && existing != "" {
		term = existing + "," + term
	}
	b.setParam(key, term)
	return b
}

// Limit caps the number of rows, optionally for an embedded resource.
func (b *QueryBuilder) Limit(count int, foreignTable ...string) *QueryBuilder {
	key := "limit"
	if len(foreignTable) > 0 && foreignTable[0] != "" {
		key = foreignTable[0] + ".limit"
	}
	b.setParam(key, strconv.Itoa(count))
	return b
}

// Range returns rows from through to, both zero-based and inclusive.
func (b *QueryBuilder) Range(from, to int, foreignTable ...string) *QueryBuilder {
	prefix := ""
	if len(foreignTable) > 0 && foreignTable[0] != "" {
		prefix = foreignTable[0] + "."
	}
	b.setParam(prefix+"offset", strconv.Itoa(from))
	b.setParam(prefix+"limit", strconv.Itoa(to-from+1))
	return b
}

// Single expects exactly one row and returns it as an object. Zero or many
// rows are reported by the server as an error.
func (b *QueryBuilder) Single() *QueryBuilder {
	b.singleRow = true
	b.accept = "application/vnd.pgrst.object+json"
	return b
}

// MaybeSingle is like Single but zero rows yields null data instead of an error.
func (b *QueryBuilder) MaybeSingle() *QueryBuilder {
	b.maybe = true
	return b
}

// Count asks the server for the number of matching rows, reported in
// Response.Count.
func (b *QueryBuilder) Count(option CountOption) *QueryBuilder {
	b.count = option
	return b
}

// Head sends a HEAD request for a select, returning only the count.
func (b *QueryBuilder) Head() *QueryBuilder {
	b.head = true
	return b
}

func (b *QueryBuilder) httpMethod() string {
	if b.head && b.method == http.MethodGet {
		return http.MethodHead
	}
	return b.method
}
