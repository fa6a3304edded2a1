package postgrest

import (
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// CountOption selects how PostgREST counts matching rows.
type CountOption string

const (
	CountExact     CountOption = "exact"
	CountPlanned   CountOption = "planned"
	CountEstimated CountOption = "estimated"
)

type param struct {
	key   string
	value string
}

// QueryBuilder describes one request against a single table. Chain methods
// return the same builder; Execute, ExecuteTo and CSV send the request. A
// builder can be executed once and is not safe for concurrent use.
type QueryBuilder struct {
	client *PostgrestClient
	path   string
	table  string

	method    string
	operation string
	body      interface{}

	// params holds select, order, limit and similar single-valued keys in
	// first-set order; filters holds predicates in chain order.
	params  []param
	filters []param

	prefer    []string
	accept    string
	count     CountOption
	head      bool
	maybe     bool
	singleRow bool

	err      error
	consumed atomic.Bool
}

func newBuilder(c *PostgrestClient, path, table string) *QueryBuilder {
	return &QueryBuilder{
		client:    c,
		path:      path,
		table:     table,
		method:    http.MethodGet,
		operation: "select",
	}
}

func (b *QueryBuilder) setParam(key, value string) {
	for i := range b.params {
		if b.params[i].key == key {
			b.params[i].value = value
			return
		}
	}
	b.params = append(b.params, param{key: key, value: value})
}

func (b *QueryBuilder) getParam(key string) (string, bool) {
	for _, p := range b.params {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

func (b *QueryBuilder) isMutation() bool {
	return b.operation != "select" && b.operation != "rpc"
}

// setMutation reports false when a mutation verb was already chosen.
func (b *QueryBuilder) setMutation(method, operation string, body interface{}) bool {
	if b.operation != "select" {
		if b.err == nil {
			b.err = ErrConflictingMutation
		}
		return false
	}
	b.method = method
	b.operation = operation
	b.body = body
	return true
}

// Select chooses the returned columns, e.g. "id, text, author:profiles(name)".
// After a mutation it asks the server to return the affected rows.
func (b *QueryBuilder) Select(columns ...string) *QueryBuilder {
	cols := "*"
	if len(columns) > 0 {
		cols = cleanColumns(strings.Join(columns, ","))
	}
	b.setParam("select", cols)
	return b
}

// Insert adds one row (a struct or map) or many (a slice).
func (b *QueryBuilder) Insert(values interface{}) *QueryBuilder {
	b.setMutation(http.MethodPost, "insert", values)
	return b
}

// UpsertOptions tune Upsert.
type UpsertOptions struct {
	// OnConflict lists the unique columns used to detect duplicates,
	// e.g. "user_id,slug". Empty means the primary key.
	OnConflict string

	// IgnoreDuplicates keeps the existing row instead of merging.
	IgnoreDuplicates bool
}

// Upsert inserts rows, updating (or ignoring) rows that conflict.
func (b *QueryBuilder) Upsert(values interface{}, opts ...UpsertOptions) *QueryBuilder {
	var o UpsertOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	if !b.setMutation(http.MethodPost, "upsert", values) {
		return b
	}
	if o.IgnoreDuplicates {
		b.prefer = append(b.prefer, "resolution=ignore-duplicates")
	} else {
		b.prefer = append(b.prefer, "resolution=merge-duplicates")
	}
	if o.OnConflict != "" {
		b.setParam("on_conflict", o.OnConflict)
	}
	return b
}

// Update sets the given columns on every row matched by the filters.
func (b *QueryBuilder) Update(values interface{}) *QueryBuilder {
	b.setMutation(http.MethodPatch, "update", values)
	return b
}

// Delete removes every row matched by the filters. No filter means every
// row in the table; the request is sent regardless.
func (b *QueryBuilder) Delete() *QueryBuilder {
	b.setMutation(http.MethodDelete, "delete", nil)
	return b
}

// cleanColumns drops whitespace outside double quotes.
func cleanColumns(columns string) string {
	var sb strings.Builder
	quoted := false
	for _, r := range columns {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\n' || r == '\t' || r == '\r'):
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// encodeQuery renders params then filters without reordering keys.
func (b *QueryBuilder) encodeQuery() string {
	parts := make([]string, 0, len(b.params)+len(b.filters))
	for _, p := range b.params {
		parts = append(parts, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}
	for _, f := range b.filters {
		parts = append(parts, url.QueryEscape(f.key)+"="+url.QueryEscape(f.value))
	}
	return strings.Join(parts, "&")
}
