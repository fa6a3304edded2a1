package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/supabase-go/v1/postgrest"
	"github.com/Aleph-Alpha/supabase-go/v1/supabase"
)

var ErrUnknownMethod = errors.New("unknown query method")

// QueryOptions is the JSON object accepted by client_query, e.g.
//
//	{"method": "update", "values": {"done": true},
//	 "filters": [{"column": "id", "operator": "eq", "value": 7}],
//	 "select": "*"}
type QueryOptions struct {
	// Method is select (default), insert, upsert, update or delete.
	Method string `json:"method"`

	// Values are the rows for insert and upsert, or the columns for update.
	Values interface{} `json:"values"`

	// Select lists the returned columns. Mutations return no rows unless
	// it is set.
	Select string `json:"select"`

	Filters []FilterOption `json:"filters"`
	Order   []OrderOption  `json:"order"`

	Limit       int    `json:"limit"`
	OnConflict  string `json:"onConflict"`
	Single      bool   `json:"single"`
	MaybeSingle bool   `json:"maybeSingle"`
}

// FilterOption is one PostgREST filter. Negate wraps it in not.
type FilterOption struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
	Negate   bool        `json:"not"`
}

type OrderOption struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
	NullsFirst bool   `json:"nullsFirst"`
}

// runQuery builds and executes the request described by opts.
func runQuery(ctx context.Context, c *supabase.Client, table string, opts QueryOptions) (*postgrest.Response, error) {
	q := c.From(table)

	switch opts.Method {
	case "", "select":
		q = q.Select(orStar(opts.Select))
	case "insert":
		q = q.Insert(opts.Values)
	case "upsert":
		q = q.Upsert(opts.Values, postgrest.UpsertOptions{OnConflict: opts.OnConflict})
	case "update":
		q = q.Update(opts.Values)
	case "delete":
		q = q.Delete()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}
	if opts.Method != "" && opts.Method != "select" && opts.Select != "" {
		q = q.Select(opts.Select)
	}

	for _, f := range opts.Filters {
		q = applyFilter(q, f)
	}
	for _, o := range opts.Order {
		q = q.Order(o.Column, postgrest.OrderOptions{Descending: o.Descending, NullsFirst: o.NullsFirst})
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	switch {
	case opts.Single:
		q = q.Single()
	case opts.MaybeSingle:
		q = q.MaybeSingle()
	}

	return q.Execute(ctx)
}

func applyFilter(q *postgrest.QueryBuilder, f FilterOption) *postgrest.QueryBuilder {
	if f.Negate {
		return q.Not(f.Column, f.Operator, f.Value)
	}
	switch f.Operator {
	case "eq":
		return q.Eq(f.Column, f.Value)
	case "neq":
		return q.Neq(f.Column, f.Value)
	case "gt":
		return q.Gt(f.Column, f.Value)
	case "gte":
		return q.Gte(f.Column, f.Value)
	case "lt":
		return q.Lt(f.Column, f.Value)
	case "lte":
		return q.Lte(f.Column, f.Value)
	case "like":
		return q.Like(f.Column, fmt.Sprint(f.Value))
	case "ilike":
		return q.ILike(f.Column, fmt.Sprint(f.Value))
	case "is":
		return q.Is(f.Column, f.Value)
	case "in":
		values, _ := f.Value.([]interface{})
		return q.In(f.Column, values...)
	case "cs":
		return q.Contains(f.Column, f.Value)
	case "cd":
		return q.ContainedBy(f.Column, f.Value)
	case "ov":
		return q.Overlaps(f.Column, f.Value)
	default:
		return q.Filter(f.Column, f.Operator, fmt.Sprint(f.Value))
	}
}

func orStar(columns string) string {
	if columns == "" {
		return "*"
	}
	return columns
}
