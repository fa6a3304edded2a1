package postgrest

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

var reservedChars = regexp.MustCompile(`[,()]`)

// Filter appends "column=operator.value" exactly as given. Use it for
// operators without a dedicated method.
func (b *QueryBuilder) Filter(column, operator, value string) *QueryBuilder {
	b.filters = append(b.filters, param{key: column, value: operator + "." + value})
	return b
}

// Not negates operator, e.g. Not("status", "eq", "archived").
func (b *QueryBuilder) Not(column, operator string, value interface{}) *QueryBuilder {
	return b.Filter(column, "not."+operator, formatValue(value))
}

// Eq matches rows where column equals value.
func (b *QueryBuilder) Eq(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "eq", formatValue(value))
}

// Neq matches rows where column is not equal to value.
func (b *QueryBuilder) Neq(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "neq", formatValue(value))
}

func (b *QueryBuilder) Gt(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "gt", formatValue(value))
}

func (b *QueryBuilder) Gte(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "gte", formatValue(value))
}

func (b *QueryBuilder) Lt(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "lt", formatValue(value))
}

func (b *QueryBuilder) Lte(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "lte", formatValue(value))
}

// Like is a case-sensitive pattern match; % is the wildcard.
func (b *QueryBuilder) Like(column, pattern string) *QueryBuilder {
	return b.Filter(column, "like", pattern)
}

// ILike is a case-insensitive pattern match.
func (b *QueryBuilder) ILike(column, pattern string) *QueryBuilder {
	return b.Filter(column, "ilike", pattern)
}

// Is checks identity against nil (null), true or false.
func (b *QueryBuilder) Is(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "is", formatValue(value))
}

// In matches rows whose column is one of values.
func (b *QueryBuilder) In(column string, values ...interface{}) *QueryBuilder {
	items := make([]string, len(values))
	for i, v := range values {
		s := formatValue(v)
		if _, ok := v.(string); ok && reservedChars.MatchString(s) {
			s = `"` + s + `"`
		}
		items[i] = s
	}
	return b.Filter(column, "in", "("+strings.Join(items, ",")+")")
}

// Contains matches array, range or jsonb columns that contain value.
// Slices and arrays become {a,b}, maps and structs are sent as JSON and strings are
// passed as range literals.
func (b *QueryBuilder) Contains(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "cs", formatContainer(value))
}

// ContainedBy is the inverse of Contains.
func (b *QueryBuilder) ContainedBy(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "cd", formatContainer(value))
}

// RangeGt matches ranges strictly right of rng.
func (b *QueryBuilder) RangeGt(column, rng string) *QueryBuilder {
	return b.Filter(column, "sr", rng)
}

// RangeGte matches ranges that do not extend left of rng.
func (b *QueryBuilder) RangeGte(column, rng string) *QueryBuilder {
	return b.Filter(column, "nxl", rng)
}

// RangeLt matches ranges strictly left of rng.
func (b *QueryBuilder) RangeLt(column, rng string) *QueryBuilder {
	return b.Filter(column, "sl", rng)
}

// RangeLte matches ranges that do not extend right of rng.
func (b *QueryBuilder) RangeLte(column, rng string) *QueryBuilder {
	return b.Filter(column, "nxr", rng)
}

// RangeAdjacent matches ranges adjacent to rng.
func (b *QueryBuilder) RangeAdjacent(column, rng string) *QueryBuilder {
	return b.Filter(column, "adj", rng)
}

// Overlaps matches arrays or ranges sharing an element with value.
func (b *QueryBuilder) Overlaps(column string, value interface{}) *QueryBuilder {
	return b.Filter(column, "ov", formatContainer(value))
}

// TextSearchType selects the tsquery parser.
type TextSearchType string

const (
	TextSearchDefault   TextSearchType = ""
	TextSearchPlain     TextSearchType = "plain"
	TextSearchPhrase    TextSearchType = "phrase"
	TextSearchWebsearch TextSearchType = "websearch"
)

// TextSearchOptions tune TextSearch.
type TextSearchOptions struct {
	// Config is the text search configuration, e.g. "english".
	Config string
	Type   TextSearchType
}

// TextSearch matches a tsvector column against query.
func (b *QueryBuilder) TextSearch(column, query string, opts ...TextSearchOptions) *QueryBuilder {
	var o TextSearchOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	op := "fts"
	switch o.Type {
	case TextSearchPlain:
		op = "plfts"
	case TextSearchPhrase:
		op = "phfts"
	case TextSearchWebsearch:
		op = "wfts"
	}
	if o.Config != "" {
		op += "(" + o.Config + ")"
	}
	return b.Filter(column, op, query)
}

// Match adds an Eq filter for every entry, in key order.
func (b *QueryBuilder) Match(query map[string]interface{}) *QueryBuilder {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Eq(k, query[k])
	}
	return b
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func formatContainer(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = formatValue(rv.Index(i).Interface())
		}
		return "{" + strings.Join(items, ",") + "}"
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
