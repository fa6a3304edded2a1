package postgrest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestBuilder() *QueryBuilder {
	c, _ := NewClient(Config{URL: "http://localhost/rest/v1"})
	return c.From("items")
}

func TestFilterEncoding(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *QueryBuilder) *QueryBuilder
		expected string
	}{
		{"eq", func(b *QueryBuilder) *QueryBuilder { return b.Eq("id", 7) }, "id=eq.7"},
		{"neq string", func(b *QueryBuilder) *QueryBuilder { return b.Neq("status", "done") }, "status=neq.done"},
		{"gt", func(b *QueryBuilder) *QueryBuilder { return b.Gt("age", 18) }, "age=gt.18"},
		{"gte", func(b *QueryBuilder) *QueryBuilder { return b.Gte("age", 18.5) }, "age=gte.18.5"},
		{"lt", func(b *QueryBuilder) *QueryBuilder { return b.Lt("age", 65) }, "age=lt.65"},
		{"lte", func(b *QueryBuilder) *QueryBuilder { return b.Lte("age", 65) }, "age=lte.65"},
		{"like", func(b *QueryBuilder) *QueryBuilder { return b.Like("name", "%Ada%") }, "name=like.%25Ada%25"},
		{"ilike", func(b *QueryBuilder) *QueryBuilder { return b.ILike("name", "ada%") }, "name=ilike.ada%25"},
		{"is null", func(b *QueryBuilder) *QueryBuilder { return b.Is("deleted_at", nil) }, "deleted_at=is.null"},
		{"is true", func(b *QueryBuilder) *QueryBuilder { return b.Is("active", true) }, "active=is.true"},
		{"in", func(b *QueryBuilder) *QueryBuilder { return b.In("id", 1, 2, 3) }, "id=in.%281%2C2%2C3%29"},
		{"in quotes reserved", func(b *QueryBuilder) *QueryBuilder { return b.In("name", "a,b", "c") }, "name=in.%28%22a%2Cb%22%2Cc%29"},
		{"contains array", func(b *QueryBuilder) *QueryBuilder { return b.Contains("tags", []string{"go", "db"}) }, "tags=cs.%7Bgo%2Cdb%7D"},
		{"contains int64 array", func(b *QueryBuilder) *QueryBuilder { return b.Contains("ids", []int64{1, 2}) }, "ids=cs.%7B1%2C2%7D"},
		{"contained by float array", func(b *QueryBuilder) *QueryBuilder {
			return b.ContainedBy("scores", []float64{1.5, 2})
		}, "scores=cd.%7B1.5%2C2%7D"},
		{"overlaps fixed array", func(b *QueryBuilder) *QueryBuilder { return b.Overlaps("ids", [2]uint8{3, 4}) }, "ids=ov.%7B3%2C4%7D"},
		{"contains empty array", func(b *QueryBuilder) *QueryBuilder { return b.Contains("tags", []string{}) }, "tags=cs.%7B%7D"},
		{"contains json", func(b *QueryBuilder) *QueryBuilder {
			return b.Contains("meta", map[string]interface{}{"a": 1})
		}, "meta=cs.%7B%22a%22%3A1%7D"},
		{"contained by range", func(b *QueryBuilder) *QueryBuilder { return b.ContainedBy("during", "[1,5)") }, "during=cd.%5B1%2C5%29"},
		{"range gt", func(b *QueryBuilder) *QueryBuilder { return b.RangeGt("r", "[1,2]") }, "r=sr.%5B1%2C2%5D"},
		{"range gte", func(b *QueryBuilder) *QueryBuilder { return b.RangeGte("r", "[1,2]") }, "r=nxl.%5B1%2C2%5D"},
		{"range lt", func(b *QueryBuilder) *QueryBuilder { return b.RangeLt("r", "[1,2]") }, "r=sl.%5B1%2C2%5D"},
		{"range lte", func(b *QueryBuilder) *QueryBuilder { return b.RangeLte("r", "[1,2]") }, "r=nxr.%5B1%2C2%5D"},
		{"adjacent", func(b *QueryBuilder) *QueryBuilder { return b.RangeAdjacent("r", "[1,2]") }, "r=adj.%5B1%2C2%5D"},
		{"overlaps", func(b *QueryBuilder) *QueryBuilder { return b.Overlaps("tags", []interface{}{"a", 1}) }, "tags=ov.%7Ba%2C1%7D"},
		{"fts", func(b *QueryBuilder) *QueryBuilder { return b.TextSearch("body", "cat & dog") }, "body=fts.cat+%26+dog"},
		{"wfts config", func(b *QueryBuilder) *QueryBuilder {
			return b.TextSearch("body", "cat", TextSearchOptions{Config: "english", Type: TextSearchWebsearch})
		}, "body=wfts%28english%29.cat"},
		{"plfts", func(b *QueryBuilder) *QueryBuilder {
			return b.TextSearch("body", "cat", TextSearchOptions{Type: TextSearchPlain})
		}, "body=plfts.cat"},
		{"phfts", func(b *QueryBuilder) *QueryBuilder {
			return b.TextSearch("body", "cat", TextSearchOptions{Type: TextSearchPhrase})
		}, "body=phfts.cat"},
		{"not", func(b *QueryBuilder) *QueryBuilder { return b.Not("status", "eq", "archived") }, "status=not.eq.archived"},
		{"raw filter", func(b *QueryBuilder) *QueryBuilder { return b.Filter("n", "gt", "1") }, "n=gt.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(newTestBuilder())
			assert.Equal(t, tt.expected, b.encodeQuery())
		})
	}
}

func TestFiltersKeepChainOrder(t *testing.T) {
	b := newTestBuilder().
		Select("id").
		Gt("b", 1).
		Eq("a", 2).
		Lt("b", 10)

	assert.Equal(t, "select=id&b=gt.1&a=eq.2&b=lt.10", b.encodeQuery())
}

func TestMatchSortsKeys(t *testing.T) {
	b := newTestBuilder().Match(map[string]interface{}{"z": 1, "a": "x"})
	assert.Equal(t, "a=eq.x&z=eq.1", b.encodeQuery())
}

func TestModifiers(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *QueryBuilder) *QueryBuilder
		expected string
	}{
		{"order default ascending", func(b *QueryBuilder) *QueryBuilder { return b.Order("id") }, "order=id.asc"},
		{"order desc", func(b *QueryBuilder) *QueryBuilder {
			return b.Order("created_at", OrderOptions{Descending: true})
		}, "order=created_at.desc"},
		{"order nulls", func(b *QueryBuilder) *QueryBuilder {
			return b.Order("a", OrderOptions{NullsFirst: true}).Order("b", OrderOptions{Descending: true, NullsLast: true})
		}, "order=a.asc.nullsfirst%2Cb.desc.nullslast"},
		{"order nulls keeps ascending", func(b *QueryBuilder) *QueryBuilder {
			return b.Order("a", OrderOptions{NullsLast: true})
		}, "order=a.asc.nullslast"},
		{"order foreign", func(b *QueryBuilder) *QueryBuilder {
			return b.Order("name", OrderOptions{ForeignTable: "authors"})
		}, "authors.order=name.asc"},
		{"limit", func(b *QueryBuilder) *QueryBuilder { return b.Limit(1) }, "limit=1"},
		{"limit replaced", func(b *QueryBuilder) *QueryBuilder { return b.Limit(1).Limit(5) }, "limit=5"},
		{"limit foreign", func(b *QueryBuilder) *QueryBuilder { return b.Limit(2, "comments") }, "comments.limit=2"},
		{"range", func(b *QueryBuilder) *QueryBuilder { return b.Range(10, 19) }, "offset=10&limit=10"},
		{"select cleaned", func(b *QueryBuilder) *QueryBuilder {
			return b.Select("id, text,\n author:profiles ( name )")
		}, "select=id%2Ctext%2Cauthor%3Aprofiles%28name%29"},
		{"select keeps quoted", func(b *QueryBuilder) *QueryBuilder { return b.Select(`"full name"`) }, "select=%22full+name%22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(newTestBuilder())
			assert.Equal(t, tt.expected, b.encodeQuery())
		})
	}
}
