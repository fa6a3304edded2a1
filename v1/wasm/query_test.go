package wasm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/supabase-go/v1/supabase"
)

type seenRequest struct {
	Method string
	Query  url.Values
	Prefer string
	Body   string
}

type fakeRest struct {
	mu   sync.Mutex
	seen []seenRequest
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.seen = append(f.seen, seenRequest{
		Method: r.Method,
		Query:  r.URL.Query(),
		Prefer: r.Header.Get("Prefer"),
		Body:   string(body),
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`[{"id":7,"done":true}]`))
}

func (f *fakeRest) last(t *testing.T) seenRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.seen)
	return f.seen[len(f.seen)-1]
}

func newRestClient(t *testing.T) (*supabase.Client, *fakeRest) {
	t.Helper()
	fake := &fakeRest{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := supabase.NewClient(supabase.Config{URL: srv.URL, APIKey: "anon-key"})
	require.NoError(t, err)
	return c, fake
}

func decodeOptions(t *testing.T, raw string) QueryOptions {
	t.Helper()
	var opts QueryOptions
	require.NoError(t, json.Unmarshal([]byte(raw), &opts))
	return opts
}

func TestRunQuerySelectWithFilters(t *testing.T) {
	c, fake := newRestClient(t)

	opts := decodeOptions(t, `{
		"select": "id, done",
		"filters": [
			{"column": "id", "operator": "gt", "value": 3},
			{"column": "tags", "operator": "cs", "value": ["a", "b"]},
			{"column": "status", "operator": "in", "value": ["open", "done"]},
			{"column": "archived", "operator": "is", "value": true, "not": true}
		],
		"order": [{"column": "id", "descending": true}],
		"limit": 5
	}`)
	resp, err := runQuery(context.Background(), c, "todos", opts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":7,"done":true}]`, string(resp.Data))

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "id,done", req.Query.Get("select"))
	assert.Equal(t, "gt.3", req.Query.Get("id"))
	assert.Equal(t, "cs.{a,b}", req.Query.Get("tags"))
	assert.Equal(t, "in.(open,done)", req.Query.Get("status"))
	assert.Equal(t, "not.is.true", req.Query.Get("archived"))
	assert.Equal(t, "id.desc", req.Query.Get("order"))
	assert.Equal(t, "5", req.Query.Get("limit"))
}

func TestRunQueryMutations(t *testing.T) {
	tests := []struct {
		name   string
		opts   string
		method string
		prefer string
		body   string
	}{
		{"insert returning rows", `{"method": "insert", "values": {"task": "x"}, "select": "*"}`, http.MethodPost, "return=representation", `{"task":"x"}`},
		{"upsert on conflict", `{"method": "upsert", "values": [{"id": 1}], "onConflict": "id"}`, http.MethodPost, "resolution=merge-duplicates,return=minimal", `[{"id":1}]`},
		{"update filtered", `{"method": "update", "values": {"done": true}, "filters": [{"column": "id", "operator": "eq", "value": 7}]}`, http.MethodPatch, "return=minimal", `{"done":true}`},
		{"delete filtered", `{"method": "delete", "filters": [{"column": "id", "operator": "eq", "value": 7}]}`, http.MethodDelete, "return=minimal", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fake := newRestClient(t)

			_, err := runQuery(context.Background(), c, "todos", decodeOptions(t, tt.opts))
			require.NoError(t, err)

			req := fake.last(t)
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.prefer, req.Prefer)
			if tt.body == "" {
				assert.Empty(t, req.Body)
			} else {
				assert.JSONEq(t, tt.body, req.Body)
			}
		})
	}
}

func TestRunQueryUnknownMethod(t *testing.T) {
	c, fake := newRestClient(t)

	_, err := runQuery(context.Background(), c, "todos", QueryOptions{Method: "truncate"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.seen)
}
