package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSetsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var body map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL:   srv.URL + "/rest/v1/",
		APIKey:    "anon",
		Headers:   map[string]string{"X-Extra": "1"},
		Component: "postgrest",
	})

	resp, err := c.Do(context.Background(), Request{
		Operation: "insert",
		Method:    http.MethodPost,
		Path:      "/messages",
		RawQuery:  "b=2&a=1",
		Header:    http.Header{"Prefer": []string{"return=representation"}},
		Body:      map[string]string{"text": "hi"},
	})
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, "/rest/v1/messages", got.URL.Path)
	assert.Equal(t, "b=2&a=1", got.URL.RawQuery)
	assert.Equal(t, "anon", got.Header.Get("apikey"))
	assert.Equal(t, "Bearer anon", got.Header.Get("Authorization"))
	assert.Equal(t, ClientInfo, got.Header.Get("X-Client-Info"))
	assert.Equal(t, "1", got.Header.Get("X-Extra"))
	assert.Equal(t, "return=representation", got.Header.Get("Prefer"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "hi", body["text"])

	var out struct{ OK bool }
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
}

func TestBearerPrecedence(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	token := ""
	c := NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "anon",
		Token:   func() string { return token },
	})

	ctx := context.Background()
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)

	token = "user-jwt"
	_, err = c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	require.NoError(t, err)

	_, err = c.Do(ctx, Request{Method: http.MethodGet, Path: "/", BearerToken: "explicit"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer anon", "Bearer user-jwt", "Bearer explicit"}, auth)
}

func TestNonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"message":"bad"}`, string(resp.Body))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "k"})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET "+srv.URL+"/x")
}

func TestDecodeEmptyBody(t *testing.T) {
	r := &Response{StatusCode: 204}
	var v map[string]interface{}
	assert.NoError(t, r.Decode(&v))
	assert.Nil(t, v)
}
