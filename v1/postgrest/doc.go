// Package postgrest is the query surface of a Supabase project, a typed
// builder over the PostgREST HTTP API.
//
// A QueryBuilder is created with From, narrowed with filters that combine as
// AND in the order they are chained, optionally turned into a mutation, and
// sent exactly once with Execute, ExecuteTo or CSV:
//
//	var rows []Message
//	_, err := client.From("messages").
//	    Select("id, text, created_at").
//	    Eq("room", "lobby").
//	    Gte("created_at", since).
//	    Order("created_at", postgrest.OrderOptions{Descending: true}).
//	    Limit(20).
//	    ExecuteTo(ctx, &rows)
//
// Mutations:
//
//	client.From("messages").Insert(Message{Text: "hi"}).Select("*")
//	client.From("messages").Update(map[string]interface{}{"text": "edited"}).Eq("id", 7)
//	client.From("profiles").Upsert(p, postgrest.UpsertOptions{OnConflict: "username"})
//	client.From("messages").Delete().Eq("id", 7)
//
// Delete without a filter removes every row the caller is allowed to see.
// The request is still sent; only a warning is logged.
//
// Errors reported by PostgREST are returned as *Error with the code, message,
// details and hint from the response body.
package postgrest
