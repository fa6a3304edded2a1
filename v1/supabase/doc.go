// Package supabase is the entry point for talking to a Supabase project.
//
// NewClient takes the project URL and API key and derives the service
// endpoints from the URL:
//
//	/auth/v1                 auth (GoTrue)
//	/rest/v1                 queries (PostgREST)
//	/realtime/v1/websocket   realtime channels
//
// Construction performs no network I/O and checks only that the URL is an
// absolute http or https URL. Use Config.Validate to also require an API key.
//
// Once a user signs in, queries are sent with the user's access token
// instead of the API key, and joined realtime channels receive the new token.
// On sign-out both fall back to the API key.
//
//	client, err := supabase.NewClient(*supabase.NewConfig())
//	if err != nil {
//	    return err
//	}
//	if _, err := client.Auth().SignInWithPassword(ctx, auth.Credentials{
//	    Email: email, Password: password,
//	}); err != nil {
//	    return err
//	}
//	var todos []Todo
//	_, err = client.From("todos").Select("*").Eq("done", false).ExecuteTo(ctx, &todos)
//
// Storage is optional. It is reached through an S3-compatible endpoint set in
// Config.Storage; see package storage.
package supabase
