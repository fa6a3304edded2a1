// Package auth implements the Supabase auth surface on top of the GoTrue
// HTTP API.
//
// An AuthClient owns the current session. Sign-in operations store the
// returned session in a SessionStore (in memory by default, or Redis through
// RedisStore) and GetSession refreshes it when it is about to expire.
//
// # Basic Usage
//
//	client, err := auth.NewClient(auth.Config{
//	    URL:    "https://xyzcompany.supabase.co/auth/v1",
//	    APIKey: anonKey,
//	})
//	if err != nil {
//	    return err
//	}
//
//	session, err := client.SignInWithPassword(ctx, auth.Credentials{
//	    Email:    "user@example.com",
//	    Password: "correct horse battery staple",
//	})
//
// # Auth State Changes
//
// OnAuthStateChange returns a *Subscription. The callback fires for every
// SIGNED_IN, SIGNED_OUT, TOKEN_REFRESHED, USER_UPDATED and PASSWORD_RECOVERY
// event until Unsubscribe is called:
//
//	sub := client.OnAuthStateChange(func(event auth.AuthChangeEvent, s *auth.Session) {
//	    log.Println("auth event", event)
//	})
//	defer sub.Unsubscribe()
//
// Callbacks run synchronously on the goroutine that caused the change. A
// callback may call back into the client.
//
// # Errors
//
// Failures reported by the server are returned as *Error with the status,
// code and message copied from the response. They are never retried or
// rewritten. IsUnauthorized, IsBadRequest and IsRateLimited classify them by
// status.
//
// SignOut removes the local session and emits SIGNED_OUT even when the
// server call fails; the server error is still returned.
//
// # OAuth
//
// SignInWithOAuth only builds the provider URL. After the user comes back to
// the redirect target, pass the full callback URL to SessionFromURL.
package auth
