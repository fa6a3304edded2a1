package auth

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
)

// SignUp registers a new user. When the project requires email
// confirmation the returned Session is nil.
func (a *AuthClient) SignUp(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if creds.Email == "" && creds.Phone == "" {
		return nil, ErrMissingContact
	}

	body := map[string]interface{}{"password": creds.Password}
	if creds.Email != "" {
		body["email"] = creds.Email
	} else {
		body["phone"] = creds.Phone
	}
	if creds.Data != nil {
		body["data"] = creds.Data
	}
	if c := captcha(creds.CaptchaToken); c != nil {
		body["gotrue_meta_security"] = c
	}

	resp, err := a.call(ctx, rest.Request{
		Operation: "signUp",
		Method:    http.MethodPost,
		Path:      "/signup",
		RawQuery:  redirectQuery(creds.EmailRedirectTo),
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		var u User
		if err := resp.Decode(&u); err != nil {
			return nil, err
		}
		return &AuthResponse{User: &u}, nil
	}

	a.saveSession(ctx, &s)
	a.notify(ctx, SignedIn, &s)
	return &AuthResponse{User: s.User, Session: &s}, nil
}

// SignInWithPassword exchanges an email (or phone) and password for a session.
func (a *AuthClient) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Email == "" && creds.Phone == "" {
		return nil, ErrMissingContact
	}

	body := map[string]interface{}{"password": creds.Password}
	if creds.Email != "" {
		body["email"] = creds.Email
	} else {
		body["phone"] = creds.Phone
	}
	if c := captcha(creds.CaptchaToken); c != nil {
		body["gotrue_meta_security"] = c
	}

	resp, err := a.call(ctx, rest.Request{
		Operation: "signInWithPassword",
		Method:    http.MethodPost,
		Path:      "/token",
		RawQuery:  "grant_type=password",
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	a.saveSession(ctx, &s)
	a.notify(ctx, SignedIn, &s)
	return &s, nil
}

// SignInWithOAuth returns the provider authorization URL. No request is
// made; the session arrives later through SessionFromURL.
func (a *AuthClient) SignInWithOAuth(ctx context.Context, creds OAuthCredentials) (*OAuthResponse, error) {
	if creds.Provider == "" {
		return nil, ErrMissingProvider
	}

	query := []string{"provider=" + url.QueryEscape(string(creds.Provider))}
	if creds.Options.RedirectTo != "" {
		query = append(query, redirectQuery(creds.Options.RedirectTo))
	}
	if creds.Options.Scopes != "" {
		query = append(query, "scopes="+url.QueryEscape(creds.Options.Scopes))
	}

	keys := make([]string, 0, len(creds.Options.QueryParams))
	for k := range creds.Options.QueryParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		query = append(query, url.QueryEscape(k)+"="+url.QueryEscape(creds.Options.QueryParams[k]))
	}

	target := a.rest.BaseURL() + "/authorize?" + joinQuery(query...)
	a.logInfo(ctx, "built oauth authorize url", map[string]interface{}{"provider": string(creds.Provider)})
	return &OAuthResponse{Provider: creds.Provider, URL: target}, nil
}

// SignInWithOtp sends a magic link or one-time password to an email
// address or phone number.
func (a *AuthClient) SignInWithOtp(ctx context.Context, creds OtpCredentials) (*OtpResponse, error) {
	if creds.Email == "" && creds.Phone == "" {
		return nil, ErrMissingContact
	}

	createUser := true
	if creds.Options.ShouldCreateUser != nil {
		createUser = *creds.Options.ShouldCreateUser
	}

	body := map[string]interface{}{"create_user": createUser}
	query := ""
	if creds.Email != "" {
		body["email"] = creds.Email
		query = redirectQuery(creds.Options.EmailRedirectTo)
	} else {
		body["phone"] = creds.Phone
		channel := creds.Options.Channel
		if channel == "" {
			channel = "sms"
		}
		body["channel"] = channel
	}
	if creds.Options.Data != nil {
		body["data"] = creds.Options.Data
	}
	if c := captcha(creds.Options.CaptchaToken); c != nil {
		body["gotrue_meta_security"] = c
	}

	resp, err := a.call(ctx, rest.Request{
		Operation: "signInWithOtp",
		Method:    http.MethodPost,
		Path:      "/otp",
		RawQuery:  query,
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	var out OtpResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOtp checks an OTP or token hash and signs the user in.
func (a *AuthClient) VerifyOtp(ctx context.Context, params VerifyOtpParams) (*Session, error) {
	body := map[string]interface{}{"type": string(params.Type)}
	switch {
	case params.TokenHash != "":
		body["token_hash"] = params.TokenHash
	case params.Email != "":
		body["email"] = params.Email
		body["token"] = params.Token
	case params.Phone != "":
		body["phone"] = params.Phone
		body["token"] = params.Token
	default:
		return nil, ErrMissingContact
	}

	resp, err := a.call(ctx, rest.Request{
		Operation: "verifyOtp",
		Method:    http.MethodPost,
		Path:      "/verify",
		RawQuery:  redirectQuery(params.RedirectTo),
		Body:      body,
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, ErrNoSession
	}

	a.saveSession(ctx, &s)
	event := SignedIn
	if params.Type == OtpRecovery {
		event = PasswordRecovery
	}
	a.notify(ctx, event, &s)
	return &s, nil
}

// SignOut revokes all sessions of the user. See SignOutWithScope.
func (a *AuthClient) SignOut(ctx context.Context) error {
	return a.SignOutWithScope(ctx, ScopeGlobal)
}

// SignOutWithScope revokes sessions on the server and removes the local
// session. The local session is removed and SignedOut emitted even when the
// server call fails; the server error is still returned. ScopeOthers keeps
// the local session.
func (a *AuthClient) SignOutWithScope(ctx context.Context, scope SignOutScope) error {
	s, err := a.currentSession(ctx)
	if err != nil {
		a.logWarn(ctx, "failed to load session before sign out", err, nil)
	}

	var remoteErr error
	if s != nil && s.AccessToken != "" {
		_, remoteErr = a.call(ctx, rest.Request{
			Operation:   "signOut",
			Method:      http.MethodPost,
			Path:        "/logout",
			RawQuery:    "scope=" + url.QueryEscape(string(scope)),
			BearerToken: s.AccessToken,
		})
	}

	if scope != ScopeOthers {
		a.clearSession(ctx)
		a.notify(ctx, SignedOut, nil)
	}
	return remoteErr
}

// GetUser fetches the user for jwt, or for the current session when jwt is
// omitted.
func (a *AuthClient) GetUser(ctx context.Context, jwt ...string) (*User, error) {
	if len(jwt) > 0 && jwt[0] != "" {
		return a.fetchUser(ctx, jwt[0])
	}

	s, err := a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	return a.fetchUser(ctx, s.AccessToken)
}

func (a *AuthClient) fetchUser(ctx context.Context, token string) (*User, error) {
	resp, err := a.call(ctx, rest.Request{
		Operation:   "getUser",
		Method:      http.MethodGet,
		Path:        "/user",
		BearerToken: token,
	})
	if err != nil {
		return nil, err
	}

	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser changes the signed-in user and emits UserUpdated.
func (a *AuthClient) UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error) {
	s, err := a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}

	resp, err := a.call(ctx, rest.Request{
		Operation:   "updateUser",
		Method:      http.MethodPut,
		Path:        "/user",
		Body:        attrs,
		BearerToken: s.AccessToken,
	})
	if err != nil {
		return nil, err
	}

	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}

	s.User = &u
	a.saveSession(ctx, s)
	a.notify(ctx, UserUpdated, s)
	return &u, nil
}
