package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
)

// currentSession returns the cached session, reading the store on first use.
func (a *AuthClient) currentSession(ctx context.Context) (*Session, error) {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()

	if !a.loaded {
		s, err := a.store.Load(ctx, a.storageKey)
		if err != nil {
			return nil, err
		}
		a.session = s
		a.loaded = true
	}
	if a.session == nil {
		return nil, nil
	}
	return cloneSession(a.session), nil
}

// saveSession caches s and writes it to the store. A failing store is
// logged; the in-memory session stays authoritative for this process.
func (a *AuthClient) saveSession(ctx context.Context, s *Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = a.now().Unix() + s.ExpiresIn
	}

	a.sessionMu.Lock()
	a.session = cloneSession(s)
	a.loaded = true
	a.sessionMu.Unlock()

	if err := a.store.Save(ctx, a.storageKey, s); err != nil {
		a.logWarn(ctx, "failed to persist session", err, map[string]interface{}{"key": a.storageKey})
	}
}

func (a *AuthClient) clearSession(ctx context.Context) {
	a.sessionMu.Lock()
	a.session = nil
	a.loaded = true
	a.sessionMu.Unlock()

	if err := a.store.Delete(ctx, a.storageKey); err != nil {
		a.logWarn(ctx, "failed to remove persisted session", err, map[string]interface{}{"key": a.storageKey})
	}
}

// AccessToken returns the cached access token, or "" when signed out or
// before the session has been loaded.
func (a *AuthClient) AccessToken() string {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

// GetSession returns the current session, or nil when signed out. A session
// within the expiry margin is refreshed first and the refresh error, if any,
// is returned.
func (a *AuthClient) GetSession(ctx context.Context) (*Session, error) {
	s, err := a.currentSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.Expired(a.now(), a.margin) {
		return s, nil
	}
	return a.refresh(ctx, s.RefreshToken)
}

// RefreshSession exchanges the stored refresh token for a new session.
func (a *AuthClient) RefreshSession(ctx context.Context) (*Session, error) {
	s, err := a.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.RefreshToken == "" {
		return nil, ErrNoSession
	}
	return a.refresh(ctx, s.RefreshToken)
}

func (a *AuthClient) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	resp, err := a.call(ctx, rest.Request{
		Operation: "refreshSession",
		Method:    http.MethodPost,
		Path:      "/token",
		RawQuery:  "grant_type=refresh_token",
		Body:      map[string]string{"refresh_token": refreshToken},
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := resp.Decode(&s); err != nil {
		return nil, err
	}
	a.saveSession(ctx, &s)
	a.notify(ctx, TokenRefreshed, &s)
	return &s, nil
}

// SetSession installs an externally obtained token pair. An expired access
// token is refreshed; otherwise the user is fetched to validate it.
func (a *AuthClient) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	exp, err := jwtExpiry(accessToken)
	if err != nil {
		return nil, err
	}

	now := a.now().Unix()
	if exp != 0 && exp <= now {
		if refreshToken == "" {
			return nil, ErrNoSession
		}
		return a.refresh(ctx, refreshToken)
	}

	user, err := a.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	s := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    exp,
		User:         user,
	}
	if exp != 0 {
		s.ExpiresIn = exp - now
	}
	a.saveSession(ctx, s)
	a.notify(ctx, SignedIn, s)
	return s, nil
}

// SessionFromURL completes an OAuth or magic-link redirect. The tokens are
// read from the URL fragment, or from the query string when the fragment is
// empty. An error reported in the URL is returned as *Error.
func (a *AuthClient) SessionFromURL(ctx context.Context, callbackURL string) (*Session, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("auth: parse callback url: %w", err)
	}

	params := u.Query()
	if u.Fragment != "" {
		if params, err = url.ParseQuery(u.Fragment); err != nil {
			return nil, fmt.Errorf("auth: parse callback fragment: %w", err)
		}
	}

	if desc := params.Get("error_description"); desc != "" || params.Get("error") != "" {
		code := params.Get("error_code")
		if code == "" {
			code = params.Get("error")
		}
		if desc == "" {
			desc = params.Get("error")
		}
		return nil, &Error{Code: code, Message: desc}
	}

	accessToken := params.Get("access_token")
	if accessToken == "" {
		return nil, ErrInvalidCallbackURL
	}

	user, err := a.fetchUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	s := &Session{
		AccessToken:          accessToken,
		RefreshToken:         params.Get("refresh_token"),
		TokenType:            params.Get("token_type"),
		ProviderToken:        params.Get("provider_token"),
		ProviderRefreshToken: params.Get("provider_refresh_token"),
		User:                 user,
	}
	if v, err := strconv.ParseInt(params.Get("expires_in"), 10, 64); err == nil {
		s.ExpiresIn = v
	}
	if v, err := strconv.ParseInt(params.Get("expires_at"), 10, 64); err == nil {
		s.ExpiresAt = v
	}

	a.saveSession(ctx, s)
	event := SignedIn
	if params.Get("type") == string(OtpRecovery) {
		event = PasswordRecovery
	}
	a.notify(ctx, event, s)
	return s, nil
}
