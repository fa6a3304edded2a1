package auth

import "context"

// Auth is the auth surface of a Supabase project.
type Auth interface {
	SignUp(ctx context.Context, creds Credentials) (*AuthResponse, error)
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignInWithOAuth(ctx context.Context, creds OAuthCredentials) (*OAuthResponse, error)
	SignInWithOtp(ctx context.Context, creds OtpCredentials) (*OtpResponse, error)
	VerifyOtp(ctx context.Context, params VerifyOtpParams) (*Session, error)
	SignOut(ctx context.Context) error
	SignOutWithScope(ctx context.Context, scope SignOutScope) error

	// GetSession returns nil, nil when signed out. An expired session is
	// refreshed first.
	GetSession(ctx context.Context) (*Session, error)
	RefreshSession(ctx context.Context) (*Session, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	SessionFromURL(ctx context.Context, callbackURL string) (*Session, error)

	// GetUser uses jwt when given, otherwise the current session.
	GetUser(ctx context.Context, jwt ...string) (*User, error)
	UpdateUser(ctx context.Context, attrs UserAttributes) (*User, error)

	OnAuthStateChange(fn StateChangeFunc) *Subscription

	// AccessToken returns the cached access token, or "" when signed out.
	AccessToken() string
}
