package auth

import (
	"time"
)

// AuthChangeEvent names a session transition reported to OnAuthStateChange listeners.
type AuthChangeEvent string

const (
	SignedIn         AuthChangeEvent = "SIGNED_IN"
	SignedOut        AuthChangeEvent = "SIGNED_OUT"
	TokenRefreshed   AuthChangeEvent = "TOKEN_REFRESHED"
	UserUpdated      AuthChangeEvent = "USER_UPDATED"
	PasswordRecovery AuthChangeEvent = "PASSWORD_RECOVERY"
)

// Provider identifies an OAuth provider, e.g. "github".
type Provider string

const (
	ProviderApple     Provider = "apple"
	ProviderAzure     Provider = "azure"
	ProviderBitbucket Provider = "bitbucket"
	ProviderDiscord   Provider = "discord"
	ProviderFacebook  Provider = "facebook"
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderGoogle    Provider = "google"
	ProviderKeycloak  Provider = "keycloak"
	ProviderLinkedIn  Provider = "linkedin"
	ProviderNotion    Provider = "notion"
	ProviderSlack     Provider = "slack"
	ProviderSpotify   Provider = "spotify"
	ProviderTwitch    Provider = "twitch"
	ProviderTwitter   Provider = "twitter"
	ProviderWorkOS    Provider = "workos"
	ProviderZoom      Provider = "zoom"
)

// OtpType is the verification type passed to VerifyOtp.
type OtpType string

const (
	OtpSignup      OtpType = "signup"
	OtpInvite      OtpType = "invite"
	OtpMagicLink   OtpType = "magiclink"
	OtpRecovery    OtpType = "recovery"
	OtpEmailChange OtpType = "email_change"
	OtpEmail       OtpType = "email"
	OtpSMS         OtpType = "sms"
	OtpPhoneChange OtpType = "phone_change"
)

// Identity is a linked login identity of a user.
type Identity struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	IdentityData map[string]interface{} `json:"identity_data,omitempty"`
	Provider     string                 `json:"provider"`
	LastSignInAt *time.Time             `json:"last_sign_in_at,omitempty"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	UpdatedAt    *time.Time             `json:"updated_at,omitempty"`
}

// User is the GoTrue user object.
type User struct {
	ID               string                 `json:"id"`
	Aud              string                 `json:"aud"`
	Role             string                 `json:"role,omitempty"`
	Email            string                 `json:"email,omitempty"`
	Phone            string                 `json:"phone,omitempty"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	PhoneConfirmedAt *time.Time             `json:"phone_confirmed_at,omitempty"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	Identities       []Identity             `json:"identities,omitempty"`
	CreatedAt        *time.Time             `json:"created_at,omitempty"`
	UpdatedAt        *time.Time             `json:"updated_at,omitempty"`
}

// Session is the token set returned by sign-in, refresh and verify calls.
type Session struct {
	AccessToken          string `json:"access_token"`
	TokenType            string `json:"token_type"`
	ExpiresIn            int64  `json:"expires_in"`
	ExpiresAt            int64  `json:"expires_at,omitempty"`
	RefreshToken         string `json:"refresh_token"`
	ProviderToken        string `json:"provider_token,omitempty"`
	ProviderRefreshToken string `json:"provider_refresh_token,omitempty"`
	User                 *User  `json:"user,omitempty"`
}

// Expired reports whether the access token expires within margin of now.
// A session without expiry information never expires.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(margin).Unix() >= s.ExpiresAt
}

// Credentials are the email (or phone) and password used by SignUp and
// SignInWithPassword.
type Credentials struct {
	Email    string
	Phone    string
	Password string

	// Data is stored as user_metadata on sign-up.
	Data map[string]interface{}

	// EmailRedirectTo is where the confirmation link sends the user.
	EmailRedirectTo string

	CaptchaToken string
}

// AuthResponse is returned by SignUp. Session is nil while the account is
// waiting for confirmation.
type AuthResponse struct {
	User    *User
	Session *Session
}

// OAuthOptions tune the authorize URL.
type OAuthOptions struct {
	RedirectTo  string
	Scopes      string
	QueryParams map[string]string
}

// OAuthCredentials select the provider for SignInWithOAuth.
type OAuthCredentials struct {
	Provider Provider
	Options  OAuthOptions
}

// OAuthResponse carries the URL the user has to visit.
type OAuthResponse struct {
	Provider Provider
	URL      string
}

// OtpOptions tune a passwordless sign-in.
type OtpOptions struct {
	EmailRedirectTo string

	// ShouldCreateUser defaults to true when nil.
	ShouldCreateUser *bool

	Data map[string]interface{}

	// Channel is "sms" or "whatsapp" for phone OTPs.
	Channel string

	CaptchaToken string
}

// OtpCredentials hold exactly one of Email or Phone.
type OtpCredentials struct {
	Email   string
	Phone   string
	Options OtpOptions
}

// OtpResponse confirms that an OTP or magic link was dispatched.
type OtpResponse struct {
	MessageID string `json:"message_id,omitempty"`
}

// VerifyOtpParams identify the OTP being verified. Use Email or Phone with
// Token, or TokenHash alone.
type VerifyOtpParams struct {
	Email      string
	Phone      string
	Token      string
	TokenHash  string
	Type       OtpType
	RedirectTo string
}

// UserAttributes are the fields UpdateUser may change. Empty fields are left untouched.
type UserAttributes struct {
	Email    string                 `json:"email,omitempty"`
	Phone    string                 `json:"phone,omitempty"`
	Password string                 `json:"password,omitempty"`
	Nonce    string                 `json:"nonce,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SignOutScope controls which sessions SignOut revokes.
type SignOutScope string

const (
	ScopeGlobal SignOutScope = "global"
	ScopeLocal  SignOutScope = "local"
	ScopeOthers SignOutScope = "others"
)
