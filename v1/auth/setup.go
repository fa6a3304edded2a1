package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Aleph-Alpha/supabase-go/internal/rest"
	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// HTTPClient executes HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AuthClient talks to the GoTrue API of a Supabase project and owns the
// current session. It is safe for concurrent use.
type AuthClient struct {
	rest       *rest.Client
	store      SessionStore
	storageKey string
	margin     time.Duration
	now        func() time.Time

	logger   Logger
	observer observability.Observer

	sessionMu sync.Mutex
	session   *Session
	loaded    bool

	listenersMu    sync.Mutex
	listeners      map[uint64]StateChangeFunc
	listenerOrder  []uint64
	nextListenerID uint64
}

// NewClient creates an AuthClient. No request is made and the session store
// is not read until the session is first needed.
//
// Example:
//
//	client, err := auth.NewClient(auth.Config{
//	    URL:    "https://xyzcompany.supabase.co/auth/v1",
//	    APIKey: anonKey,
//	})
//	if err != nil {
//	    return err
//	}
//	session, err := client.SignInWithPassword(ctx, auth.Credentials{
//	    Email:    "user@example.com",
//	    Password: "secret",
//	})
func NewClient(cfg Config) (*AuthClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("auth: url is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("auth: invalid url %q: %w", cfg.URL, err)
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	key := cfg.StorageKey
	if key == "" {
		key = DefaultStorageKey
	}
	margin := cfg.ExpiryMargin
	if margin == 0 {
		margin = DefaultExpiryMargin
	}

	return &AuthClient{
		rest: rest.NewClient(rest.Options{
			BaseURL:   cfg.URL,
			APIKey:    cfg.APIKey,
			Headers:   cfg.Headers,
			Timeout:   cfg.Timeout,
			HTTP:      cfg.HTTPClient,
			Component: componentName,
		}),
		store:      store,
		storageKey: key,
		margin:     margin,
		now:        time.Now,
		listeners:  make(map[uint64]StateChangeFunc),
	}, nil
}

// WithObserver sets the observer for this client and returns the client for method chaining.
func (a *AuthClient) WithObserver(observer observability.Observer) *AuthClient {
	a.observer = observer
	return a
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (a *AuthClient) WithLogger(logger Logger) *AuthClient {
	a.logger = logger
	return a
}

var _ Auth = (*AuthClient)(nil)
