package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribeStopsCallbacks(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/token", http.StatusOK, sessionJSON)
	f.handle("POST /auth/v1/logout", http.StatusNoContent, ``)
	c := f.client(t)
	ctx := context.Background()

	calls := 0
	sub := c.OnAuthStateChange(func(AuthChangeEvent, *Session) { calls++ })

	_, err := c.SignInWithPassword(ctx, Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, c.SignOut(ctx))
	_, err = c.SignInWithPassword(ctx, Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	c, err := NewClient(Config{URL: "http://localhost/auth/v1"})
	require.NoError(t, err)

	var second *Subscription
	var order []string

	c.OnAuthStateChange(func(AuthChangeEvent, *Session) {
		order = append(order, "first")
		second.Unsubscribe()
	})
	second = c.OnAuthStateChange(func(AuthChangeEvent, *Session) {
		order = append(order, "second")
	})
	c.OnAuthStateChange(func(AuthChangeEvent, *Session) {
		order = append(order, "third")
	})

	c.notify(context.Background(), SignedIn, &Session{})
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestCallbacksRunInRegistrationOrder(t *testing.T) {
	c, err := NewClient(Config{URL: "http://localhost/auth/v1"})
	require.NoError(t, err)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		c.OnAuthStateChange(func(AuthChangeEvent, *Session) { got = append(got, i) })
	}

	c.notify(context.Background(), TokenRefreshed, &Session{})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestCallbackMayCallBackIntoClient(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/token", http.StatusOK, sessionJSON)
	c := f.client(t)

	var seen *Session
	c.OnAuthStateChange(func(event AuthChangeEvent, _ *Session) {
		s, err := c.GetSession(context.Background())
		require.NoError(t, err)
		seen = s
	})

	_, err := c.SignInWithPassword(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "access-1", seen.AccessToken)
}

func TestListenersGetOwnSessionCopy(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/token", http.StatusOK, `{
		"access_token": "access-1",
		"refresh_token": "refresh-1",
		"user": {"id": "user-1", "user_metadata": {"name": "Ada"}}
	}`)
	c := f.client(t)

	var second *Session
	c.OnAuthStateChange(func(_ AuthChangeEvent, s *Session) {
		s.AccessToken = "tampered"
		s.User.UserMetadata["name"] = "Mallory"
	})
	c.OnAuthStateChange(func(_ AuthChangeEvent, s *Session) { second = s })

	s, err := c.SignInWithPassword(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "Ada", s.User.UserMetadata["name"])
	require.NotNil(t, second)
	assert.Equal(t, "access-1", second.AccessToken)
	assert.Equal(t, "Ada", second.User.UserMetadata["name"])
	assert.Equal(t, "access-1", c.AccessToken())
}

func TestCloneSessionNil(t *testing.T) {
	assert.Nil(t, cloneSession(nil))
}
