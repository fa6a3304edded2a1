package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s, err := m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, m.Save(ctx, "k", &Session{AccessToken: "a"}))
	s, err = m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", s.AccessToken)

	s.AccessToken = "mutated"
	again, _ := m.Load(ctx, "k")
	assert.Equal(t, "a", again.AccessToken)

	require.NoError(t, m.Delete(ctx, "k"))
	s, err = m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionLoadedFromStoreOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockSessionStore(ctrl)

	store.EXPECT().
		Load(gomock.Any(), "custom-key").
		Return(&Session{AccessToken: "persisted", RefreshToken: "r"}, nil).
		Times(1)

	c, err := NewClient(Config{
		URL:     "http://localhost/auth/v1",
		Options: Options{Store: store, StorageKey: "custom-key"},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		s, err := c.GetSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "persisted", s.AccessToken)
	}
	assert.Equal(t, "persisted", c.AccessToken())
}

func TestStoreLoadErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockSessionStore(ctrl)
	boom := errors.New("store down")

	store.EXPECT().Load(gomock.Any(), DefaultStorageKey).Return(nil, boom)

	c, err := NewClient(Config{URL: "http://localhost/auth/v1", Options: Options{Store: store}})
	require.NoError(t, err)

	_, err = c.GetSession(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStoreSaveFailureIsLogged(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/token", http.StatusOK, sessionJSON)

	ctrl := gomock.NewController(t)
	store := NewMockSessionStore(ctrl)
	logger := NewMockLogger(ctrl)

	store.EXPECT().Save(gomock.Any(), DefaultStorageKey, gomock.Any()).Return(errors.New("read-only"))
	logger.EXPECT().WarnWithContext(gomock.Any(), "failed to persist session", gomock.Any(), gomock.Any()).Times(1)
	logger.EXPECT().InfoWithContext(gomock.Any(), "auth state changed", nil, gomock.Any()).Times(1)

	c := f.client(t, Options{Store: store})
	c.WithLogger(logger)

	s, err := c.SignInWithPassword(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "access-1", c.AccessToken())
}

func TestSignOutDeletesFromStore(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/logout", http.StatusNoContent, ``)

	ctrl := gomock.NewController(t)
	store := NewMockSessionStore(ctrl)

	gomock.InOrder(
		store.EXPECT().Load(gomock.Any(), DefaultStorageKey).Return(&Session{AccessToken: "a"}, nil),
		store.EXPECT().Delete(gomock.Any(), DefaultStorageKey).Return(nil),
	)

	c := f.client(t, Options{Store: store})
	require.NoError(t, c.SignOut(context.Background()))
	assert.Equal(t, "Bearer a", f.last().Auth)
}
