package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/supabase-go/v1/observability"
)

// TestObserver is a mock observer for testing.
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]observability.OperationContext, len(t.operations))
	copy(out, t.operations)
	return out
}

func TestObserveOperationNilObserverNoPanic(t *testing.T) {
	a := &AuthClient{observer: nil}
	a.observeOperation("signUp", "/signup", 10*time.Millisecond, nil, 0)
}

func TestObserverSeesSuccessAndFailure(t *testing.T) {
	f := newFakeGoTrue(t)
	f.handle("POST /auth/v1/token", http.StatusOK, sessionJSON)
	f.handle("GET /auth/v1/user", http.StatusUnauthorized, `{"message":"invalid JWT"}`)

	obs := &TestObserver{}
	c := f.client(t).WithObserver(obs)

	ctx := context.Background()
	_, err := c.SignInWithPassword(ctx, Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = c.GetUser(ctx, "bad")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	ops := obs.GetOperations()
	require.Len(t, ops, 2)

	assert.Equal(t, "auth", ops[0].Component)
	assert.Equal(t, "signInWithPassword", ops[0].Operation)
	assert.Equal(t, "/token", ops[0].Resource)
	assert.NoError(t, ops[0].Error)
	assert.Greater(t, ops[0].Size, int64(0))

	assert.Equal(t, "getUser", ops[1].Operation)
	assert.Error(t, ops[1].Error)
}

func TestWithLoggerChaining(t *testing.T) {
	c, err := NewClient(Config{URL: "http://localhost/auth/v1"})
	require.NoError(t, err)

	obs := &TestObserver{}
	got := c.WithObserver(obs).WithLogger(nil)
	assert.Same(t, c, got)
	assert.Equal(t, obs, c.observer)
}
