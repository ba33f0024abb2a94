package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type failingStore struct {
	MemoryStore
	loadErr   error
	deleteErr error
}

func (f *failingStore) Load(ctx context.Context) (Tokens, error) {
	if f.loadErr != nil {
		return Tokens{}, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *failingStore) Delete(ctx context.Context) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(ctx)
}

func TestNew_EmptyStore(t *testing.T) {
	s, err := New(context.Background(), NewMemoryStore(), nil)
	require.NoError(t, err)

	_, ok := s.CurrentToken()
	assert.False(t, ok)
	assert.False(t, s.Authenticated())
}

func TestNew_RestoresPersistedToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), Tokens{AccessToken: "opaque-token"}))

	s, err := New(context.Background(), store, nil)
	require.NoError(t, err)

	token, ok := s.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "opaque-token", token)
}

func TestNew_StoreError(t *testing.T) {
	store := &failingStore{loadErr: errors.New("redis down")}

	_, err := New(context.Background(), store, nil)
	assert.ErrorContains(t, err, "load session")
}

func TestSetAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s, err := New(ctx, store, nil)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "abc", RefreshToken: "def"}))
	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", persisted.AccessToken)

	require.NoError(t, s.Clear(ctx))
	_, ok := s.CurrentToken()
	assert.False(t, ok)
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestSet_RejectsEmptyToken(t *testing.T) {
	s, err := New(context.Background(), NewMemoryStore(), nil)
	require.NoError(t, err)

	assert.Error(t, s.Set(context.Background(), Tokens{}))
}

func TestCurrentToken_ExpiredJWT(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, NewMemoryStore(), nil)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, Tokens{AccessToken: signedToken(t, time.Now().Add(time.Hour))}))
	_, ok := s.CurrentToken()
	assert.True(t, ok)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok = s.CurrentToken()
	assert.False(t, ok)
}

func TestExpireToken_ClearsAndNotifies(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "abc"}))

	calls := 0
	s.OnExpired(func() { calls++ })
	s.OnExpired(func() { calls++ })

	assert.True(t, s.ExpireToken(ctx, "abc"))

	assert.Equal(t, 2, calls)
	assert.False(t, s.Authenticated())
}

func TestExpireToken_StoreFailureStillClearsMemory(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{deleteErr: errors.New("redis down")}
	s, err := New(ctx, store, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "abc"}))

	s.ExpireToken(ctx, "abc")

	assert.False(t, s.Authenticated())
}

func TestExpireToken_IgnoresReplacedCredential(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "old"}))

	calls := 0
	s.OnExpired(func() { calls++ })
	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "new"}))

	assert.False(t, s.ExpireToken(ctx, "old"))

	token, ok := s.CurrentToken()
	assert.True(t, ok)
	assert.Equal(t, "new", token)
	assert.Zero(t, calls)
}

func TestExpireToken_HooksFireOncePerCredential(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, Tokens{AccessToken: "abc"}))

	var calls atomic.Int32
	s.OnExpired(func() { calls.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ExpireToken(ctx, "abc")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, s.Authenticated())
}
