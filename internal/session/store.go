package session

import (
	"context"
	"errors"
	"sync"
)

// Tokens is the credential pair written at login.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenStore persists the credential across process restarts.
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Delete(ctx context.Context) error
}

var ErrNoTokens = errors.New("no tokens stored")

// MemoryStore keeps tokens for the lifetime of the process only.
type MemoryStore struct {
	mu     sync.Mutex
	tokens *Tokens
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return Tokens{}, ErrNoTokens
	}
	return *m.tokens, nil
}

func (m *MemoryStore) Save(_ context.Context, tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = &tokens
	return nil
}

func (m *MemoryStore) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
	return nil
}
