package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront-client/internal/logger"
)

// Session holds the bearer credential every authenticated component uses.
// It is safe for concurrent use.
type Session struct {
	store TokenStore
	log   *slog.Logger
	now   func() time.Time

	// writes serializes Set, Clear and ExpireToken so memory and store agree.
	writes sync.Mutex

	mu        sync.RWMutex
	tokens    Tokens
	onExpired []func()
}

// New restores a persisted credential from store, if there is one.
func New(ctx context.Context, store TokenStore, log *slog.Logger) (*Session, error) {
	s := &Session{
		store: store,
		log:   logger.OrDiscard(log),
		now:   time.Now,
	}
	tokens, err := store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoTokens) {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.tokens = tokens
	return s, nil
}

// CurrentToken returns the access token, or false when there is none or it
// has already expired.
func (s *Session) CurrentToken() (string, bool) {
	s.mu.RLock()
	token := s.tokens.AccessToken
	s.mu.RUnlock()

	if token == "" {
		return "", false
	}
	if exp, ok := tokenExpiry(token); ok && !s.now().Before(exp) {
		return "", false
	}
	return token, true
}

func (s *Session) Authenticated() bool {
	_, ok := s.CurrentToken()
	return ok
}

// Set stores a credential obtained by the login flow.
func (s *Session) Set(ctx context.Context, tokens Tokens) error {
	if tokens.AccessToken == "" {
		return errors.New("access token is empty")
	}
	s.writes.Lock()
	defer s.writes.Unlock()

	if err := s.store.Save(ctx, tokens); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

// Clear forgets the credential (explicit logout). The in-memory copy is
// dropped even when the store can't be reached.
func (s *Session) Clear(ctx context.Context) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()

	if err := s.store.Delete(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ExpireToken is called when the server rejected token. The session is
// cleared and the OnExpired hooks run only if token is still the current
// credential, so a late 401 for a replaced token changes nothing and hooks
// fire once per credential. It reports whether the session was cleared.
func (s *Session) ExpireToken(ctx context.Context, token string) bool {
	s.writes.Lock()
	s.mu.RLock()
	current := s.tokens.AccessToken
	s.mu.RUnlock()
	if token == "" || token != current {
		s.writes.Unlock()
		s.log.Debug("ignoring rejection of a replaced credential", logger.Traced(ctx))
		return false
	}
	if err := s.clear(ctx); err != nil {
		s.log.Warn("session clear failed", logger.Traced(ctx), logger.Err(err))
	}
	s.writes.Unlock()
	s.log.Info("session expired", logger.Traced(ctx))

	s.mu.RLock()
	hooks := append([]func(){}, s.onExpired...)
	s.mu.RUnlock()
	for _, hook := range hooks {
		hook()
	}
	return true
}

// OnExpired registers fn to run after the credential was rejected, e.g. to
// send the user back to the login screen.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = append(s.onExpired, fn)
}
