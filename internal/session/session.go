// Package session holds the per-invocation API session: one authenticated
// Gmail client, built lazily on first use and reused for the rest of the
// process together with its label cache.
package session

import (
	"context"
	"sync"

	"github.com/teemow/gmcli/internal/gmail"
	"github.com/teemow/gmcli/internal/google"
)

// Session lazily constructs and caches the Gmail client of one profile.
type Session struct {
	manager *google.Manager
	opts    []gmail.Option

	mu     sync.Mutex
	client *gmail.Client
}

// New creates a session whose client authenticates through manager.
func New(manager *google.Manager, opts ...gmail.Option) *Session {
	return &Session{manager: manager, opts: opts}
}

// Manager returns the auth manager backing the session.
func (s *Session) Manager() *google.Manager {
	return s.manager
}

// Gmail returns the cached client, creating it on first use. A failed
// attempt is not cached.
func (s *Session) Gmail(ctx context.Context) (*gmail.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	httpClient, err := s.manager.Client(ctx)
	if err != nil {
		return nil, err
	}
	client, err := gmail.NewClient(ctx, httpClient, s.opts...)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}
