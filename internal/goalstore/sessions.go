package goalstore

import (
	"context"
	"sync"
)

// Sessions holds one Store per user for the HTTP server.
type Sessions struct {
	repo Repository
	opts []Option

	mu     sync.Mutex
	stores map[string]*Store
}

func NewSessions(repo Repository, opts ...Option) *Sessions {
	return &Sessions{repo: repo, opts: opts, stores: map[string]*Store{}}
}

// Get returns the user's store, loading it on first use. A store whose first
// load fails is not kept.
func (ss *Sessions) Get(ctx context.Context, userID string) (*Store, error) {
	ss.mu.Lock()
	st, ok := ss.stores[userID]
	ss.mu.Unlock()
	if ok {
		return st, nil
	}

	st = New(ss.repo, userID, ss.opts...)
	if err := st.Refresh(ctx); err != nil {
		return nil, err
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if existing, ok := ss.stores[userID]; ok {
		return existing, nil
	}
	ss.stores[userID] = st
	return st, nil
}

// Drop forgets a user's store.
func (ss *Sessions) Drop(userID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.stores, userID)
}
