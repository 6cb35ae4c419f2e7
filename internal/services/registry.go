package services

import (
	"context"
	"sync"

	"github.com/aequanimitas-app/backend/internal/session"
	"github.com/aequanimitas-app/backend/internal/store"
)

// Registry hands out one running Engine per user and tears it down when the
// last holder releases it, so a user never has more than one set of live
// remote subscriptions per instance.
type Registry struct {
	remote store.RemoteStore
	cache  store.FallbackCache
	clock  session.Clock

	mu      sync.Mutex
	engines map[string]*engineRef
}

type engineRef struct {
	engine *Engine
	refs   int
}

func NewRegistry(remote store.RemoteStore, cache store.FallbackCache, clock session.Clock) *Registry {
	return &Registry{
		remote:  remote,
		cache:   cache,
		clock:   clock,
		engines: make(map[string]*engineRef),
	}
}

// Acquire returns the user's running engine, starting one if needed, plus a
// release handle. Engines outlive individual requests; the watch contexts
// are owned by the engine and canceled on the final release.
func (r *Registry) Acquire(userID string) (*Engine, func(), error) {
	r.mu.Lock()
	ref, ok := r.engines[userID]
	if !ok {
		sess := session.Context{UserID: userID, Clock: r.clock}
		ref = &engineRef{engine: NewEngine(sess, r.remote, r.cache)}
		r.engines[userID] = ref
	}
	ref.refs++
	r.mu.Unlock()

	if !ok {
		if err := ref.engine.Start(context.Background()); err != nil {
			r.release(userID, ref)
			return nil, nil, err
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() { r.release(userID, ref) })
	}
	return ref.engine, release, nil
}

// Lookup returns the user's engine if one is running, without taking a
// reference.
func (r *Registry) Lookup(userID string) *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.engines[userID]; ok {
		return ref.engine
	}
	return nil
}

func (r *Registry) release(userID string, ref *engineRef) {
	r.mu.Lock()
	ref.refs--
	done := ref.refs <= 0
	if done {
		delete(r.engines, userID)
	}
	r.mu.Unlock()
	if done {
		ref.engine.Stop()
	}
}
