package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/store"
)

// ErrSavedLocally signals that a save landed in the local fallback cache
// instead of the remote store. The save itself is applied; callers should
// log the wrapped cause and carry on.
var ErrSavedLocally = errors.New("preferences saved to local fallback")

// PreferenceStore owns the lifecycle of one user's preference record:
// remote-first load with local fallback, optimistic save, and live-update
// notification. It is the sole writer of the record within this service.
//
// State is two-stage: pendingLocal holds an optimistic write until the next
// remote snapshot arrives, at which point the remote snapshot wins
// (last-observed-wins). Only the merged view is exposed.
type PreferenceStore struct {
	remote store.RemoteStore
	cache  store.FallbackCache

	mu              sync.Mutex
	userID          string
	pendingLocal    *models.UserPreferences
	confirmedRemote *models.UserPreferences
	fallbackOnly    bool
	subErr          error
	stopWatch       store.StopFunc
	observer        func(*models.UserPreferences)
	subscribers     map[int]func(*models.UserPreferences)
	nextSubID       int
}

func NewPreferenceStore(remote store.RemoteStore, cache store.FallbackCache) *PreferenceStore {
	return &PreferenceStore{
		remote:      remote,
		cache:       cache,
		subscribers: make(map[int]func(*models.UserPreferences)),
	}
}

// Load points the store at userID and begins watching the remote record.
// Any previous watch is torn down synchronously first, so a user switch can
// never deliver the old user's data. The watch emits nil once when no record
// exists, then the record on every remote change.
//
// If the remote store is unreachable the store degrades for the session to a
// single read from the fallback cache, emitted once, with no further live
// updates.
func (s *PreferenceStore) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}

	s.mu.Lock()
	s.userID = userID
	s.pendingLocal = nil
	s.confirmedRemote = nil
	s.fallbackOnly = false
	s.subErr = nil
	s.mu.Unlock()

	stop, err := s.remote.WatchPreferences(ctx, userID, s.handleRemote, s.handleWatchError)
	if err != nil {
		log.Printf("preference watch unavailable for user %s, serving local fallback: %v", userID, err)
		prefs, _ := s.cache.ReadPreferences(userID)
		s.mu.Lock()
		s.fallbackOnly = true
		s.pendingLocal = prefs.Clone()
		observer, subs := s.listenersLocked()
		s.mu.Unlock()
		notify(observer, subs, prefs.Clone())
		return nil
	}

	s.mu.Lock()
	s.stopWatch = stop
	s.mu.Unlock()
	return nil
}

// Save applies prefs optimistically and merge-writes them to the remote
// store. On a rejected write the full record goes to the fallback cache
// instead and the returned error wraps ErrSavedLocally: the write is never
// silently lost, and the caller decides whether the degradation is worth
// telling the user about. The remote write is not retried here.
func (s *PreferenceStore) Save(ctx context.Context, userID string, prefs models.UserPreferences) error {
	s.mu.Lock()
	if s.userID == "" {
		s.userID = userID
	}
	optimistic := s.userID == userID
	fallbackOnly := s.fallbackOnly
	var observer func(*models.UserPreferences)
	var subs []func(*models.UserPreferences)
	if optimistic {
		s.pendingLocal = prefs.Clone()
		observer, subs = s.listenersLocked()
	}
	s.mu.Unlock()

	if optimistic {
		notify(observer, subs, prefs.Clone())
	}

	if fallbackOnly {
		s.cache.WritePreferences(userID, prefs)
		return fmt.Errorf("%w: remote store unavailable this session", ErrSavedLocally)
	}

	if err := s.remote.WritePreferences(ctx, userID, prefs); err != nil {
		s.cache.WritePreferences(userID, prefs)
		return fmt.Errorf("%w: %v", ErrSavedLocally, err)
	}
	return nil
}

// Reset rewrites the record to its cleared-default state. The record is
// never deleted, so the next load still finds a document.
func (s *PreferenceStore) Reset(ctx context.Context, userID string) error {
	return s.Save(ctx, userID, models.DefaultPreferences())
}

// Current returns the merged view: the optimistic local write if one is
// still unconfirmed, otherwise the last observed remote snapshot.
func (s *PreferenceStore) Current() *models.UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingLocal != nil {
		return s.pendingLocal.Clone()
	}
	return s.confirmedRemote.Clone()
}

// FallbackMode reports whether this session degraded to local-only reads.
func (s *PreferenceStore) FallbackMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fallbackOnly
}

// Err returns the fault that stopped the live subscription, if any. After a
// fault no further updates are emitted until Load is called again.
func (s *PreferenceStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subErr
}

// SetObserver installs the single pre-notify observer. It is invoked with
// every emitted snapshot before regular subscribers run, so state the
// observer derives from a snapshot is settled by the time subscribers see
// that snapshot. Nil clears it.
func (s *PreferenceStore) SetObserver(fn func(*models.UserPreferences)) {
	s.mu.Lock()
	s.observer = fn
	s.mu.Unlock()
}

// Subscribe registers an observer for every emitted snapshot and returns its
// unsubscribe handle. Observers are invoked on the watch goroutine and must
// not block on remote round-trips.
func (s *PreferenceStore) Subscribe(fn func(*models.UserPreferences)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close tears down the active watch.
func (s *PreferenceStore) Close() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// handleRemote applies an observed remote snapshot. The remote snapshot
// always supersedes any optimistic local value: last-observed-wins, because
// remote write time is authoritative.
func (s *PreferenceStore) handleRemote(prefs *models.UserPreferences) {
	s.mu.Lock()
	s.confirmedRemote = prefs.Clone()
	s.pendingLocal = nil
	observer, subs := s.listenersLocked()
	s.mu.Unlock()
	notify(observer, subs, prefs.Clone())
}

func (s *PreferenceStore) handleWatchError(err error) {
	log.Printf("preference subscription fault: %v", err)
	s.mu.Lock()
	s.subErr = err
	s.stopWatch = nil
	s.mu.Unlock()
}

// listenersLocked snapshots the observer and the subscriber set. Callers
// hold s.mu.
func (s *PreferenceStore) listenersLocked() (func(*models.UserPreferences), []func(*models.UserPreferences)) {
	subs := make([]func(*models.UserPreferences), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return s.observer, subs
}

// notify delivers a snapshot: observer first, then subscribers in
// unspecified order.
func notify(observer func(*models.UserPreferences), subs []func(*models.UserPreferences), prefs *models.UserPreferences) {
	if observer != nil {
		observer(prefs)
	}
	for _, fn := range subs {
		fn(prefs)
	}
}
