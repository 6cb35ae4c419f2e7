package handlers

import (
	"context"
	"sync"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/store"
)

var (
	_ store.RemoteStore   = (*stubRemote)(nil)
	_ store.FallbackCache = (*stubCache)(nil)
)

// stubRemote is an in-memory RemoteStore whose watches deliver the current
// state once and then stay quiet; enough for one-shot handler paths.
type stubRemote struct {
	mu      sync.Mutex
	prefs   map[string]*models.UserPreferences
	entries map[string][]models.JournalEntry
}

func newStubRemote() *stubRemote {
	return &stubRemote{
		prefs:   make(map[string]*models.UserPreferences),
		entries: make(map[string][]models.JournalEntry),
	}
}

func (s *stubRemote) ReadPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs, ok := s.prefs[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return prefs.Clone(), nil
}

func (s *stubRemote) WritePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = prefs.Clone()
	return nil
}

func (s *stubRemote) ReadJournal(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.JournalEntry(nil), s.entries[userID]...), nil
}

func (s *stubRemote) WatchPreferences(ctx context.Context, userID string, onChange func(*models.UserPreferences), onErr func(error)) (store.StopFunc, error) {
	s.mu.Lock()
	current := s.prefs[userID].Clone()
	s.mu.Unlock()
	onChange(current)
	return func() {}, nil
}

func (s *stubRemote) WatchJournal(ctx context.Context, userID string, onSnapshot func([]models.JournalEntry), onErr func(error)) (store.StopFunc, error) {
	s.mu.Lock()
	current := append([]models.JournalEntry(nil), s.entries[userID]...)
	s.mu.Unlock()
	onSnapshot(current)
	return func() {}, nil
}

// stubCache is an in-memory FallbackCache.
type stubCache struct {
	mu     sync.Mutex
	prefs  map[string]*models.UserPreferences
	quotes map[string]models.Quote
	days   map[string]string
}

func newStubCache() *stubCache {
	return &stubCache{
		prefs:  make(map[string]*models.UserPreferences),
		quotes: make(map[string]models.Quote),
		days:   make(map[string]string),
	}
}

func (c *stubCache) ReadPreferences(userID string) (*models.UserPreferences, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefs, ok := c.prefs[userID]
	if !ok {
		return nil, false
	}
	return prefs.Clone(), true
}

func (c *stubCache) WritePreferences(userID string, prefs models.UserPreferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs[userID] = prefs.Clone()
}

func (c *stubCache) ReadDailyQuote(userID string) (models.Quote, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quote, ok := c.quotes[userID]
	if !ok {
		return models.Quote{}, "", false
	}
	return quote, c.days[userID], true
}

func (c *stubCache) WriteDailyQuote(userID string, quote models.Quote, day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[userID] = quote
	c.days[userID] = day
}
