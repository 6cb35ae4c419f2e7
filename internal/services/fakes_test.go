package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/store"
)

var (
	_ store.RemoteStore   = (*fakeRemote)(nil)
	_ store.FallbackCache = (*fakeCache)(nil)
)

// fakeRemote is an in-memory RemoteStore. Writes notify preference watchers
// the way a real store confirms them; pushEntries and fail drive the journal
// stream and fault paths from tests.
type fakeRemote struct {
	mu             sync.Mutex
	prefs          map[string]*models.UserPreferences
	journals       map[string][]models.JournalEntry
	unavailable    bool
	writeErr       error
	prefWatches    []*fakePrefWatch
	journalWatches []*fakeJournalWatch
}

type fakePrefWatch struct {
	userID   string
	onChange func(*models.UserPreferences)
	onErr    func(error)
	stopped  bool
}

type fakeJournalWatch struct {
	userID     string
	onSnapshot func([]models.JournalEntry)
	onErr      func(error)
	stopped    bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		prefs:    make(map[string]*models.UserPreferences),
		journals: make(map[string][]models.JournalEntry),
	}
}

func (f *fakeRemote) ReadPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, store.ErrUnavailable
	}
	prefs, ok := f.prefs[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return prefs.Clone(), nil
}

func (f *fakeRemote) WritePreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	f.mu.Lock()
	if f.unavailable {
		f.mu.Unlock()
		return store.ErrUnavailable
	}
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	f.prefs[userID] = prefs.Clone()
	watches := f.activePrefWatchesLocked(userID)
	f.mu.Unlock()

	for _, w := range watches {
		w.onChange(prefs.Clone())
	}
	return nil
}

func (f *fakeRemote) ReadJournal(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, store.ErrUnavailable
	}
	return append([]models.JournalEntry(nil), f.journals[userID]...), nil
}

func (f *fakeRemote) WatchPreferences(ctx context.Context, userID string, onChange func(*models.UserPreferences), onErr func(error)) (store.StopFunc, error) {
	f.mu.Lock()
	if f.unavailable {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: fake remote down", store.ErrUnavailable)
	}
	w := &fakePrefWatch{userID: userID, onChange: onChange, onErr: onErr}
	f.prefWatches = append(f.prefWatches, w)
	current := f.prefs[userID].Clone()
	f.mu.Unlock()

	onChange(current)
	return func() {
		f.mu.Lock()
		w.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeRemote) WatchJournal(ctx context.Context, userID string, onSnapshot func([]models.JournalEntry), onErr func(error)) (store.StopFunc, error) {
	f.mu.Lock()
	if f.unavailable {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: fake remote down", store.ErrUnavailable)
	}
	w := &fakeJournalWatch{userID: userID, onSnapshot: onSnapshot, onErr: onErr}
	f.journalWatches = append(f.journalWatches, w)
	current := append([]models.JournalEntry(nil), f.journals[userID]...)
	f.mu.Unlock()

	onSnapshot(current)
	return func() {
		f.mu.Lock()
		w.stopped = true
		f.mu.Unlock()
	}, nil
}

// emitPreferences simulates a remote change arriving on the live stream.
func (f *fakeRemote) emitPreferences(userID string, prefs *models.UserPreferences) {
	f.mu.Lock()
	watches := f.activePrefWatchesLocked(userID)
	f.mu.Unlock()
	for _, w := range watches {
		w.onChange(prefs.Clone())
	}
}

// pushEntries replaces the journal snapshot and notifies watchers.
func (f *fakeRemote) pushEntries(userID string, entries []models.JournalEntry) {
	f.mu.Lock()
	f.journals[userID] = append([]models.JournalEntry(nil), entries...)
	var watches []*fakeJournalWatch
	for _, w := range f.journalWatches {
		if w.userID == userID && !w.stopped {
			watches = append(watches, w)
		}
	}
	f.mu.Unlock()
	for _, w := range watches {
		w.onSnapshot(append([]models.JournalEntry(nil), entries...))
	}
}

// failPreferences faults every active preference watch for the user. A
// faulted watch goes silent, matching the store contract.
func (f *fakeRemote) failPreferences(userID string, err error) {
	f.mu.Lock()
	watches := f.activePrefWatchesLocked(userID)
	for _, w := range watches {
		w.stopped = true
	}
	f.mu.Unlock()
	for _, w := range watches {
		w.onErr(err)
	}
}

func (f *fakeRemote) failJournal(userID string, err error) {
	f.mu.Lock()
	var watches []*fakeJournalWatch
	for _, w := range f.journalWatches {
		if w.userID == userID && !w.stopped {
			watches = append(watches, w)
			w.stopped = true
		}
	}
	f.mu.Unlock()
	for _, w := range watches {
		w.onErr(err)
	}
}

func (f *fakeRemote) activePrefWatchesLocked(userID string) []*fakePrefWatch {
	var watches []*fakePrefWatch
	for _, w := range f.prefWatches {
		if w.userID == userID && !w.stopped {
			watches = append(watches, w)
		}
	}
	return watches
}

func (f *fakeRemote) activePrefWatchCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.activePrefWatchesLocked(userID))
}

// fakeCache is an in-memory FallbackCache.
type fakeCache struct {
	mu     sync.Mutex
	prefs  map[string]*models.UserPreferences
	quotes map[string]models.Quote
	days   map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		prefs:  make(map[string]*models.UserPreferences),
		quotes: make(map[string]models.Quote),
		days:   make(map[string]string),
	}
}

func (c *fakeCache) ReadPreferences(userID string) (*models.UserPreferences, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefs, ok := c.prefs[userID]
	if !ok {
		return nil, false
	}
	return prefs.Clone(), true
}

func (c *fakeCache) WritePreferences(userID string, prefs models.UserPreferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs[userID] = prefs.Clone()
}

func (c *fakeCache) ReadDailyQuote(userID string) (models.Quote, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	quote, ok := c.quotes[userID]
	if !ok {
		return models.Quote{}, "", false
	}
	return quote, c.days[userID], true
}

func (c *fakeCache) WriteDailyQuote(userID string, quote models.Quote, day string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[userID] = quote
	c.days[userID] = day
}
