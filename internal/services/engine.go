package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/session"
	"github.com/aequanimitas-app/backend/internal/store"
)

// Engine assembles the per-session pieces: the preference store, the live
// journal statistics, and the one-shot onboarding transition signal. One
// engine serves one user session.
type Engine struct {
	sess     session.Context
	prefs    *PreferenceStore
	stats    *JournalStatsComputer
	detector *OnboardingTransitionDetector
	quotes   *DailyQuotePicker

	mu            sync.Mutex
	lastPrefs     *models.UserPreferences
	seenSnapshot  bool
	justCompleted bool
}

func NewEngine(sess session.Context, remote store.RemoteStore, cache store.FallbackCache) *Engine {
	return &Engine{
		sess:     sess,
		prefs:    NewPreferenceStore(remote, cache),
		stats:    NewJournalStatsComputer(sess, remote),
		detector: NewOnboardingTransitionDetector(),
		quotes:   NewDailyQuotePicker(cache),
	}
}

// Start begins loading preferences and deriving journal statistics. The
// preference and journal subscriptions are independent; snapshots from the
// two may interleave arbitrarily and the derived state converges once both
// streams stabilize.
func (e *Engine) Start(ctx context.Context) error {
	// Pre-notify observer, not a plain subscriber: the detector must have
	// seen a snapshot before any subscriber is told about it, or a
	// subscriber checking JustCompletedOnboarding at notification time
	// races the signal.
	e.prefs.SetObserver(e.observePreferences)

	if err := e.prefs.Load(ctx, e.sess.UserID); err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	if err := e.stats.Start(ctx); err != nil {
		// Stats stay at their zero values; preferences still work.
		log.Printf("journal stats unavailable for user %s: %v", e.sess.UserID, err)
	}
	return nil
}

// Stop tears down every live subscription synchronously.
func (e *Engine) Stop() {
	e.prefs.SetObserver(nil)
	e.prefs.Close()
	e.stats.Stop()
}

// observePreferences feeds every preference snapshot, optimistic or remote,
// through the transition detector.
//
// A user with no record yet loads a nil snapshot; their first save is still
// a completion when it carries the flag. Once a snapshot has been seen, a
// nil previous value stands in for the cleared-default record so that first
// save is observed as a false→true transition. The very first snapshot
// keeps a nil previous: an already-completed record arriving on load is not
// a transition.
func (e *Engine) observePreferences(current *models.UserPreferences) {
	e.mu.Lock()
	previous := e.lastPrefs
	if previous == nil && e.seenSnapshot {
		cleared := models.DefaultPreferences()
		previous = &cleared
	}
	e.seenSnapshot = true
	fired := e.detector.Observe(previous, current)
	e.lastPrefs = current.Clone()
	if fired {
		e.justCompleted = true
	}
	e.mu.Unlock()
}

// JustCompletedOnboarding reports whether the onboarding-completed signal is
// pending. It stays raised until acknowledged.
func (e *Engine) JustCompletedOnboarding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.justCompleted
}

// AcknowledgeOnboarding clears the pending signal and re-arms the detector.
func (e *Engine) AcknowledgeOnboarding() {
	e.mu.Lock()
	e.justCompleted = false
	e.mu.Unlock()
	e.detector.Rearm()
}

// Preferences returns the merged current preference view, nil when no
// record exists yet.
func (e *Engine) Preferences() *models.UserPreferences {
	return e.prefs.Current()
}

// SavePreferences persists prefs for this session's user. See
// PreferenceStore.Save for the fallback contract.
func (e *Engine) SavePreferences(ctx context.Context, prefs models.UserPreferences) error {
	return e.prefs.Save(ctx, e.sess.UserID, prefs)
}

// ResetPreferences rewrites the record to its cleared-default state.
func (e *Engine) ResetPreferences(ctx context.Context) error {
	return e.prefs.Reset(ctx, e.sess.UserID)
}

// Stats returns the last derived journal statistics.
func (e *Engine) Stats() models.JournalStats {
	return e.stats.Stats()
}

// SubscribePreferences registers an observer for preference snapshots.
func (e *Engine) SubscribePreferences(fn func(*models.UserPreferences)) func() {
	return e.prefs.Subscribe(fn)
}

// SubscribeStats registers an observer for recomputed statistics.
func (e *Engine) SubscribeStats(fn func(models.JournalStats)) func() {
	return e.stats.Subscribe(fn)
}

// DailyQuote returns today's quote for this user, picked from catalog.
func (e *Engine) DailyQuote(catalog []models.Quote) (models.Quote, bool) {
	return e.quotes.DailyQuote(e.sess, e.Preferences(), catalog)
}

// Greeting builds the personalized home-screen message from the current
// preference and statistics state.
func (e *Engine) Greeting() string {
	return Greeting(e.Preferences(), e.Stats(), e.sess.Clock.Now())
}

// Greeting is a pure function of the preference snapshot, the derived stats
// and the clock hour.
func Greeting(prefs *models.UserPreferences, stats models.JournalStats, now time.Time) string {
	hour := now.Hour()
	if prefs != nil {
		if prefs.ReflectionWindow == models.WindowMorning && hour < 12 {
			return "It's morning, your preferred time for reflection."
		}
		if prefs.ReflectionWindow == models.WindowEvening && hour >= 17 {
			return "It's evening, your preferred time for reflection."
		}
	}
	if stats.StreakDays > 1 {
		return fmt.Sprintf("You're on a %d-day reflection streak! Keep the momentum.", stats.StreakDays)
	}
	if prefs != nil && len(prefs.Goals) > 0 {
		return fmt.Sprintf("Focusing on %q today? Let's explore that.", prefs.Goals[0])
	}
	return "Ready to reflect and grow?"
}
