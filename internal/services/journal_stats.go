package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/session"
	"github.com/aequanimitas-app/backend/internal/store"
)

// maxCommonMoods caps the common-mood list surfaced to the home screen.
const maxCommonMoods = 2

// RecomputeStats derives JournalStats from a complete journal snapshot.
// It is a pure function of the snapshot and today's day boundary: the same
// inputs always yield the same output, and it is rerun in full on every
// snapshot rather than patched incrementally, since entries may be edited,
// deleted, or arrive out of order.
//
// The streak counts consecutive calendar days ending at today or yesterday,
// each with at least one entry. Multiple entries on one day collapse to one.
// Entries whose CreatedAt is not yet server-confirmed count toward Count but
// are excluded from the streak.
func RecomputeStats(entries []models.JournalEntry, today time.Time) models.JournalStats {
	stats := models.JournalStats{
		Count:       len(entries),
		CommonMoods: []string{},
	}

	// Mood frequency, top two, ties broken by first-seen input order.
	type tally struct {
		count int
		first int
	}
	tallies := make(map[string]*tally)
	var moods []string
	for i, entry := range entries {
		if entry.Mood == "" {
			continue
		}
		if t, ok := tallies[entry.Mood]; ok {
			t.count++
		} else {
			tallies[entry.Mood] = &tally{count: 1, first: i}
			moods = append(moods, entry.Mood)
		}
	}
	// moods is already in first-seen order; a stable sort preserves it for
	// equal counts.
	sort.SliceStable(moods, func(i, j int) bool {
		return tallies[moods[i]].count > tallies[moods[j]].count
	})
	if len(moods) > maxCommonMoods {
		moods = moods[:maxCommonMoods]
	}
	stats.CommonMoods = append(stats.CommonMoods, moods...)

	// Distinct calendar days, ascending. Day boundaries follow today's
	// location so every entry lands on the session's local day.
	loc := today.Location()
	todayDay := session.Day(today, loc)
	seen := make(map[string]bool)
	var days []time.Time
	for _, entry := range entries {
		if entry.CreatedAt == nil {
			continue
		}
		d := session.Day(*entry.CreatedAt, loc)
		key := session.DayStamp(d)
		if !seen[key] {
			seen[key] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return stats
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// The chain must be anchored at today or yesterday; anything older means
	// a day was already missed.
	latest := days[len(days)-1]
	if !latest.Equal(todayDay) && !latest.Equal(todayDay.AddDate(0, 0, -1)) {
		return stats
	}

	streak := 1
	anchor := latest
	for i := len(days) - 2; i >= 0; i-- {
		if !days[i].Equal(anchor.AddDate(0, 0, -1)) {
			break
		}
		streak++
		anchor = days[i]
	}
	stats.StreakDays = streak
	return stats
}

// JournalStatsComputer keeps a user's JournalStats current against the live
// journal stream. Every inbound snapshot triggers a full recompute.
type JournalStatsComputer struct {
	remote store.RemoteStore
	sess   session.Context

	mu          sync.Mutex
	stats       models.JournalStats
	subErr      error
	stopWatch   store.StopFunc
	subscribers map[int]func(models.JournalStats)
	nextSubID   int
}

func NewJournalStatsComputer(sess session.Context, remote store.RemoteStore) *JournalStatsComputer {
	return &JournalStatsComputer{
		remote:      remote,
		sess:        sess,
		stats:       models.JournalStats{CommonMoods: []string{}},
		subscribers: make(map[int]func(models.JournalStats)),
	}
}

// Start subscribes to the user's journal stream, tearing down any previous
// subscription first. Stats converge as snapshots arrive.
func (c *JournalStatsComputer) Start(ctx context.Context) error {
	c.Stop()

	c.mu.Lock()
	c.subErr = nil
	c.mu.Unlock()

	stop, err := c.remote.WatchJournal(ctx, c.sess.UserID, c.handleSnapshot, c.handleWatchError)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stopWatch = stop
	c.mu.Unlock()
	return nil
}

// Stop tears down the active subscription synchronously.
func (c *JournalStatsComputer) Stop() {
	c.mu.Lock()
	stop := c.stopWatch
	c.stopWatch = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Stats returns the last derived statistics.
func (c *JournalStatsComputer) Stats() models.JournalStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Err returns the fault that stopped the subscription, if any.
func (c *JournalStatsComputer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subErr
}

// Subscribe registers an observer for every recomputed JournalStats and
// returns its unsubscribe handle.
func (c *JournalStatsComputer) Subscribe(fn func(models.JournalStats)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *JournalStatsComputer) handleSnapshot(entries []models.JournalEntry) {
	stats := RecomputeStats(entries, c.sess.Clock.Now())
	c.mu.Lock()
	c.stats = stats
	subs := make([]func(models.JournalStats), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(stats)
	}
}

func (c *JournalStatsComputer) handleWatchError(err error) {
	log.Printf("journal subscription fault for user %s: %v", c.sess.UserID, err)
	c.mu.Lock()
	c.subErr = err
	c.stopWatch = nil
	c.mu.Unlock()
}
