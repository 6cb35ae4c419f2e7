package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aequanimitas-app/backend/internal/models"
)

func pickerWithFirstPick(cache *fakeCache) *DailyQuotePicker {
	picker := NewDailyQuotePicker(cache)
	picker.randIntn = func(int) int { return 0 }
	return picker
}

func TestDailyQuoteGoalKeywordFiltering(t *testing.T) {
	picker := pickerWithFirstPick(newFakeCache())
	prefs := &models.UserPreferences{Goals: []string{"resilience under pressure"}}

	quote, ok := picker.DailyQuote(testSession("u1", statsToday), prefs, DefaultQuoteCatalog)
	require.True(t, ok)
	// First catalog quote tagged with a "resilience" keyword match.
	assert.Equal(t, "m2", quote.ID)
}

func TestDailyQuoteUnmatchedGoalsFallBackToFullCatalog(t *testing.T) {
	picker := pickerWithFirstPick(newFakeCache())
	prefs := &models.UserPreferences{Goals: []string{"quantum entanglement"}}

	quote, ok := picker.DailyQuote(testSession("u1", statsToday), prefs, DefaultQuoteCatalog)
	require.True(t, ok)
	assert.Equal(t, DefaultQuoteCatalog[0].ID, quote.ID)
}

func TestDailyQuotePinnedForTheDay(t *testing.T) {
	cache := newFakeCache()
	picker := pickerWithFirstPick(cache)
	sess := testSession("u1", statsToday)

	first, ok := picker.DailyQuote(sess, nil, DefaultQuoteCatalog)
	require.True(t, ok)

	// A different random pick on the same day still serves the pinned quote.
	picker.randIntn = func(int) int { return 3 }
	again, ok := picker.DailyQuote(sess, nil, DefaultQuoteCatalog)
	require.True(t, ok)
	assert.Equal(t, first.ID, again.ID)

	// The next day picks fresh.
	tomorrow := testSession("u1", statsToday.Add(24*time.Hour))
	next, ok := picker.DailyQuote(tomorrow, nil, DefaultQuoteCatalog)
	require.True(t, ok)
	assert.Equal(t, DefaultQuoteCatalog[3].ID, next.ID)
}

func TestDailyQuoteDistinctUsersPinIndependently(t *testing.T) {
	cache := newFakeCache()
	picker := pickerWithFirstPick(cache)

	_, ok := picker.DailyQuote(testSession("u1", statsToday), nil, DefaultQuoteCatalog)
	require.True(t, ok)

	picker.randIntn = func(int) int { return 2 }
	other, ok := picker.DailyQuote(testSession("u2", statsToday), nil, DefaultQuoteCatalog)
	require.True(t, ok)
	assert.Equal(t, DefaultQuoteCatalog[2].ID, other.ID)
}

func TestDailyQuoteNewcomerPrefersSimplerQuotes(t *testing.T) {
	// Eight quotes, tag counts 1..8. A newcomer sees only the simpler half
	// (minimum five), so a pick past that boundary is impossible.
	catalog := make([]models.Quote, 8)
	for i := range catalog {
		tags := make([]string, i+1)
		for j := range tags {
			tags[j] = "tag"
		}
		catalog[i] = models.Quote{ID: string(rune('a' + i)), Text: "q", Tags: tags}
	}

	picker := NewDailyQuotePicker(newFakeCache())
	var sawN int
	picker.randIntn = func(n int) int { sawN = n; return n - 1 }
	prefs := &models.UserPreferences{Familiarity: models.FamiliarityNew}

	quote, ok := picker.DailyQuote(testSession("u1", statsToday), prefs, catalog)
	require.True(t, ok)
	assert.Equal(t, 5, sawN)
	assert.Equal(t, "e", quote.ID)
}

func TestDailyQuoteEmptyCatalog(t *testing.T) {
	picker := pickerWithFirstPick(newFakeCache())
	_, ok := picker.DailyQuote(testSession("u1", statsToday), nil, nil)
	assert.False(t, ok)
}
