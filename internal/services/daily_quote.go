package services

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/aequanimitas-app/backend/internal/models"
	"github.com/aequanimitas-app/backend/internal/session"
	"github.com/aequanimitas-app/backend/internal/store"
)

// DefaultQuoteCatalog is the built-in fallback catalog. The frontend curates
// the real one and may pass its own.
var DefaultQuoteCatalog = []models.Quote{
	{ID: "e1", Text: "First say to yourself what you would be; and then do what you have to do.", Author: "epictetus", Tags: []string{"identity", "action", "purpose"}},
	{ID: "m1", Text: "Waste no more time arguing about what a good man should be. Be one.", Author: "marcus_aurelius", Tags: []string{"action", "virtue", "character"}},
	{ID: "m2", Text: "You have power over your mind, not outside events. Realize this, and you will find strength.", Author: "marcus_aurelius", Tags: []string{"control", "mind", "strength", "resilience"}},
	{ID: "s1", Text: "Difficulties strengthen the mind, as labor does the body.", Author: "seneca", Tags: []string{"resilience", "challenge", "growth", "adversity"}},
	{ID: "s2", Text: "Luck is what happens when preparation meets opportunity.", Author: "seneca", Tags: []string{"luck", "preparation", "opportunity"}},
	{ID: "z1", Text: "Man conquers the world by conquering himself.", Author: "zeno", Tags: []string{"self-mastery", "control", "discipline"}},
}

// DailyQuotePicker chooses one quote per user per calendar day, biased by
// the user's stated goals, and pins the choice in the fallback cache so the
// same quote is served for the whole day.
type DailyQuotePicker struct {
	cache store.FallbackCache
	// randIntn is swapped out in tests for a deterministic pick.
	randIntn func(n int) int
}

func NewDailyQuotePicker(cache store.FallbackCache) *DailyQuotePicker {
	return &DailyQuotePicker{cache: cache, randIntn: rand.Intn}
}

// DailyQuote returns today's quote for the session's user. ok is false only
// when the catalog is empty.
func (p *DailyQuotePicker) DailyQuote(sess session.Context, prefs *models.UserPreferences, catalog []models.Quote) (models.Quote, bool) {
	day := session.DayStamp(sess.Clock.Now())
	if quote, cachedDay, ok := p.cache.ReadDailyQuote(sess.UserID); ok && cachedDay == day {
		return quote, true
	}

	candidates := relevantQuotes(catalog, prefs)
	if len(candidates) == 0 {
		return models.Quote{}, false
	}

	quote := candidates[p.randIntn(len(candidates))]
	p.cache.WriteDailyQuote(sess.UserID, quote, day)
	return quote, true
}

// relevantQuotes narrows the catalog by goal keywords, then simplifies for
// newcomers by preferring quotes with fewer tags.
func relevantQuotes(catalog []models.Quote, prefs *models.UserPreferences) []models.Quote {
	candidates := catalog
	if prefs != nil && len(prefs.Goals) > 0 {
		var keywords []string
		for _, goal := range prefs.Goals {
			goal = strings.ToLower(strings.TrimSpace(goal))
			if first, _, _ := strings.Cut(goal, " "); first != "" {
				keywords = append(keywords, first)
			}
		}
		var matched []models.Quote
		for _, quote := range catalog {
			if quoteMatchesKeywords(quote, keywords) {
				matched = append(matched, quote)
			}
		}
		if len(matched) > 0 {
			candidates = matched
		}
	}

	if prefs != nil && prefs.Familiarity == models.FamiliarityNew && len(candidates) > 5 {
		simplified := append([]models.Quote(nil), candidates...)
		sort.SliceStable(simplified, func(i, j int) bool {
			return len(simplified[i].Tags) < len(simplified[j].Tags)
		})
		keep := len(simplified) / 2
		if keep < 5 {
			keep = 5
		}
		candidates = simplified[:keep]
	}
	return candidates
}

func quoteMatchesKeywords(quote models.Quote, keywords []string) bool {
	for _, tag := range quote.Tags {
		for _, keyword := range keywords {
			if strings.Contains(tag, keyword) || strings.Contains(keyword, tag) {
				return true
			}
		}
	}
	return false
}
