package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aequanimitas-app/backend/internal/models"
)

const (
	// DailyQuoteTTL keeps a cached quote around long enough to cover the
	// day it was picked for plus clock skew.
	DailyQuoteTTL = 48 * time.Hour
)

// FallbackCache is the synchronous local keyspace the engine degrades to
// when the remote store is unreachable or a write fails. Reads miss instead
// of erroring and writes are best effort: the cache is session-scoped and is
// never reconciled back into the remote store.
//
// Two logical keys exist per user: the raw preference record, and the cached
// daily quote used by the home screen.
type FallbackCache interface {
	ReadPreferences(userID string) (*models.UserPreferences, bool)
	WritePreferences(userID string, prefs models.UserPreferences)
	ReadDailyQuote(userID string) (models.Quote, string, bool)
	WriteDailyQuote(userID string, quote models.Quote, day string)
}

// RedisFallback stores fallback records in Redis as JSON. Keys are
// namespaced by the application instance identifier so deployments sharing a
// Redis never collide.
type RedisFallback struct {
	client     *redis.Client
	instanceID string
}

func NewRedisFallback(client *redis.Client, instanceID string) *RedisFallback {
	return &RedisFallback{client: client, instanceID: instanceID}
}

func (c *RedisFallback) preferencesKey(userID string) string {
	return fmt.Sprintf("%s:%s:preferences", c.instanceID, userID)
}

func (c *RedisFallback) dailyQuoteKey(userID string) string {
	return fmt.Sprintf("%s:%s:daily-quote", c.instanceID, userID)
}

func (c *RedisFallback) ReadPreferences(userID string) (*models.UserPreferences, bool) {
	val, err := c.client.Get(context.Background(), c.preferencesKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var prefs models.UserPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		log.Printf("malformed fallback preferences for user %s: %v", userID, err)
		return nil, false
	}
	return &prefs, true
}

func (c *RedisFallback) WritePreferences(userID string, prefs models.UserPreferences) {
	data, err := json.Marshal(prefs)
	if err != nil {
		log.Printf("failed to serialize fallback preferences for user %s: %v", userID, err)
		return
	}
	// No TTL: the fallback record must outlive the outage it was written in.
	if err := c.client.Set(context.Background(), c.preferencesKey(userID), data, 0).Err(); err != nil {
		log.Printf("failed to write fallback preferences for user %s: %v", userID, err)
	}
}

// cachedQuote is the serialized shape of the daily-quote key: the quote plus
// the day stamp it was picked on.
type cachedQuote struct {
	Quote models.Quote `json:"quote"`
	Day   string       `json:"day"`
}

func (c *RedisFallback) ReadDailyQuote(userID string) (models.Quote, string, bool) {
	val, err := c.client.Get(context.Background(), c.dailyQuoteKey(userID)).Result()
	if err != nil {
		return models.Quote{}, "", false
	}
	var cached cachedQuote
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return models.Quote{}, "", false
	}
	return cached.Quote, cached.Day, true
}

func (c *RedisFallback) WriteDailyQuote(userID string, quote models.Quote, day string) {
	data, err := json.Marshal(cachedQuote{Quote: quote, Day: day})
	if err != nil {
		return
	}
	if err := c.client.Set(context.Background(), c.dailyQuoteKey(userID), data, DailyQuoteTTL).Err(); err != nil {
		log.Printf("failed to cache daily quote for user %s: %v", userID, err)
	}
}
