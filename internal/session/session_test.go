package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayTruncatesInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 23:30 UTC on March 9 is already March 10 at UTC+5.
	instant := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)

	day := Day(instant, loc)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, loc), day)
	assert.True(t, day.Equal(Day(instant.Add(10*time.Minute), loc)))
}

func TestDayStamp(t *testing.T) {
	instant := time.Date(2026, time.March, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-09", DayStamp(instant))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	var clock Clock = FixedClock{At: at}
	assert.Equal(t, at, clock.Now())
}

func TestNewContextUsesSystemClock(t *testing.T) {
	ctx := NewContext("u1")
	assert.Equal(t, "u1", ctx.UserID)
	assert.WithinDuration(t, time.Now(), ctx.Clock.Now(), time.Minute)
}
