// Package session carries the per-session values the engine needs: the
// authenticated user's opaque identifier and the clock that defines "today".
// Both are injected explicitly so tests can pin the day boundary.
package session

import "time"

// Clock supplies the current instant. The day boundary for streak math is
// derived from the returned time's location.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Context identifies one user session. UserID is the opaque stable
// identifier produced by authentication; how it was obtained is not this
// package's concern.
type Context struct {
	UserID string
	Clock  Clock
}

// NewContext builds a session context with the system clock.
func NewContext(userID string) Context {
	return Context{UserID: userID, Clock: SystemClock{}}
}

// Day truncates t to its calendar day in loc. Time of day is discarded;
// only the date matters for streaks.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayStamp formats the calendar day of t as YYYY-MM-DD, used as the
// daily-quote cache stamp.
func DayStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
