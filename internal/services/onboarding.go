package services

import (
	"sync"

	"github.com/aequanimitas-app/backend/internal/models"
)

// OnboardingTransitionDetector raises a one-shot signal when a user's
// CompletedOnboarding flag transitions false→true between two successive
// preference snapshots. It holds a single bit of state, the last seen value
// of the flag, so the same transition is never reported twice; the consumer
// re-arms it after acting on a true result.
//
// The flag is treated as monotonic within a session: once seen true, only a
// re-arm makes the detector report again.
type OnboardingTransitionDetector struct {
	mu            sync.Mutex
	lastCompleted bool
}

func NewOnboardingTransitionDetector() *OnboardingTransitionDetector {
	return &OnboardingTransitionDetector{}
}

// Observe compares two successive snapshots and returns true exactly once
// per false→true transition. Nil on either side, true→true and false→false
// all return false.
func (d *OnboardingTransitionDetector) Observe(previous, current *models.UserPreferences) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if previous == nil || current == nil {
		return false
	}
	if !current.CompletedOnboarding {
		return false
	}
	if previous.CompletedOnboarding || d.lastCompleted {
		d.lastCompleted = true
		return false
	}
	d.lastCompleted = true
	return true
}

// Rearm clears the detector's state so a future transition fires again.
// Called by the consumer after it has acted on a true result.
func (d *OnboardingTransitionDetector) Rearm() {
	d.mu.Lock()
	d.lastCompleted = false
	d.mu.Unlock()
}
