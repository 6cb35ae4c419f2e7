package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aequanimitas-app/backend/internal/models"
)

func prefsCompleted(completed bool) *models.UserPreferences {
	return &models.UserPreferences{CompletedOnboarding: completed}
}

func TestDetectorFiresOnceAcrossSnapshotSequence(t *testing.T) {
	detector := NewOnboardingTransitionDetector()

	// Successive snapshots: nil, false, false, true, true.
	snapshots := []*models.UserPreferences{
		nil,
		prefsCompleted(false),
		prefsCompleted(false),
		prefsCompleted(true),
		prefsCompleted(true),
	}

	var fired []bool
	for i := 1; i < len(snapshots); i++ {
		fired = append(fired, detector.Observe(snapshots[i-1], snapshots[i]))
	}
	assert.Equal(t, []bool{false, false, true, false}, fired)
}

func TestDetectorNilEdges(t *testing.T) {
	detector := NewOnboardingTransitionDetector()

	assert.False(t, detector.Observe(nil, prefsCompleted(true)))
	assert.False(t, detector.Observe(prefsCompleted(false), nil))
	assert.False(t, detector.Observe(nil, nil))
}

func TestDetectorSuppressesReplayUntilRearmed(t *testing.T) {
	detector := NewOnboardingTransitionDetector()

	assert.True(t, detector.Observe(prefsCompleted(false), prefsCompleted(true)))
	// Same transition replayed: already reported.
	assert.False(t, detector.Observe(prefsCompleted(false), prefsCompleted(true)))

	detector.Rearm()
	assert.True(t, detector.Observe(prefsCompleted(false), prefsCompleted(true)))
}

func TestDetectorIgnoresBackwardTransition(t *testing.T) {
	detector := NewOnboardingTransitionDetector()

	assert.True(t, detector.Observe(prefsCompleted(false), prefsCompleted(true)))
	assert.False(t, detector.Observe(prefsCompleted(true), prefsCompleted(false)))
	// Forward again without a re-arm: still suppressed within the session.
	assert.False(t, detector.Observe(prefsCompleted(false), prefsCompleted(true)))
}
