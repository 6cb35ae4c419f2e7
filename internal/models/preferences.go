package models

// Familiarity describes how familiar a user is with Stoic practice.
type Familiarity string

const (
	FamiliarityUnset         Familiarity = ""
	FamiliarityNew           Familiarity = "new"
	FamiliaritySomewhat      Familiarity = "somewhat"
	FamiliarityKnowledgeable Familiarity = "knowledgeable"
)

// ReflectionWindow is the user's preferred time of day for reflection.
type ReflectionWindow string

const (
	WindowUnset   ReflectionWindow = ""
	WindowMorning ReflectionWindow = "morning"
	WindowEvening ReflectionWindow = "evening"
	WindowAnytime ReflectionWindow = "anytime"
)

// UserPreferences is the single personalization record kept per user.
// Goals are ordered by user-chosen priority; the order is meaningful.
type UserPreferences struct {
	Name                string           `bson:"name,omitempty" json:"name,omitempty"`
	Goals               []string         `bson:"goals,omitempty" json:"goals,omitempty"`
	Familiarity         Familiarity      `bson:"familiarity,omitempty" json:"familiarity,omitempty"`
	ReflectionWindow    ReflectionWindow `bson:"reflection_window,omitempty" json:"reflection_window,omitempty"`
	CompletedOnboarding bool             `bson:"completed_onboarding" json:"completed_onboarding"`
}

// DefaultPreferences returns the cleared-default record used by reset.
// A reset rewrites the record; it never deletes it.
func DefaultPreferences() UserPreferences {
	return UserPreferences{Goals: []string{}}
}

// Clone returns a deep copy so observers can never mutate shared state.
func (p *UserPreferences) Clone() *UserPreferences {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Goals != nil {
		cp.Goals = append([]string(nil), p.Goals...)
	}
	return &cp
}
