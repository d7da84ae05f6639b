// Package preference defines the dietary preference domain model.
package preference

import "time"

// Preferences is the single dietary record kept per user.
type Preferences struct {
	UserID              string    `json:"user_id"`
	Allergies           []string  `json:"allergies"`
	DietaryRestrictions []string  `json:"dietary_restrictions"`
	HealthGoals         *string   `json:"health_goals"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Input carries the caller-editable preference fields.
type Input struct {
	Allergies           []string `json:"allergies"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	HealthGoals         *string  `json:"health_goals"`
}

// Clone returns a deep copy so stored records cannot be mutated by callers.
func (p Preferences) Clone() Preferences {
	p.Allergies = append([]string(nil), p.Allergies...)
	p.DietaryRestrictions = append([]string(nil), p.DietaryRestrictions...)
	if p.HealthGoals != nil {
		goals := *p.HealthGoals
		p.HealthGoals = &goals
	}
	return p
}
