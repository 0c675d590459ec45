package models

import "time"

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// BaseScore is the trust score every profile starts from.
const BaseScore = 300

// MaxScore is the trust score cap, similar to credit score ranges.
const MaxScore = 850

type Profile struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

// Tier is the named bucket a trust score falls into. Color is an opaque
// display token for the UI layer.
type Tier struct {
	Name  string `json:"name"`
	Level string `json:"level"`
	Color string `json:"color"`
}
