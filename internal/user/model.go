package user

import (
	"context"
	"errors"
	"time"
)

type Profile struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	Contact    string    `json:"contact"`
	HourlyRate int64     `json:"hourly_rate"`
	Skills     []string  `json:"skills"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var ErrProfileNotFound = errors.New("profile not found")

type Store interface {
	Profile(ctx context.Context, userID string) (Profile, error)
	// SaveProfile replaces name, bio, contact and hourly rate and leaves skills untouched.
	SaveProfile(ctx context.Context, p Profile) error
	// SaveSkills replaces the skill list, creating an empty profile when none exists.
	SaveSkills(ctx context.Context, userID string, skills []string) error
}
