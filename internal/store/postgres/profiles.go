package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gigledger/internal/user"
)

func (s *Store) Profile(ctx context.Context, userID string) (user.Profile, error) {
	p := user.Profile{UserID: userID}
	err := s.pool.QueryRow(ctx, `
		SELECT name, bio, contact, hourly_rate, skills, updated_at
		FROM profiles WHERE user_id = $1`, userID,
	).Scan(&p.Name, &p.Bio, &p.Contact, &p.HourlyRate, &p.Skills, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.Profile{}, user.ErrProfileNotFound
	}
	if err != nil {
		return user.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p user.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, name, bio, contact, hourly_rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name,
		    bio = EXCLUDED.bio,
		    contact = EXCLUDED.contact,
		    hourly_rate = EXCLUDED.hourly_rate,
		    updated_at = NOW()`,
		p.UserID, p.Name, p.Bio, p.Contact, p.HourlyRate,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (s *Store) SaveSkills(ctx context.Context, userID string, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, skills) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET skills = EXCLUDED.skills, updated_at = NOW()`,
		userID, skills,
	)
	if err != nil {
		return fmt.Errorf("upsert skills: %w", err)
	}
	return nil
}
