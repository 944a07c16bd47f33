package user

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLen    = 50
	MaxBioLen     = 500
	MaxContactLen = 100
	MaxSkills     = 10
	MaxSkillLen   = 50
)

func tooLong(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%s must be at most %d characters", field, max)
	}
	return nil
}

func validateProfile(p Profile) error {
	if err := tooLong("name", p.Name, MaxNameLen); err != nil {
		return err
	}
	if err := tooLong("bio", p.Bio, MaxBioLen); err != nil {
		return err
	}
	if err := tooLong("contact", p.Contact, MaxContactLen); err != nil {
		return err
	}
	if p.HourlyRate < 0 {
		return fmt.Errorf("hourly_rate must not be negative")
	}
	return nil
}

// normalizeSkills trims entries, drops blanks and duplicates, and enforces the bounds.
func normalizeSkills(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		if err := tooLong("skill", s, MaxSkillLen); err != nil {
			return nil, err
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	if len(out) > MaxSkills {
		return nil, fmt.Errorf("at most %d skills allowed", MaxSkills)
	}
	return out, nil
}
