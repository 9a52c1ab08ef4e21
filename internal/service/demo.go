package service

import (
	"time"

	"casting-studio/backend/internal/models"

	"github.com/google/uuid"
)

// demoCharacters builds the sample roster served when demo mode is on and a
// user has no characters of their own. IDs are regenerated per call so demo
// records never collide with persisted ones.
func demoCharacters() []models.CharacterWithAssets {
	now := time.Now().UTC()
	seed := []struct {
		name        string
		description string
		personality []string
		gender      string
		ageRange    string
		style       string
	}{
		{"Anna Williams", "Strong female lead with complex emotional depth", []string{"determined", "empathetic"}, "female", "adult", "realistic"},
		{"Marcus Chen", "Corporate villain with hidden vulnerabilities", []string{"calculating", "charismatic"}, "male", "middle-aged", "realistic"},
		{"Elena Vasquez", "Tech expert and loyal friend", []string{"brilliant", "loyal"}, "female", "young-adult", "realistic"},
		{"David Rodriguez", "Charming artist with mysterious past", []string{"charming", "secretive"}, "male", "adult", "artistic"},
		{"Sarah Chen", "Wise mentor with powerful connections", []string{"wise", "connected"}, "female", "elderly", "realistic"},
		{"Alex Storm", "Reluctant hero discovering hidden powers", []string{"brave", "conflicted"}, "non-binary", "young-adult", "fantasy"},
	}

	out := make([]models.CharacterWithAssets, 0, len(seed))
	for i, s := range seed {
		character := models.Character{
			ID:                uuid.New(),
			Name:              s.name,
			Description:       s.description,
			PersonalityTraits: s.personality,
			Gender:            s.gender,
			AgeRange:          s.ageRange,
			Style:             s.style,
			CreatedAt:         now.Add(-time.Duration(i) * time.Hour),
			UpdatedAt:         now.Add(-time.Duration(i) * time.Hour),
		}
		out = append(out, models.CharacterWithAssets{Character: character})
	}
	return out
}
