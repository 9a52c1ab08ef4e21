// Package prompt deterministically maps structured character attributes to
// the natural-language prompt sent to the image provider. Same inputs always
// yield the byte-identical string; no randomness, no external state.
package prompt

import (
	"fmt"
	"strings"

	"casting-studio/backend/internal/models"
)

// CharacterAttributes are the generation-relevant fields of a character.
// Missing values are not validated here; they interpolate as empty strings.
type CharacterAttributes struct {
	Description string
	Gender      string
	AgeRange    string
	Ethnicity   string
	Personality []string
	Style       string
}

// Camera angle enumeration
const (
	AngleFront         = "front"
	Angle3QuarterLeft  = "3quarter-left"
	AngleLeft          = "left"
	Angle3QuarterRight = "3quarter-right"
	AngleRight         = "right"
	AngleBack          = "back"
)

// Shot type enumeration
const (
	ShotTypePortrait = "portrait"
	ShotTypeFullBody = "full-body"
	ShotTypePose     = "pose"
)

// anglePhrases maps each camera angle to its literal prompt clause.
// Unknown keys are omitted from the prompt, not rejected.
var anglePhrases = map[string]string{
	AngleFront:         "facing directly forward, looking at camera",
	Angle3QuarterLeft:  "turned 3/4 to the left, showing left side of face and body",
	AngleLeft:          "complete left profile view, showing side silhouette",
	Angle3QuarterRight: "turned 3/4 to the right, showing right side of face and body",
	AngleRight:         "complete right profile view, showing side silhouette",
	AngleBack:          "back view, showing rear of character, looking away from camera",
}

var backgroundPhrases = map[string]string{
	"white-studio":       "pure white studio background, professional photography lighting",
	"photography-studio": "professional photography studio with soft lighting and minimal shadows",
	"gradient-studio":    "subtle gradient studio background from white to light gray",
	"dark-studio":        "dark professional studio background with dramatic lighting",
	"colored-backdrop":   "clean colored backdrop with professional studio lighting",
	"natural-light":      "soft natural lighting with clean white background",
}

var outfitPhrases = map[string]string{
	"default":    "default outfit that matches the character description",
	"formal":     "formal wear, elegant and sophisticated clothing",
	"casual":     "casual comfortable clothing, relaxed style",
	"business":   "professional business attire, corporate style",
	"fantasy":    "fantasy costume with ornate details and mystical elements",
	"historical": "historically accurate period clothing",
	"modern":     "contemporary modern fashion, trendy and stylish",
}

var emotionPhrases = map[string]string{
	"neutral":    "neutral facial expression, calm and composed",
	"happy":      "genuinely happy expression, warm smile",
	"serious":    "serious and focused expression, determined look",
	"confident":  "confident and self-assured expression",
	"thoughtful": "thoughtful and contemplative expression",
	"determined": "determined and resolute expression",
	"friendly":   "friendly and approachable expression",
	"mysterious": "mysterious and enigmatic expression",
}

const (
	portraitClause = "Close-up portrait shot, head and shoulders only, high detail on facial features."
	fullBodyClause = "Full body shot, showing complete character from head to toe."

	basicStyleClause    = "art style. High quality, detailed, consistent character design."
	advancedStyleClause = "art style. Ultra high resolution, professional photography quality, consistent character design, perfect lighting, sharp focus."
)

// Base builds the clause shared by both generation paths
func Base(attrs CharacterAttributes) string {
	return fmt.Sprintf(
		"Professional character portrait: %s. %s character, %s age range, %s ethnicity. Personality traits: %s.",
		attrs.Description,
		attrs.Gender,
		attrs.AgeRange,
		attrs.Ethnicity,
		strings.Join(attrs.Personality, ", "),
	)
}

// ComposeBasic builds the prompt for the basic generation path: the base
// clause followed by the short style/quality clause.
func ComposeBasic(attrs CharacterAttributes) string {
	return fmt.Sprintf("%s %s %s", Base(attrs), attrs.Style, basicStyleClause)
}

// ComposeAdvanced builds the prompt for the advanced path. Clauses are
// appended in fixed order: angle, background, outfit, emotion, shot type,
// then the quality/style trailer. A shot field whose value has no phrase is
// skipped without error; the shot type clause is only emitted for portrait
// and full-body shots.
func ComposeAdvanced(attrs CharacterAttributes, shot models.ShotSpec) string {
	var b strings.Builder
	b.WriteString(Base(attrs))

	if phrase, ok := anglePhrases[shot.Angle]; ok {
		b.WriteString(" " + phrase + ".")
	}
	if phrase, ok := backgroundPhrases[shot.Background]; ok {
		b.WriteString(" Background: " + phrase + ".")
	}
	if phrase, ok := outfitPhrases[shot.Outfit]; ok {
		b.WriteString(" Clothing: " + phrase + ".")
	}
	if phrase, ok := emotionPhrases[shot.Emotion]; ok {
		b.WriteString(" Expression: " + phrase + ".")
	}

	switch shot.Type {
	case ShotTypePortrait:
		b.WriteString(" " + portraitClause)
	case ShotTypeFullBody:
		b.WriteString(" " + fullBodyClause)
	}

	b.WriteString(" " + attrs.Style + " " + advancedStyleClause)
	return b.String()
}

// Compose dispatches on the presence of a shot specification
func Compose(attrs CharacterAttributes, shot *models.ShotSpec) string {
	if shot == nil {
		return ComposeBasic(attrs)
	}
	return ComposeAdvanced(attrs, *shot)
}
