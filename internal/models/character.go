package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ShotSpec is the enumerated tuple controlling one advanced generation
// request. Values outside the known enumerations are carried through
// untouched; the prompt composer silently omits their clauses.
type ShotSpec struct {
	Angle      string `json:"angle"`
	Background string `json:"background"`
	Outfit     string `json:"outfit"`
	Emotion    string `json:"emotion"`
	Type       string `json:"type"`
}

// VisualDNA captures the original prompt and generation context for a
// character. Set at creation and not updated by later asset generations.
type VisualDNA struct {
	BasePrompt       string    `json:"base_prompt"`
	GeneratedAt      time.Time `json:"generated_at"`
	AdvancedSettings *ShotSpec `json:"advanced_settings,omitempty"`
}

// GenerationParameters records exactly what was sent to the image provider,
// enabling reproducibility and audit of every asset.
type GenerationParameters struct {
	Model            string    `json:"model"`
	Prompt           string    `json:"prompt"`
	Size             string    `json:"size"`
	Quality          string    `json:"quality"`
	AdvancedSettings *ShotSpec `json:"advanced_settings,omitempty"`
}

// StringList stores a list of labels as a JSONB column
type StringList []string

// Character is a persisted fictional persona owned by a user
type Character struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string     `json:"name" gorm:"not null"`
	Description       string     `json:"description"`
	PersonalityTraits StringList `json:"personality_traits" gorm:"type:jsonb"`
	VoiceType         string     `json:"voice_type"`
	AgeRange          string     `json:"age_range"`
	Gender            string     `json:"gender"`
	Ethnicity         string     `json:"ethnicity"`
	Style             string     `json:"style"`
	// UserID is nullable only in unauthenticated/demo contexts
	UserID    *string   `json:"user_id" gorm:"index"`
	VisualDNA VisualDNA `json:"visual_dna" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// A character exclusively owns its assets; deleting it cascades.
	Assets []CharacterAsset `json:"character_assets,omitempty" gorm:"foreignKey:CharacterID;constraint:OnDelete:CASCADE"`
}

// CharacterAsset is one generated artifact (image or voice) linked to a
// character. Created once per successful generation call, never mutated.
type CharacterAsset struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CharacterID uuid.UUID `json:"character_id" gorm:"type:uuid;not null;index"`
	AssetType   string    `json:"asset_type" gorm:"not null"`
	// AssetURL holds either a hosted URL or an inline base64 payload
	AssetURL             string               `json:"asset_url"`
	GenerationParameters GenerationParameters `json:"generation_parameters" gorm:"type:jsonb"`
	// AssetData denormalizes the shot specification for quick filtering
	AssetData    *ShotSpec `json:"asset_data,omitempty" gorm:"type:jsonb"`
	QualityScore float64   `json:"quality_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// CharacterWithAssets augments a character with the first image/voice asset
// URLs for convenient display.
type CharacterWithAssets struct {
	Character
	ImageURL string `json:"imageUrl,omitempty"`
	VoiceURL string `json:"voiceUrl,omitempty"`
}

// Asset type tags
const (
	AssetTypeImage = "image"
	AssetTypeVoice = "voice"
)

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest any, value any) error {
	switch src := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(src, dest)
	case string:
		return json.Unmarshal([]byte(src), dest)
	default:
		return errors.New("unsupported source type for jsonb column")
	}
}

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) { return jsonValue([]string(s)) }

// Scan implements sql.Scanner
func (s *StringList) Scan(value any) error { return jsonScan(s, value) }

// Value implements driver.Valuer
func (d VisualDNA) Value() (driver.Value, error) { return jsonValue(d) }

// Scan implements sql.Scanner
func (d *VisualDNA) Scan(value any) error { return jsonScan(d, value) }

// Value implements driver.Valuer
func (p GenerationParameters) Value() (driver.Value, error) { return jsonValue(p) }

// Scan implements sql.Scanner
func (p *GenerationParameters) Scan(value any) error { return jsonScan(p, value) }

// Value implements driver.Valuer
func (s *ShotSpec) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return jsonValue(s)
}

// Scan implements sql.Scanner
func (s *ShotSpec) Scan(value any) error { return jsonScan(s, value) }
