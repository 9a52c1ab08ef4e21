package api

import (
	"encoding/json"
	"strings"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/service"

	"github.com/google/uuid"
)

// CharacterDataDTO mirrors the camelCase payload the studio frontend sends.
// Personality arrives either as an array or a comma-separated string.
type CharacterDataDTO struct {
	CharacterID      string          `json:"characterId,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Gender           string          `json:"gender"`
	AgeRange         string          `json:"ageRange"`
	Ethnicity        string          `json:"ethnicity"`
	Personality      PersonalityList `json:"personality"`
	VoiceType        string          `json:"voiceType,omitempty"`
	Style            string          `json:"style"`
	AdvancedSettings *ShotSpecDTO    `json:"advancedSettings,omitempty"`
}

// ShotSpecDTO is the wire form of a single shot specification
type ShotSpecDTO struct {
	Angle      string `json:"angle,omitempty"`
	Background string `json:"background,omitempty"`
	Outfit     string `json:"outfit,omitempty"`
	Emotion    string `json:"emotion,omitempty"`
	Type       string `json:"type,omitempty"`
}

func (d *ShotSpecDTO) toModel() models.ShotSpec {
	if d == nil {
		return models.ShotSpec{}
	}
	return models.ShotSpec{
		Angle:      d.Angle,
		Background: d.Background,
		Outfit:     d.Outfit,
		Emotion:    d.Emotion,
		Type:       d.Type,
	}
}

// PersonalityList accepts both ["brave","loyal"] and "brave, loyal"
type PersonalityList []string

func (p *PersonalityList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*p = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	parts := strings.Split(asString, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*p = out
	return nil
}

// GenerateRequest is the body of the basic and advanced generation endpoints
type GenerateRequest struct {
	CharacterData CharacterDataDTO `json:"characterData"`
	UserID        string           `json:"userId,omitempty"`
}

// GenerateShotsRequest is the body of the batch endpoint
type GenerateShotsRequest struct {
	CharacterData CharacterDataDTO `json:"characterData"`
	Shots         []ShotSpecDTO    `json:"shots"`
	UserID        string           `json:"userId,omitempty"`
}

func (d CharacterDataDTO) toService() (service.CharacterData, error) {
	data := service.CharacterData{
		Name:        d.Name,
		Description: d.Description,
		Gender:      d.Gender,
		AgeRange:    d.AgeRange,
		Ethnicity:   d.Ethnicity,
		Personality: d.Personality,
		VoiceType:   d.VoiceType,
		Style:       d.Style,
	}
	if d.CharacterID != "" {
		id, err := uuid.Parse(d.CharacterID)
		if err != nil {
			return data, err
		}
		data.CharacterID = &id
	}
	return data, nil
}

// GenerateResponse is the success envelope of the basic endpoint
type GenerateResponse struct {
	Success   bool              `json:"success"`
	Character *models.Character `json:"character"`
	ImageURL  string            `json:"imageUrl"`
}

// AdvancedResponse is the success envelope of the advanced endpoint
type AdvancedResponse struct {
	Success          bool                   `json:"success"`
	Character        *models.Character      `json:"character"`
	Asset            *models.CharacterAsset `json:"asset"`
	ImageURL         string                 `json:"imageUrl"`
	AdvancedSettings models.ShotSpec        `json:"advancedSettings"`
}

// ShotResult is one entry of the batch response
type ShotResult struct {
	Asset            *models.CharacterAsset `json:"asset"`
	ImageURL         string                 `json:"imageUrl"`
	AdvancedSettings models.ShotSpec        `json:"advancedSettings"`
}

// BatchResponse is the success envelope of the batch endpoint
type BatchResponse struct {
	Success   bool              `json:"success"`
	Character *models.Character `json:"character"`
	Shots     []ShotResult      `json:"shots"`
}

// ListResponse is the success envelope of the listing endpoint
type ListResponse struct {
	Success    bool                         `json:"success"`
	Characters []models.CharacterWithAssets `json:"characters"`
}
