package service

import (
	"context"
	"fmt"
	"time"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/prompt"
	"casting-studio/backend/internal/provider"
	"casting-studio/backend/internal/repository"
	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"
	"casting-studio/backend/pkg/observability"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Quality scores are fixed placeholders, not measured values.
const (
	basicQualityScore    = 0.9
	advancedQualityScore = 0.95
)

// CharacterData is the attribute record supplied by a generation request.
// CharacterID, when set, attaches the new asset to an existing character
// instead of creating one.
type CharacterData struct {
	CharacterID *uuid.UUID
	Name        string
	Description string
	Gender      string
	AgeRange    string
	Ethnicity   string
	Personality []string
	VoiceType   string
	Style       string
}

func (d CharacterData) attributes() prompt.CharacterAttributes {
	return prompt.CharacterAttributes{
		Description: d.Description,
		Gender:      d.Gender,
		AgeRange:    d.AgeRange,
		Ethnicity:   d.Ethnicity,
		Personality: d.Personality,
		Style:       d.Style,
	}
}

// GenerateResult is the outcome of a basic generation request
type GenerateResult struct {
	Character *models.Character
	ImageURL  string
}

// AdvancedResult is the outcome of one advanced shot request
type AdvancedResult struct {
	Character *models.Character
	Asset     *models.CharacterAsset
	ImageURL  string
	Shot      models.ShotSpec
}

// GenerationOptions tunes the batch path. Concurrency defaults to 1,
// preserving the one-shot-at-a-time pacing the external provider's unknown
// limits call for.
type GenerationOptions struct {
	Model            string
	Size             string
	Quality          string
	BatchConcurrency int
	ShotInterval     time.Duration
	MaxShots         int
}

// GenerationService runs the prompt → provider → reconcile → record pipeline
type GenerationService struct {
	repo    repository.CharacterRepository
	images  provider.ImageGenerator
	log     *logger.Logger
	metrics *observability.GenerationMetrics
	opts    GenerationOptions
}

// NewGenerationService wires the pipeline from explicit dependencies
func NewGenerationService(
	repo repository.CharacterRepository,
	images provider.ImageGenerator,
	log *logger.Logger,
	metrics *observability.GenerationMetrics,
	opts GenerationOptions,
) *GenerationService {
	if opts.Model == "" {
		opts.Model = "gpt-image-1"
	}
	if opts.Size == "" {
		opts.Size = "1024x1024"
	}
	if opts.Quality == "" {
		opts.Quality = "hd"
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 1
	}
	if opts.ShotInterval <= 0 {
		opts.ShotInterval = time.Second
	}
	if opts.MaxShots <= 0 {
		opts.MaxShots = 24
	}
	return &GenerationService{
		repo:    repo,
		images:  images,
		log:     log,
		metrics: metrics,
		opts:    opts,
	}
}

// Generate runs the basic path: compose, call the provider, create the
// character, record the asset. An asset-write failure here is logged but
// non-fatal; the character and image URL are still returned.
func (s *GenerationService) Generate(ctx context.Context, data CharacterData, userID string) (*GenerateResult, error) {
	imagePrompt := prompt.ComposeBasic(data.attributes())
	log := s.log.WithUserID(userID)
	log.Info("generating character", "name", data.Name, "prompt", imagePrompt)

	img, err := s.images.Generate(ctx, imagePrompt)
	if err != nil {
		s.metrics.RecordGeneration(ctx, "basic", false)
		return nil, err
	}

	character, err := s.resolveCharacter(ctx, data, userID, imagePrompt, nil)
	if err != nil {
		s.metrics.RecordGeneration(ctx, "basic", false)
		return nil, err
	}

	asset := &models.CharacterAsset{
		CharacterID: character.ID,
		AssetType:   models.AssetTypeImage,
		AssetURL:    img.StoredReference(),
		GenerationParameters: models.GenerationParameters{
			Model:   s.opts.Model,
			Prompt:  imagePrompt,
			Size:    s.opts.Size,
			Quality: s.opts.Quality,
		},
		QualityScore: basicQualityScore,
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		// Preserved asymmetry with the advanced path: the character exists
		// and an image was produced, so the request still succeeds.
		log.LogError(err, "asset save failed on basic path", "character_id", character.ID.String())
	}

	s.metrics.RecordGeneration(ctx, "basic", true)
	return &GenerateResult{Character: character, ImageURL: img.DisplayURL()}, nil
}

// GenerateAdvanced runs one shot of the advanced path. Unlike the basic
// path, a failed asset write fails the whole request.
func (s *GenerationService) GenerateAdvanced(ctx context.Context, data CharacterData, shot models.ShotSpec, userID string) (*AdvancedResult, error) {
	fullPrompt := prompt.ComposeAdvanced(data.attributes(), shot)
	log := s.log.WithUserID(userID)
	log.Info("generating advanced character shot", "name", data.Name, "shot_type", shot.Type, "prompt", fullPrompt)

	img, err := s.images.Generate(ctx, fullPrompt)
	if err != nil {
		s.metrics.RecordGeneration(ctx, "advanced", false)
		return nil, err
	}

	character, err := s.resolveCharacter(ctx, data, userID, fullPrompt, &shot)
	if err != nil {
		s.metrics.RecordGeneration(ctx, "advanced", false)
		return nil, err
	}

	asset, err := s.recordShotAsset(ctx, character.ID, img, fullPrompt, shot)
	if err != nil {
		s.metrics.RecordGeneration(ctx, "advanced", false)
		return nil, err
	}

	s.metrics.RecordGeneration(ctx, "advanced", true)
	return &AdvancedResult{
		Character: character,
		Asset:     asset,
		ImageURL:  img.DisplayURL(),
		Shot:      shot,
	}, nil
}

// GenerateShots runs a batch of shot requests for one character. Provider
// calls run under a bounded worker group paced by a rate limiter; asset rows
// are then recorded sequentially so they land in enumeration order. Any
// provider failure fails the whole batch before anything is persisted.
func (s *GenerationService) GenerateShots(ctx context.Context, data CharacterData, shots []models.ShotSpec, userID string) ([]AdvancedResult, error) {
	if len(shots) == 0 {
		return nil, apperrors.NewValidationError("at least one shot specification is required")
	}
	if len(shots) > s.opts.MaxShots {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("a batch may contain at most %d shots", s.opts.MaxShots))
	}

	prompts := make([]string, len(shots))
	images := make([]provider.GeneratedImage, len(shots))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.BatchConcurrency)
	limiter := rate.NewLimiter(rate.Every(s.opts.ShotInterval), 1)

	for i, shot := range shots {
		i, shot := i, shot
		prompts[i] = prompt.ComposeAdvanced(data.attributes(), shot)

		eg.Go(func() error {
			if err := limiter.Wait(egCtx); err != nil {
				return err
			}
			img, err := s.images.Generate(egCtx, prompts[i])
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		s.metrics.RecordGeneration(ctx, "batch", false)
		return nil, err
	}

	// The first shot is the character's defining generation
	character, err := s.resolveCharacter(ctx, data, userID, prompts[0], &shots[0])
	if err != nil {
		s.metrics.RecordGeneration(ctx, "batch", false)
		return nil, err
	}

	results := make([]AdvancedResult, 0, len(shots))
	for i, shot := range shots {
		asset, err := s.recordShotAsset(ctx, character.ID, images[i], prompts[i], shot)
		if err != nil {
			s.metrics.RecordGeneration(ctx, "batch", false)
			return nil, err
		}
		results = append(results, AdvancedResult{
			Character: character,
			Asset:     asset,
			ImageURL:  images[i].DisplayURL(),
			Shot:      shot,
		})
	}

	s.metrics.RecordGeneration(ctx, "batch", true)
	return results, nil
}

// resolveCharacter loads the character referenced by the request or creates a
// new one with its visual DNA. Exactly one character is resolved or created
// per request.
func (s *GenerationService) resolveCharacter(ctx context.Context, data CharacterData, userID, basePrompt string, shot *models.ShotSpec) (*models.Character, error) {
	if data.CharacterID != nil {
		return s.repo.GetCharacter(ctx, *data.CharacterID)
	}

	character := &models.Character{
		Name:              data.Name,
		Description:       data.Description,
		PersonalityTraits: data.Personality,
		VoiceType:         data.VoiceType,
		AgeRange:          data.AgeRange,
		Gender:            data.Gender,
		Ethnicity:         data.Ethnicity,
		Style:             data.Style,
		VisualDNA: models.VisualDNA{
			BasePrompt:       basePrompt,
			GeneratedAt:      time.Now().UTC(),
			AdvancedSettings: shot,
		},
	}
	if userID != "" {
		character.UserID = &userID
	}

	if err := s.repo.CreateCharacter(ctx, character); err != nil {
		return nil, err
	}
	s.log.Info("character created", "character_id", character.ID.String())
	return character, nil
}

func (s *GenerationService) recordShotAsset(ctx context.Context, characterID uuid.UUID, img provider.GeneratedImage, fullPrompt string, shot models.ShotSpec) (*models.CharacterAsset, error) {
	shotCopy := shot
	asset := &models.CharacterAsset{
		CharacterID: characterID,
		AssetType:   models.AssetTypeImage,
		AssetURL:    img.StoredReference(),
		GenerationParameters: models.GenerationParameters{
			Model:            s.opts.Model,
			Prompt:           fullPrompt,
			Size:             s.opts.Size,
			Quality:          s.opts.Quality,
			AdvancedSettings: &shotCopy,
		},
		AssetData:    &shotCopy,
		QualityScore: advancedQualityScore,
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}
