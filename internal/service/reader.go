package service

import (
	"context"
	"fmt"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/repository"
	"casting-studio/backend/pkg/cache"
	"casting-studio/backend/pkg/logger"
)

// ReaderService serves per-user character listings with their most useful
// asset references flattened onto each character.
type ReaderService struct {
	repo     repository.CharacterRepository
	cache    *cache.Cache
	log      *logger.Logger
	demoMode bool
}

func NewReaderService(repo repository.CharacterRepository, c *cache.Cache, log *logger.Logger, demoMode bool) *ReaderService {
	return &ReaderService{
		repo:     repo,
		cache:    c,
		log:      log,
		demoMode: demoMode,
	}
}

func listCacheKey(userID string) string {
	return fmt.Sprintf("characters:list:%s", userID)
}

// ListCharacters returns the user's characters, most recently created first,
// each carrying the URL of its first image and voice asset when present.
// When demo mode is enabled and the user has no characters yet, a fixed
// roster of sample characters is returned instead of an empty list.
func (s *ReaderService) ListCharacters(ctx context.Context, userID string) ([]models.CharacterWithAssets, error) {
	key := listCacheKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if list, ok := cached.([]models.CharacterWithAssets); ok {
				return list, nil
			}
		}
	}

	characters, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.CharacterWithAssets, 0, len(characters))
	for _, character := range characters {
		result = append(result, flattenAssets(character))
	}

	if len(result) == 0 && s.demoMode {
		s.log.WithUserID(userID).Info("no characters found, serving demo roster")
		return demoCharacters(), nil
	}

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	return result, nil
}

// Invalidate drops the cached listing for a user after a mutation
func (s *ReaderService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(listCacheKey(userID))
	}
}

// flattenAssets lifts the first image and voice asset URLs onto the
// character record. Assets are preloaded oldest-first, so "first" is the
// earliest recorded asset of each type.
func flattenAssets(character models.Character) models.CharacterWithAssets {
	out := models.CharacterWithAssets{Character: character}
	for _, asset := range character.Assets {
		switch asset.AssetType {
		case models.AssetTypeImage:
			if out.ImageURL == "" {
				out.ImageURL = asset.AssetURL
			}
		case models.AssetTypeVoice:
			if out.VoiceURL == "" {
				out.VoiceURL = asset.AssetURL
			}
		}
		if out.ImageURL != "" && out.VoiceURL != "" {
			break
		}
	}
	return out
}
