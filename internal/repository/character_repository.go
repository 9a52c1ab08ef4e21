package repository

import (
	"context"
	"errors"

	"casting-studio/backend/internal/models"
	apperrors "casting-studio/backend/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CharacterRepository persists characters and their assets. Each write is an
// independent single-row operation; no transactions span multiple rows.
type CharacterRepository interface {
	CreateCharacter(ctx context.Context, character *models.Character) error
	GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error)
	CreateAsset(ctx context.Context, asset *models.CharacterAsset) error
	ListByUser(ctx context.Context, userID string) ([]models.Character, error)
}

// GormCharacterRepository is the Postgres-backed implementation
type GormCharacterRepository struct {
	db *gorm.DB
}

func NewGormCharacterRepository(db *gorm.DB) *GormCharacterRepository {
	return &GormCharacterRepository{db: db}
}

func (r *GormCharacterRepository) CreateCharacter(ctx context.Context, character *models.Character) error {
	if character.ID == uuid.Nil {
		character.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		return apperrors.NewPersistenceError("Failed to save character")
	}
	return nil
}

func (r *GormCharacterRepository) GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).First(&character, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Character not found")
		}
		return nil, apperrors.NewPersistenceError("Failed to load character")
	}
	return &character, nil
}

func (r *GormCharacterRepository) CreateAsset(ctx context.Context, asset *models.CharacterAsset) error {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return apperrors.NewPersistenceError("Failed to save character asset")
	}
	return nil
}

// ListByUser returns all of a user's characters, most recently created first,
// with assets preloaded in insertion order.
func (r *GormCharacterRepository) ListByUser(ctx context.Context, userID string) ([]models.Character, error) {
	var characters []models.Character
	err := r.db.WithContext(ctx).
		Preload("Assets", func(db *gorm.DB) *gorm.DB {
			return db.Order("character_assets.created_at ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&characters).Error
	if err != nil {
		return nil, apperrors.NewPersistenceError("Failed to fetch characters")
	}
	return characters, nil
}
