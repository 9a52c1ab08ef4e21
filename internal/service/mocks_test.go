package service

import (
	"context"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/provider"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateCharacter(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	if args.Error(0) == nil && character.ID == uuid.Nil {
		character.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRepository) GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Character), args.Error(1)
}

func (m *mockRepository) CreateAsset(ctx context.Context, asset *models.CharacterAsset) error {
	args := m.Called(ctx, asset)
	if args.Error(0) == nil && asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockRepository) ListByUser(ctx context.Context, userID string) ([]models.Character, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Character), args.Error(1)
}

type mockImageGenerator struct {
	mock.Mock
}

func (m *mockImageGenerator) Generate(ctx context.Context, prompt string) (provider.GeneratedImage, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(provider.GeneratedImage), args.Error(1)
}
