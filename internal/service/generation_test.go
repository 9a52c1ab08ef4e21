package service

import (
	"context"
	"testing"
	"time"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/provider"
	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(repo *mockRepository, images *mockImageGenerator) *GenerationService {
	return NewGenerationService(repo, images, logger.New(logger.DefaultConfig()), nil, GenerationOptions{
		ShotInterval: time.Millisecond,
	})
}

func detectiveData() CharacterData {
	return CharacterData{
		Name:        "Sam Vale",
		Description: "A grizzled detective",
		Gender:      "male",
		AgeRange:    "middle-aged",
		Ethnicity:   "hispanic",
		Personality: []string{"cynical", "sharp"},
		VoiceType:   "gravelly",
		Style:       "noir",
	}
}

func TestGenerateCreatesCharacterAndAsset(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/shot.png"}, nil)
	repo.On("CreateCharacter", mock.Anything, mock.AnythingOfType("*models.Character")).Return(nil)
	repo.On("CreateAsset", mock.Anything, mock.AnythingOfType("*models.CharacterAsset")).Return(nil)

	result, err := svc.Generate(context.Background(), detectiveData(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Sam Vale", result.Character.Name)
	assert.Equal(t, "https://img.example/shot.png", result.ImageURL)
	require.NotNil(t, result.Character.UserID)
	assert.Equal(t, "user-1", *result.Character.UserID)
	assert.NotEmpty(t, result.Character.VisualDNA.BasePrompt)
	assert.Nil(t, result.Character.VisualDNA.AdvancedSettings)

	repo.AssertNumberOfCalls(t, "CreateCharacter", 1)
	repo.AssertNumberOfCalls(t, "CreateAsset", 1)
	created := repo.Calls[1].Arguments.Get(1).(*models.CharacterAsset)
	assert.Equal(t, models.AssetTypeImage, created.AssetType)
	assert.Equal(t, basicQualityScore, created.QualityScore)
	assert.Equal(t, "gpt-image-1", created.GenerationParameters.Model)
}

func TestGenerateProviderFailureWritesNothing(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{}, apperrors.NewProviderError(500, "upstream down"))

	_, err := svc.Generate(context.Background(), detectiveData(), "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))

	repo.AssertNotCalled(t, "CreateCharacter")
	repo.AssertNotCalled(t, "CreateAsset")
}

func TestGenerateAssetFailureIsNonFatal(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{B64JSON: "aGVsbG8="}, nil)
	repo.On("CreateCharacter", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAsset", mock.Anything, mock.Anything).
		Return(apperrors.NewPersistenceError("insert failed"))

	result, err := svc.Generate(context.Background(), detectiveData(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", result.ImageURL)
}

func TestGenerateAdvancedAssetFailureIsFatal(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/adv.png"}, nil)
	repo.On("CreateCharacter", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAsset", mock.Anything, mock.Anything).
		Return(apperrors.NewPersistenceError("insert failed"))

	_, err := svc.GenerateAdvanced(context.Background(), detectiveData(), models.ShotSpec{Angle: "front", Type: "portrait"}, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePersistence))
}

func TestGenerateAdvancedRecordsShotMetadata(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	shot := models.ShotSpec{Angle: "side", Background: "dark-studio", Outfit: "fantasy", Emotion: "mysterious", Type: "full-body"}

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/adv.png"}, nil)
	repo.On("CreateCharacter", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAsset", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.GenerateAdvanced(context.Background(), detectiveData(), shot, "user-1")
	require.NoError(t, err)

	assert.Equal(t, advancedQualityScore, result.Asset.QualityScore)
	require.NotNil(t, result.Asset.AssetData)
	assert.Equal(t, shot, *result.Asset.AssetData)
	require.NotNil(t, result.Asset.GenerationParameters.AdvancedSettings)
	assert.Equal(t, shot, *result.Asset.GenerationParameters.AdvancedSettings)
	require.NotNil(t, result.Character.VisualDNA.AdvancedSettings)
	assert.Equal(t, shot, *result.Character.VisualDNA.AdvancedSettings)
}

func TestGenerateAdvancedExistingCharacter(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	existingID := uuid.New()
	existing := &models.Character{ID: existingID, Name: "Sam Vale"}

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/adv.png"}, nil)
	repo.On("GetCharacter", mock.Anything, existingID).Return(existing, nil)
	repo.On("CreateAsset", mock.Anything, mock.Anything).Return(nil)

	data := detectiveData()
	data.CharacterID = &existingID

	result, err := svc.GenerateAdvanced(context.Background(), data, models.ShotSpec{Type: "portrait"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, existingID, result.Character.ID)
	assert.Equal(t, existingID, result.Asset.CharacterID)
	repo.AssertNotCalled(t, "CreateCharacter")
}

func TestGenerateAdvancedUnknownCharacter(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	missingID := uuid.New()
	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/adv.png"}, nil)
	repo.On("GetCharacter", mock.Anything, missingID).
		Return(nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Character not found"))

	data := detectiveData()
	data.CharacterID = &missingID

	_, err := svc.GenerateAdvanced(context.Background(), data, models.ShotSpec{Type: "portrait"}, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestGenerateShotsAllAssetsShareOneCharacter(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/shot.png"}, nil)
	repo.On("CreateCharacter", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAsset", mock.Anything, mock.Anything).Return(nil)

	shots := []models.ShotSpec{
		{Angle: "front", Type: "portrait"},
		{Angle: "side", Type: "portrait"},
		{Angle: "back", Type: "full-body"},
	}

	results, err := svc.GenerateShots(context.Background(), detectiveData(), shots, "user-1")
	require.NoError(t, err)
	require.Len(t, results, 3)

	repo.AssertNumberOfCalls(t, "CreateCharacter", 1)
	repo.AssertNumberOfCalls(t, "CreateAsset", 3)
	for i, r := range results {
		assert.Equal(t, results[0].Character.ID, r.Character.ID)
		assert.Equal(t, shots[i], r.Shot)
	}
}

func TestGenerateShotsProviderFailureWritesNothing(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := newTestService(repo, images)

	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{URL: "https://img.example/shot.png"}, nil).Twice()
	images.On("Generate", mock.Anything, mock.Anything).
		Return(provider.GeneratedImage{}, apperrors.NewProviderError(429, "rate limited"))

	shots := []models.ShotSpec{
		{Angle: "front", Type: "portrait"},
		{Angle: "side", Type: "portrait"},
		{Angle: "back", Type: "portrait"},
	}

	_, err := svc.GenerateShots(context.Background(), detectiveData(), shots, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))
	repo.AssertNotCalled(t, "CreateCharacter")
	repo.AssertNotCalled(t, "CreateAsset")
}

func TestGenerateShotsRejectsEmptyBatch(t *testing.T) {
	svc := newTestService(new(mockRepository), new(mockImageGenerator))

	_, err := svc.GenerateShots(context.Background(), detectiveData(), nil, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestGenerateShotsRejectsOversizedBatch(t *testing.T) {
	repo := new(mockRepository)
	images := new(mockImageGenerator)
	svc := NewGenerationService(repo, images, logger.New(logger.DefaultConfig()), nil, GenerationOptions{
		ShotInterval: time.Millisecond,
		MaxShots:     2,
	})

	shots := []models.ShotSpec{
		{Angle: "front", Type: "portrait"},
		{Angle: "side", Type: "portrait"},
		{Angle: "back", Type: "portrait"},
	}

	_, err := svc.GenerateShots(context.Background(), detectiveData(), shots, "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	images.AssertNotCalled(t, "Generate")
	repo.AssertNotCalled(t, "CreateCharacter")
}
