package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/service"
	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, data service.CharacterData, userID string) (*service.GenerateResult, error) {
	args := m.Called(ctx, data, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.GenerateResult), args.Error(1)
}

func (m *mockGenerator) GenerateAdvanced(ctx context.Context, data service.CharacterData, shot models.ShotSpec, userID string) (*service.AdvancedResult, error) {
	args := m.Called(ctx, data, shot, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdvancedResult), args.Error(1)
}

func (m *mockGenerator) GenerateShots(ctx context.Context, data service.CharacterData, shots []models.ShotSpec, userID string) ([]service.AdvancedResult, error) {
	args := m.Called(ctx, data, shots, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.AdvancedResult), args.Error(1)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) ListCharacters(ctx context.Context, userID string) ([]models.CharacterWithAssets, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CharacterWithAssets), args.Error(1)
}

func (m *mockReader) Invalidate(userID string) {
	m.Called(userID)
}

func setupRouter(generator Generator, reader Reader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorHandler())

	h := NewGenerationHandler(generator, reader, logger.New(logger.DefaultConfig()))
	r.POST("/api/v1/characters/generate", h.Generate)
	r.POST("/api/v1/characters/generate-advanced", h.GenerateAdvanced)
	r.POST("/api/v1/characters/generate-batch", h.GenerateShots)
	r.POST("/api/v1/characters/list", h.ListCharacters)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateEndpoint(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	character := &models.Character{ID: uuid.New(), Name: "Sam Vale"}
	generator.On("Generate", mock.Anything, mock.Anything, "user-1").
		Return(&service.GenerateResult{Character: character, ImageURL: "https://img.example/a.png"}, nil)
	reader.On("Invalidate", "user-1").Return()

	w := postJSON(t, r, "/api/v1/characters/generate", GenerateRequest{
		CharacterData: CharacterDataDTO{
			Name:        "Sam Vale",
			Description: "A grizzled detective",
			Gender:      "male",
			AgeRange:    "middle-aged",
			Ethnicity:   "hispanic",
			Personality: PersonalityList{"cynical"},
			Style:       "noir",
		},
		UserID: "user-1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Sam Vale", resp.Character.Name)
	assert.Equal(t, "https://img.example/a.png", resp.ImageURL)
	reader.AssertCalled(t, "Invalidate", "user-1")
}

func TestGenerateEndpointMissingDescription(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	w := postJSON(t, r, "/api/v1/characters/generate", GenerateRequest{
		CharacterData: CharacterDataDTO{Name: "Sam Vale"},
		UserID:        "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	generator.AssertNotCalled(t, "Generate")
}

func TestGenerateEndpointProviderFailure(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	generator.On("Generate", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperrors.NewProviderError(500, "upstream down"))

	w := postJSON(t, r, "/api/v1/characters/generate", GenerateRequest{
		CharacterData: CharacterDataDTO{Description: "A grizzled detective"},
		UserID:        "user-1",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	reader.AssertNotCalled(t, "Invalidate")
}

func TestGenerateAdvancedEndpoint(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	shot := models.ShotSpec{Angle: "side", Background: "dark-studio", Type: "full-body"}
	character := &models.Character{ID: uuid.New(), Name: "Sam Vale"}
	asset := &models.CharacterAsset{ID: uuid.New(), CharacterID: character.ID, AssetType: models.AssetTypeImage}

	generator.On("GenerateAdvanced", mock.Anything, mock.Anything, shot, "user-1").
		Return(&service.AdvancedResult{Character: character, Asset: asset, ImageURL: "https://img.example/b.png", Shot: shot}, nil)
	reader.On("Invalidate", "user-1").Return()

	w := postJSON(t, r, "/api/v1/characters/generate-advanced", GenerateRequest{
		CharacterData: CharacterDataDTO{
			Description:      "A grizzled detective",
			AdvancedSettings: &ShotSpecDTO{Angle: "side", Background: "dark-studio", Type: "full-body"},
		},
		UserID: "user-1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp AdvancedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, shot, resp.AdvancedSettings)
	require.NotNil(t, resp.Asset)
}

func TestGenerateAdvancedUnknownCharacterReturns404(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	id := uuid.New()
	generator.On("GenerateAdvanced", mock.Anything, mock.Anything, mock.Anything, "user-1").
		Return(nil, apperrors.NewNotFoundError(apperrors.CodeNotFound, "Character not found"))

	w := postJSON(t, r, "/api/v1/characters/generate-advanced", GenerateRequest{
		CharacterData: CharacterDataDTO{
			CharacterID: id.String(),
			Description: "A grizzled detective",
		},
		UserID: "user-1",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateBatchEndpoint(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	character := &models.Character{ID: uuid.New(), Name: "Sam Vale"}
	shots := []models.ShotSpec{{Angle: "front", Type: "portrait"}, {Angle: "back", Type: "full-body"}}
	results := []service.AdvancedResult{
		{Character: character, Asset: &models.CharacterAsset{ID: uuid.New()}, ImageURL: "https://img.example/1.png", Shot: shots[0]},
		{Character: character, Asset: &models.CharacterAsset{ID: uuid.New()}, ImageURL: "https://img.example/2.png", Shot: shots[1]},
	}
	generator.On("GenerateShots", mock.Anything, mock.Anything, shots, "user-1").Return(results, nil)
	reader.On("Invalidate", "user-1").Return()

	w := postJSON(t, r, "/api/v1/characters/generate-batch", GenerateShotsRequest{
		CharacterData: CharacterDataDTO{Description: "A grizzled detective"},
		Shots: []ShotSpecDTO{
			{Angle: "front", Type: "portrait"},
			{Angle: "back", Type: "full-body"},
		},
		UserID: "user-1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Shots, 2)
	assert.Equal(t, shots[0], resp.Shots[0].AdvancedSettings)
	assert.Equal(t, shots[1], resp.Shots[1].AdvancedSettings)
}

func TestGenerateBatchRejectsEmptyShots(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	w := postJSON(t, r, "/api/v1/characters/generate-batch", GenerateShotsRequest{
		CharacterData: CharacterDataDTO{Description: "A grizzled detective"},
		UserID:        "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	generator.AssertNotCalled(t, "GenerateShots")
}

func TestListCharactersEndpoint(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	list := []models.CharacterWithAssets{
		{Character: models.Character{ID: uuid.New(), Name: "Mira Holt"}, ImageURL: "https://img.example/m.png"},
	}
	reader.On("ListCharacters", mock.Anything, "user-1").Return(list, nil)

	w := postJSON(t, r, "/api/v1/characters/list", map[string]string{"userId": "user-1"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Characters, 1)
	assert.Equal(t, "https://img.example/m.png", resp.Characters[0].ImageURL)
}

func TestListCharactersRequiresUser(t *testing.T) {
	generator := new(mockGenerator)
	reader := new(mockReader)
	r := setupRouter(generator, reader)

	w := postJSON(t, r, "/api/v1/characters/list", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	reader.AssertNotCalled(t, "ListCharacters")
}

func TestPersonalityListAcceptsString(t *testing.T) {
	var dto CharacterDataDTO
	require.NoError(t, json.Unmarshal([]byte(`{"description":"d","personality":"brave, loyal , "}`), &dto))
	assert.Equal(t, PersonalityList{"brave", "loyal"}, dto.Personality)

	require.NoError(t, json.Unmarshal([]byte(`{"description":"d","personality":["brave","loyal"]}`), &dto))
	assert.Equal(t, PersonalityList{"brave", "loyal"}, dto.Personality)
}
