package api

import (
	"context"
	"net/http"

	"casting-studio/backend/internal/models"
	"casting-studio/backend/internal/service"
	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// NOTE: The context key for user ID is always 'userId' (lowercase 'd'), matching the auth middleware.
// Do not use 'userID' (uppercase 'D').

// Generator is the slice of the generation service the handlers need
type Generator interface {
	Generate(ctx context.Context, data service.CharacterData, userID string) (*service.GenerateResult, error)
	GenerateAdvanced(ctx context.Context, data service.CharacterData, shot models.ShotSpec, userID string) (*service.AdvancedResult, error)
	GenerateShots(ctx context.Context, data service.CharacterData, shots []models.ShotSpec, userID string) ([]service.AdvancedResult, error)
}

// Reader is the slice of the reader service the handlers need
type Reader interface {
	ListCharacters(ctx context.Context, userID string) ([]models.CharacterWithAssets, error)
	Invalidate(userID string)
}

type GenerationHandler struct {
	generator Generator
	reader    Reader
	log       *logger.Logger
}

func NewGenerationHandler(generator Generator, reader Reader, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{generator: generator, reader: reader, log: log}
}

// resolveUserID prefers the authenticated identity over the body field
func resolveUserID(c *gin.Context, bodyUserID string) string {
	if v, exists := c.Get("userId"); exists {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return bodyUserID
}

// Generate handles the basic generation endpoint
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("Invalid request body: " + err.Error()))
		return
	}
	if req.CharacterData.Description == "" {
		c.Error(apperrors.NewValidationError("characterData.description is required"))
		return
	}

	data, err := req.CharacterData.toService()
	if err != nil {
		c.Error(apperrors.NewValidationError("characterData.characterId is not a valid UUID"))
		return
	}
	userID := resolveUserID(c, req.UserID)

	result, err := h.generator.Generate(c.Request.Context(), data, userID)
	if err != nil {
		c.Error(err)
		return
	}

	h.reader.Invalidate(userID)
	c.JSON(http.StatusOK, GenerateResponse{
		Success:   true,
		Character: result.Character,
		ImageURL:  result.ImageURL,
	})
}

// GenerateAdvanced handles the single-shot advanced endpoint
func (h *GenerationHandler) GenerateAdvanced(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("Invalid request body: " + err.Error()))
		return
	}
	if req.CharacterData.Description == "" {
		c.Error(apperrors.NewValidationError("characterData.description is required"))
		return
	}

	data, err := req.CharacterData.toService()
	if err != nil {
		c.Error(apperrors.NewValidationError("characterData.characterId is not a valid UUID"))
		return
	}
	userID := resolveUserID(c, req.UserID)
	shot := req.CharacterData.AdvancedSettings.toModel()

	result, err := h.generator.GenerateAdvanced(c.Request.Context(), data, shot, userID)
	if err != nil {
		c.Error(err)
		return
	}

	h.reader.Invalidate(userID)
	c.JSON(http.StatusOK, AdvancedResponse{
		Success:          true,
		Character:        result.Character,
		Asset:            result.Asset,
		ImageURL:         result.ImageURL,
		AdvancedSettings: result.Shot,
	})
}

// GenerateShots handles the batch endpoint
func (h *GenerationHandler) GenerateShots(c *gin.Context) {
	var req GenerateShotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("Invalid request body: " + err.Error()))
		return
	}
	if req.CharacterData.Description == "" {
		c.Error(apperrors.NewValidationError("characterData.description is required"))
		return
	}
	if len(req.Shots) == 0 {
		c.Error(apperrors.NewValidationError("shots must not be empty"))
		return
	}

	data, err := req.CharacterData.toService()
	if err != nil {
		c.Error(apperrors.NewValidationError("characterData.characterId is not a valid UUID"))
		return
	}
	userID := resolveUserID(c, req.UserID)

	shots := make([]models.ShotSpec, 0, len(req.Shots))
	for i := range req.Shots {
		shots = append(shots, req.Shots[i].toModel())
	}

	results, err := h.generator.GenerateShots(c.Request.Context(), data, shots, userID)
	if err != nil {
		c.Error(err)
		return
	}

	h.reader.Invalidate(userID)
	resp := BatchResponse{Success: true, Shots: make([]ShotResult, 0, len(results))}
	if len(results) > 0 {
		resp.Character = results[0].Character
	}
	for _, r := range results {
		resp.Shots = append(resp.Shots, ShotResult{
			Asset:            r.Asset,
			ImageURL:         r.ImageURL,
			AdvancedSettings: r.Shot,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ListCharacters handles the per-user listing endpoint. The user is taken
// from the JWT when present, falling back to the request body for
// backwards compatibility with the pre-auth clients.
func (h *GenerationHandler) ListCharacters(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	// Body is optional when the caller is authenticated
	_ = c.ShouldBindJSON(&req)

	userID := resolveUserID(c, req.UserID)
	if userID == "" {
		c.Error(apperrors.NewValidationError("userId is required"))
		return
	}

	characters, err := h.reader.ListCharacters(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Success: true, Characters: characters})
}
