// Package provider wraps the external image-synthesis API behind a narrow
// interface so the generation pipeline can be tested without network calls.
package provider

import (
	"context"
	"errors"
	"time"

	apperrors "casting-studio/backend/pkg/errors"
	"casting-studio/backend/pkg/logger"
	"casting-studio/backend/pkg/observability"

	openai "github.com/sashabaranov/go-openai"
)

// GeneratedImage is the provider's result for exactly one image: either a
// hosted URL or inline base64-encoded PNG bytes.
type GeneratedImage struct {
	URL     string
	B64JSON string
}

// DisplayURL returns something a client can render directly: the hosted URL
// when present, otherwise a data URI built from the inline payload.
func (g GeneratedImage) DisplayURL() string {
	if g.URL != "" {
		return g.URL
	}
	return "data:image/png;base64," + g.B64JSON
}

// StoredReference returns the value persisted on the asset row: the hosted
// URL when present, otherwise the raw base64 payload.
func (g GeneratedImage) StoredReference() string {
	if g.URL != "" {
		return g.URL
	}
	return g.B64JSON
}

// ImageGenerator invokes the external image-synthesis provider
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (GeneratedImage, error)
}

// Config holds the fixed generation parameters sent with every request
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	Quality string
	Timeout time.Duration
}

// OpenAIGenerator calls the OpenAI Images API with a fixed parameter set
// (one image per call, 1024x1024, hd quality).
type OpenAIGenerator struct {
	client  *openai.Client
	config  Config
	log     *logger.Logger
	metrics *observability.GenerationMetrics
}

// NewOpenAIGenerator creates a generator from explicit configuration
func NewOpenAIGenerator(cfg Config, log *logger.Logger, metrics *observability.GenerationMetrics) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	if cfg.Size == "" {
		cfg.Size = "1024x1024"
	}
	if cfg.Quality == "" {
		cfg.Quality = "hd"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		log:     log,
		metrics: metrics,
	}
}

// Configured reports whether an API credential is present
func (g *OpenAIGenerator) Configured() bool {
	return g.config.APIKey != ""
}

// Generate sends the composed prompt to the provider and returns exactly one
// image. Any non-success provider response is fatal for the request; there is
// no retry.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	if g.config.APIKey == "" {
		return GeneratedImage{}, apperrors.NewInternalServerError(
			apperrors.CodeInternal, "OpenAI API key not configured")
	}

	// The prompt is the only record of what was actually requested
	g.log.Info("calling image provider",
		"model", g.config.Model,
		"size", g.config.Size,
		"quality", g.config.Quality,
		"prompt", prompt,
	)

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:  prompt,
		Model:   g.config.Model,
		N:       1,
		Size:    g.config.Size,
		Quality: g.config.Quality,
	})
	g.metrics.RecordProviderLatency(ctx, time.Since(start).Seconds())

	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			g.log.Error("image provider returned error",
				"status", apiErr.HTTPStatusCode,
				"type", apiErr.Type,
				"message", apiErr.Message,
			)
			return GeneratedImage{}, apperrors.NewProviderError(apiErr.HTTPStatusCode, apiErr.Message)
		}
		g.log.LogError(err, "image provider call failed")
		return GeneratedImage{}, apperrors.NewProviderError(0, err.Error())
	}

	if len(resp.Data) == 0 {
		return GeneratedImage{}, apperrors.NewProviderError(0, "provider returned no image data")
	}

	img := GeneratedImage{
		URL:     resp.Data[0].URL,
		B64JSON: resp.Data[0].B64JSON,
	}
	g.log.Info("image generated successfully", "hosted_url", img.URL != "")
	return img, nil
}
