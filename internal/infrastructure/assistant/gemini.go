// Package assistant adapts AI text generation to ports.Assistant.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
)

// OfflineReply is returned when no API key is configured.
const OfflineReply = "I'm not connected to my AI brain yet! Add a Gemini API key to enable smart assistance."

var errEmptyReply = errors.New("assistant returned no text")

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini answers prompts with a Gemini model.
type Gemini struct {
	models generator
	model  string
	config *genai.GenerateContentConfig
	log    zerolog.Logger
}

var _ ports.Assistant = (*Gemini)(nil)

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: 1024,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}
}

// New returns a Gemini-backed assistant, or an Offline one when apiKey is
// empty.
func New(ctx context.Context, apiKey, model string, log zerolog.Logger) (ports.Assistant, error) {
	if apiKey == "" {
		log.Warn().Msg("no Gemini API key configured, assistant is offline")
		return Offline{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newGemini(client.Models, model, log), nil
}

func newGemini(models generator, model string, log zerolog.Logger) *Gemini {
	return &Gemini{
		models: models,
		model:  model,
		config: generationConfig(),
		log:    log.With().Str("component", "assistant").Str("model", model).Logger(),
	}
}

func (g *Gemini) Reply(ctx context.Context, prompt string, actx *domain.AssistantContext) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(prompt, actx)), g.config)
	if err != nil {
		g.log.Error().Err(err).Msg("generate content failed")
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyReply
	}
	return text, nil
}

// Offline is the assistant used without credentials.
type Offline struct{}

func (Offline) Reply(context.Context, string, *domain.AssistantContext) (string, error) {
	return OfflineReply, nil
}
