package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/midnightlabs/midnight/internal/core/domain"
	"github.com/midnightlabs/midnight/internal/core/ports"
	"github.com/midnightlabs/midnight/internal/pkg/metrics"
)

// FallbackReply is stored as the assistant's answer when the collaborator fails.
const FallbackReply = "I had trouble processing that. Could you try rephrasing your question?"

// AssistantService runs chat turns against the AI collaborator and keeps the
// conversation in the DataStore.
type AssistantService struct {
	store     *DataStore
	assistant ports.Assistant
	log       zerolog.Logger
}

func NewAssistantService(store *DataStore, assistant ports.Assistant, log zerolog.Logger) *AssistantService {
	return &AssistantService{store: store, assistant: assistant, log: log}
}

// Chat records the prompt, asks the assistant with the user's current data
// as context and records the reply. A failing assistant yields FallbackReply
// rather than an error.
func (s *AssistantService) Chat(ctx context.Context, prompt string) (domain.ChatMessage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ChatMessage{}, domain.NewValidationError("message", "is required")
	}
	if _, err := s.store.AddChatMessage(domain.RoleUser, prompt); err != nil {
		return domain.ChatMessage{}, err
	}

	stats := s.store.Stats(s.store.clock.Now())
	actx := BuildAssistantContext(s.store.Snapshot(), &stats)

	start := time.Now()
	reply, err := s.assistant.Reply(ctx, prompt, actx)
	result := "ok"
	if err != nil || strings.TrimSpace(reply) == "" {
		result = "error"
		s.log.Warn().Err(err).Msg("assistant reply failed")
		reply = FallbackReply
	}
	metrics.AssistantRequestDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	return s.store.AddChatMessage(domain.RoleAssistant, reply)
}

func (s *AssistantService) History() []domain.ChatMessage {
	return s.store.Snapshot().ChatMessages
}

func (s *AssistantService) ClearHistory() error {
	return s.store.ClearChatHistory()
}
