package ports

import (
	"context"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

// Assistant is the AI collaborator. It owns prompt construction.
type Assistant interface {
	Reply(ctx context.Context, prompt string, actx *domain.AssistantContext) (string, error)
}
