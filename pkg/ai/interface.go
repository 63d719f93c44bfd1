package ai

import (
	"context"
	"errors"
)

// ErrGenerationFailed wraps any provider failure; callers decide whether to
// re-invoke, no retry happens here.
var ErrGenerationFailed = errors.New("reply generation failed")

// ReplyService generates a draft reply to a post given a free-text context
// hint (tone, user background, edit instructions).
// Implement this interface to add new AI providers.
type ReplyService interface {
	GenerateReply(ctx context.Context, postText, contextHint string) (string, error)
}

// ProviderType selects the AI provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
)
