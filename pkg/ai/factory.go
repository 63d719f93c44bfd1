package ai

import "fmt"

// Config carries the provider selection and credentials.
type Config struct {
	Provider     ProviderType
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIBase   string
}

// NewReplyService builds the configured provider.
func NewReplyService(cfg Config) (ReplyService, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBase), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}
