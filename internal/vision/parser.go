package vision

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// NewParser builds the configured provider. It returns nil when vision is
// disabled.
func NewParser(cfg common.VisionConfig, logger *slog.Logger) (Parser, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		return NewGeminiParser(GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}, logger), nil
	case "openai":
		model := cfg.Model
		if model == "" && cfg.BaseURL != "" {
			model = defaultGeminiModel // gateways like Forge route gemini models
		}
		return NewOpenAIParser(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case "ollama":
		return NewOllamaParser(OllamaConfig{
			Endpoint:    cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown vision provider %q", cfg.Provider), common.ErrInvalidInput)
	}
}
