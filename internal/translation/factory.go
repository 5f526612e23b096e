package translation

import (
	"fmt"
	"time"

	"github.com/loqalabs/loqa-sign/internal/config"
)

// New builds the translator selected by cfg.Mode.
func New(cfg config.TranslationConfig) (Translator, error) {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	switch cfg.Mode {
	case "", "backend":
		return NewBackendTranslator(cfg.Endpoint, timeout), nil
	case "gemini":
		return NewGeminiTranslator(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.TargetLanguage, timeout), nil
	case "openai":
		return NewOpenAITranslator(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.TargetLanguage), nil
	case "ollama":
		return NewOllamaTranslator(cfg.Endpoint, cfg.Model, cfg.TargetLanguage), nil
	case "mock":
		return NewMockTranslator(cfg.TargetLanguage), nil
	default:
		return nil, fmt.Errorf("unknown translation mode %q", cfg.Mode)
	}
}
