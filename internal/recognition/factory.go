package recognition

import (
	"fmt"
	"time"

	"github.com/loqalabs/loqa-sign/internal/config"
)

// New builds the recognizer selected by cfg.Mode.
func New(cfg config.RecognitionConfig) (Recognizer, error) {
	switch cfg.Mode {
	case "mock":
		return NewMockRecognizer(cfg.MockScript), nil
	case "", "http":
		return NewHTTPRecognizer(cfg.Endpoint, time.Duration(cfg.TimeoutMS)*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown recognition mode %q", cfg.Mode)
	}
}
