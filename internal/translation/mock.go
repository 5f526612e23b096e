package translation

import (
	"context"
	"strings"
	"time"
)

// MockTranslator returns dictionary translations, or the text tagged with the
// target language when no entry exists.
type MockTranslator struct {
	Delay      time.Duration
	Language   string
	Dictionary map[string]string
}

func NewMockTranslator(language string) *MockTranslator {
	return &MockTranslator{
		Delay:    20 * time.Millisecond,
		Language: language,
		Dictionary: map[string]string{
			"HELLO":     "नमस्कार",
			"THANK YOU": "धन्यवाद",
			"YES":       "होय",
			"NO":        "नाही",
		},
	}
}

func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", &TransportError{Err: ctx.Err()}
		case <-time.After(m.Delay):
		}
	}
	if translated, ok := m.Dictionary[strings.ToUpper(strings.TrimSpace(text))]; ok {
		return translated, nil
	}
	return "[" + m.Language + "] " + text, nil
}
