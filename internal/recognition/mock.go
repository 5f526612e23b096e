package recognition

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/loqalabs/loqa-sign/internal/camera"
)

type mockStep struct {
	letter     string
	confidence float64
	hand       bool
}

type mockRecognizer struct {
	mu    sync.Mutex
	steps []mockStep
	next  int
}

// NewMockRecognizer replays script in a loop. Entries are "LETTER" or
// "LETTER:CONFIDENCE"; "-" means no hand in frame and "?" a hand with no
// stable gesture.
func NewMockRecognizer(script []string) Recognizer {
	steps := make([]mockStep, 0, len(script))
	for _, entry := range script {
		steps = append(steps, parseStep(entry))
	}
	if len(steps) == 0 {
		steps = []mockStep{{hand: false}}
	}
	return &mockRecognizer{steps: steps}
}

func parseStep(entry string) mockStep {
	entry = strings.TrimSpace(entry)
	switch entry {
	case "", "-":
		return mockStep{}
	case "?":
		return mockStep{hand: true, confidence: 0.3}
	}
	letter, conf, found := strings.Cut(entry, ":")
	step := mockStep{letter: letter, confidence: 0.9, hand: true}
	if found {
		if parsed, err := strconv.ParseFloat(conf, 64); err == nil {
			step.confidence = parsed
		}
	}
	return step
}

func (m *mockRecognizer) Recognize(ctx context.Context, _ camera.Frame) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, &TransportError{Err: err}
	}
	m.mu.Lock()
	step := m.steps[m.next%len(m.steps)]
	m.next++
	m.mu.Unlock()

	return Result{
		Success:      true,
		HandDetected: step.hand,
		Letter:       step.letter,
		Confidence:   step.confidence,
	}, nil
}
