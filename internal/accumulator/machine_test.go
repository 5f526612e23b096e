package accumulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/loqalabs/loqa-sign/internal/config"
	"github.com/loqalabs/loqa-sign/internal/recognition"
	"github.com/loqalabs/loqa-sign/internal/session"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newMachine(cfg config.AccumulatorConfig) (*Machine, *session.Store) {
	state := session.New()
	return New(state, cfg, newLogger()), state
}

func defaultConfig() config.AccumulatorConfig {
	return config.AccumulatorConfig{MinConfidence: 0.7}
}

func letter(l string, conf float64) recognition.Result {
	return recognition.Result{Success: true, HandDetected: true, Letter: l, Confidence: conf}
}

func TestConcatenationInAcceptanceOrder(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()
	for _, l := range []string{"H", "E", "L", "O"} {
		if d := m.OnResult(ctx, letter(l, 0.9)); !d.Accepted {
			t.Fatalf("expected %s accepted, got %+v", l, d)
		}
	}
	if state.Text() != "HELO" {
		t.Fatalf("expected HELO, got %q", state.Text())
	}
}

func TestConfidenceThresholdIsStrict(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()

	if d := m.OnResult(ctx, letter("A", 0.70)); d.Accepted || d.Reason != ReasonLowConfidence {
		t.Fatalf("expected 0.70 rejected for low confidence, got %+v", d)
	}
	if state.Text() != "" {
		t.Fatalf("expected empty text, got %q", state.Text())
	}
	if d := m.OnResult(ctx, letter("A", 0.71)); !d.Accepted {
		t.Fatalf("expected 0.71 accepted, got %+v", d)
	}
	if state.Text() != "A" {
		t.Fatalf("expected A, got %q", state.Text())
	}
}

func TestLowConfidenceNeverAccepted(t *testing.T) {
	m, state := newMachine(defaultConfig())
	for _, l := range []string{"A", "B", "HELLO", "अ", "?"} {
		for _, conf := range []float64{0, 0.3, 0.5, 0.69, 0.7} {
			m.OnResult(context.Background(), letter(l, conf))
		}
	}
	if state.Text() != "" {
		t.Fatalf("expected nothing accepted, got %q", state.Text())
	}
}

func TestImmediateRepeatSuppressed(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()
	seq := []recognition.Result{letter("A", 0.9), letter("A", 0.9), letter("B", 0.9), letter("A", 0.9)}
	var reasons []Reason
	for _, r := range seq {
		reasons = append(reasons, m.OnResult(ctx, r).Reason)
	}
	if state.Text() != "ABA" {
		t.Fatalf("expected ABA, got %q", state.Text())
	}
	if reasons[1] != ReasonRepeat {
		t.Fatalf("expected second A rejected as repeat, got %v", reasons)
	}
}

func TestRejectedResultsLeaveTextUntouched(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()
	m.OnResult(ctx, letter("A", 0.9))

	cases := []struct {
		result recognition.Result
		reason Reason
	}{
		{recognition.Result{Success: false, HandDetected: true, Letter: "B", Confidence: 0.9}, ReasonUnsuccessful},
		{recognition.Result{Success: true, HandDetected: true, Letter: "", Confidence: 0.9}, ReasonNoLetter},
		{recognition.Result{Success: true, HandDetected: true, Letter: "  ", Confidence: 0.9}, ReasonNoLetter},
		{letter("B", 0.2), ReasonLowConfidence},
	}
	for _, tc := range cases {
		if d := m.OnResult(ctx, tc.result); d.Accepted || d.Reason != tc.reason {
			t.Fatalf("expected %s, got %+v", tc.reason, d)
		}
	}
	if state.Text() != "A" || state.LastLetter().Letter != "A" {
		t.Fatalf("expected state unchanged, got %+v", state.Snapshot())
	}
}

func TestHandVisibleTracksEveryResult(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()

	m.OnResult(ctx, recognition.Result{Success: true, HandDetected: true, Confidence: 0.3})
	if !state.HandVisible() {
		t.Fatal("expected hand visible even when rejected")
	}
	m.OnResult(ctx, recognition.Result{Success: true, HandDetected: false})
	if state.HandVisible() {
		t.Fatal("expected hand not visible")
	}
	m.OnResult(ctx, letter("A", 0.9))
	m.Handle(ctx, recognition.Result{}, errors.New("connection refused"))
	if state.HandVisible() {
		t.Fatal("expected failure to clear hand visible")
	}
	if state.Text() != "A" {
		t.Fatalf("expected failure to leave text, got %q", state.Text())
	}
}

func TestLastLetterConfidence(t *testing.T) {
	m, state := newMachine(defaultConfig())
	m.OnResult(context.Background(), letter("A", 0.93))
	if got := state.LastLetter(); got.Letter != "A" || got.Confidence != 0.93 {
		t.Fatalf("expected true confidence, got %+v", got)
	}

	m, state = newMachine(config.AccumulatorConfig{MinConfidence: 0.7, NominalConfidence: 0.85})
	m.OnResult(context.Background(), letter("A", 0.93))
	if got := state.LastLetter(); got.Confidence != 0.85 {
		t.Fatalf("expected nominal confidence, got %+v", got)
	}
}

func TestClearResetsAll(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()
	m.OnResult(ctx, letter("H", 0.9))
	m.OnResult(ctx, letter("I", 0.9))
	state.SetTranslation("HI", "नमस्ते", "Marathi")

	m.Clear()
	snap := state.Snapshot()
	if snap.Text != "" || snap.Translated != "" || snap.LastLetter != (session.LastLetter{}) {
		t.Fatalf("expected empty state after clear, got %+v", snap)
	}

	m.Clear()
	if state.Text() != "" {
		t.Fatal("expected clear on empty state to stay empty")
	}
	if d := m.OnResult(ctx, letter("I", 0.9)); !d.Accepted {
		t.Fatalf("expected letter accepted after clear, got %+v", d)
	}
}

func TestAddLetterManual(t *testing.T) {
	m, state := newMachine(defaultConfig())
	ctx := context.Background()
	if d := m.AddLetter(ctx, "A"); !d.Accepted {
		t.Fatalf("expected manual letter accepted, got %+v", d)
	}
	if d := m.AddLetter(ctx, "A"); d.Accepted || d.Reason != ReasonRepeat {
		t.Fatalf("expected manual repeat rejected, got %+v", d)
	}
	if d := m.AddLetter(ctx, ""); d.Accepted {
		t.Fatal("expected empty manual letter rejected")
	}
	if state.Text() != "A" {
		t.Fatalf("expected A, got %q", state.Text())
	}
}
