// Package accumulator turns the stream of per-frame classifications into
// stable text.
package accumulator

import (
	"context"
	"log/slog"
	"strings"

	"github.com/loqalabs/loqa-sign/internal/config"
	"github.com/loqalabs/loqa-sign/internal/recognition"
	"github.com/loqalabs/loqa-sign/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Reason explains why a result was not appended.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonUnsuccessful  Reason = "unsuccessful"
	ReasonNoLetter      Reason = "no_letter"
	ReasonLowConfidence Reason = "low_confidence"
	ReasonRepeat        Reason = "repeat"
)

// Decision is the outcome of applying one result. Rejection is a normal
// outcome, not an error.
type Decision struct {
	Accepted bool
	Reason   Reason
}

// Machine applies the acceptance policy to a session store.
type Machine struct {
	state         *session.Store
	minConfidence float64
	nominal       float64
	log           *slog.Logger

	accepted metric.Int64Counter
	rejected metric.Int64Counter
}

func New(state *session.Store, cfg config.AccumulatorConfig, log *slog.Logger) *Machine {
	m := &Machine{
		state:         state,
		minConfidence: cfg.MinConfidence,
		nominal:       cfg.NominalConfidence,
		log:           log.With(slog.String("component", "accumulator")),
	}
	meter := otel.Meter("github.com/loqalabs/loqa-sign/accumulator")
	var err error
	if m.accepted, err = meter.Int64Counter("loqa.sign.letters.accepted", metric.WithDescription("Symbols appended to the session text")); err != nil {
		m.log.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	if m.rejected, err = meter.Int64Counter("loqa.sign.recognition.rejected", metric.WithDescription("Recognition results rejected by policy")); err != nil {
		m.log.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	return m
}

// Handle routes a recognition outcome to OnResult or OnFailure.
func (m *Machine) Handle(ctx context.Context, result recognition.Result, err error) {
	if err != nil {
		m.OnFailure(ctx, err)
		return
	}
	m.OnResult(ctx, result)
}

// OnResult updates hand visibility and appends the letter if it passes the
// confidence gate and is not an immediate repeat.
func (m *Machine) OnResult(ctx context.Context, result recognition.Result) Decision {
	m.state.SetHandVisible(result.HandDetected)

	letter := strings.TrimSpace(result.Letter)
	var reason Reason
	switch {
	case !result.Success:
		reason = ReasonUnsuccessful
	case letter == "":
		reason = ReasonNoLetter
	case result.Confidence <= m.minConfidence:
		reason = ReasonLowConfidence
	case !m.state.AppendUnlessRepeat(letter, m.displayConfidence(result.Confidence), "camera"):
		reason = ReasonRepeat
	}

	if reason != ReasonNone {
		m.count(ctx, m.rejected, attribute.String("reason", string(reason)))
		return Decision{Reason: reason}
	}
	m.count(ctx, m.accepted, attribute.String("source", "camera"))
	m.log.Debug("letter accepted", slog.String("letter", letter), slog.Float64("confidence", result.Confidence))
	return Decision{Accepted: true}
}

// OnFailure absorbs a transport or service failure.
func (m *Machine) OnFailure(_ context.Context, err error) {
	m.state.SetHandVisible(false)
	m.log.Warn("recognition failed", slog.String("error", err.Error()))
}

// AddLetter appends a manually entered letter. Only the repeat rule applies.
func (m *Machine) AddLetter(ctx context.Context, letter string) Decision {
	letter = strings.TrimSpace(letter)
	if letter == "" {
		return Decision{Reason: ReasonNoLetter}
	}
	if !m.state.AppendUnlessRepeat(letter, m.displayConfidence(1), "manual") {
		return Decision{Reason: ReasonRepeat}
	}
	m.count(ctx, m.accepted, attribute.String("source", "manual"))
	return Decision{Accepted: true}
}

// Clear resets the text, the last letter and the translation.
func (m *Machine) Clear() {
	m.state.Reset()
	m.log.Info("text cleared")
}

func (m *Machine) displayConfidence(actual float64) float64 {
	if m.nominal > 0 {
		return m.nominal
	}
	return actual
}

func (m *Machine) count(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
